// neoc - JavaScript to NEO bytecode compiler
//
// Compiles a subset of JavaScript into a NEO 2.x script and optionally runs
// it in the reference VM.
// Uses manual argument parsing to keep flags like -o out.avm and -oout.avm.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kolkov/neoc"
)

// version is set by GoReleaser at build time via -ldflags.
// For development builds, it will be "dev".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	shortUsage = "usage: neoc [-o out.avm] [-r] [-p neoc.toml] [-e entry] [file ...]"
	longUsage  = `Compilation:
  -o file           write the script to file (default: entry name with .avm)
  -e name           entry unit (default: first file)
  -p manifest       compile the modules listed in a neoc.toml manifest
  -s                strict: fail on the first diagnostic
  -x pattern        suppress diagnostics whose code matches pattern (multiple allowed)
  -g                write a CBOR source map next to the script (.avm.map)

Execution:
  -r                run the script in the reference VM instead of writing it
  -m N              maximum VM steps (default 1000000)

Debugging arguments:
  -da               print bytecode assembly to stderr and exit
  -v                log compiler progress to stderr

Other:
  -h, --help        show this help message
  -version          show neoc version and exit
`
)

//nolint:gocyclo,funlen // CLI argument parsing is inherently complex
func main() {
	var files []string
	var suppress []string
	output := ""
	entry := ""
	manifest := ""
	strict := false
	debugInfo := false
	runScript := false
	debugAsm := false
	verbose := false
	maxSteps := 0

	var i int
	for i = 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		if arg == "--" {
			i++
			break
		}
		if !strings.HasPrefix(arg, "-") {
			break
		}

		switch arg {
		case "-o":
			output = needArg(&i, arg)
		case "-e":
			entry = needArg(&i, arg)
		case "-p":
			manifest = needArg(&i, arg)
		case "-x":
			suppress = append(suppress, needArg(&i, arg))
		case "-m":
			maxSteps = parseSteps(needArg(&i, arg))
		case "-s":
			strict = true
		case "-g":
			debugInfo = true
		case "-r":
			runScript = true
		case "-da":
			debugAsm = true
		case "-v":
			verbose = true
		case "-h", "--help":
			fmt.Printf("neoc %s - JavaScript to NEO compiler\n\n%s\n\n%s", version, shortUsage, longUsage)
			os.Exit(0)
		case "-version", "--version":
			fmt.Printf("neoc version %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
			os.Exit(0)
		default:
			switch {
			case strings.HasPrefix(arg, "-o"):
				output = arg[2:]
			case strings.HasPrefix(arg, "-e"):
				entry = arg[2:]
			case strings.HasPrefix(arg, "-x"):
				suppress = append(suppress, arg[2:])
			case strings.HasPrefix(arg, "-m"):
				maxSteps = parseSteps(arg[2:])
			default:
				errorExitf("flag provided but not defined: %s", arg)
			}
		}
	}
	files = append(files, os.Args[i:]...)

	var (
		prog   *neoc.Program
		config *neoc.Config
		err    error
	)
	switch {
	case manifest != "":
		if len(files) > 0 {
			errorExitf("-p cannot be combined with source files")
		}
		prog, config, err = neoc.CompileProject(manifest)
		if err != nil {
			errorExit(err)
		}
	case len(files) > 0:
		config = &neoc.Config{}
		sources := make([]neoc.Source, 0, len(files))
		for _, f := range files {
			content, err := os.ReadFile(f)
			if err != nil {
				errorExitf("cannot read source file %s: %v", f, err)
			}
			sources = append(sources, neoc.Source{Name: filepath.Base(f), Code: string(content)})
		}
		config.Entry = entry
		config.Strict = strict
		config.Suppress = suppress
		config.DebugInfo = debugInfo
		if verbose {
			config.LogVerbosity = 2
		}
		prog, err = neoc.CompileFiles(sources, config)
		if err != nil {
			errorExit(err)
		}
		if entry == "" {
			entry = sources[0].Name
		}
	default:
		errorExitf(shortUsage)
	}
	if maxSteps > 0 {
		config.MaxSteps = maxSteps
	}

	for _, d := range prog.Diagnostics() {
		fmt.Fprintf(os.Stderr, "neoc: warning: %s\n", d)
	}

	if debugAsm {
		if err := prog.Disassemble(os.Stderr); err != nil {
			errorExit(err)
		}
		os.Exit(0)
	}

	if runScript {
		stdout := bufio.NewWriter(os.Stdout)
		config.Output = stdout
		_, err := prog.Run(config)
		stdout.Flush()
		if err != nil {
			var re *neoc.RuntimeError
			if errors.As(err, &re) && re.Exception != "" {
				errorExitf("uncaught %s", re.Exception)
			}
			errorExit(err)
		}
		return
	}

	if output == "" {
		name := entry
		if name == "" {
			name = config.Entry
		}
		if name == "" {
			name = "out"
		}
		output = strings.TrimSuffix(name, filepath.Ext(name)) + ".avm"
	}
	if err := os.WriteFile(output, prog.Script(), 0o644); err != nil {
		errorExitf("cannot write %s: %v", output, err)
	}
	if len(prog.SourceMap()) > 0 {
		data, err := prog.DebugInfo()
		if err != nil {
			errorExit(err)
		}
		if err := os.WriteFile(output+".map", data, 0o644); err != nil {
			errorExitf("cannot write %s.map: %v", output, err)
		}
	}
}

// needArg returns the value of a flag that takes an argument.
func needArg(i *int, flag string) string {
	if *i+1 >= len(os.Args) {
		errorExitf("flag needs an argument: %s", flag)
	}
	*i++
	return os.Args[*i]
}

func parseSteps(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		errorExitf("invalid step limit: %s", s)
	}
	return n
}

// errorExitf prints formatted error message and exits with code 1
func errorExitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "neoc: "+format+"\n", args...)
	os.Exit(1)
}

// errorExit prints error and exits with code 1
func errorExit(err error) {
	fmt.Fprintf(os.Stderr, "neoc: %v\n", err)
	os.Exit(1)
}
