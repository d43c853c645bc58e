package neoc

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/coregx/coregex"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// DefaultMaxSteps is the instruction budget of Program.Run.
const DefaultMaxSteps = 1_000_000

// Config holds configuration options for compilation and execution.
type Config struct {
	// Entry names the unit whose execution starts the program.
	// Default: the first unit.
	Entry string `toml:"entry"`

	// Strict turns every remaining diagnostic into a CompileError.
	Strict bool `toml:"strict"`

	// Suppress lists regular expressions matched against diagnostic codes.
	// Matching diagnostics are dropped; the code they stand for still
	// throws when it runs.
	// Example: []string{"^float-literal$", "regexp"}
	Suppress []string `toml:"suppress"`

	// MaxSteps bounds the instructions Program.Run executes.
	// Default: DefaultMaxSteps.
	MaxSteps int `toml:"max_steps"`

	// LogVerbosity configures commonlog when non-zero (1 = errors ... 5 = debug).
	LogVerbosity int `toml:"log_verbosity"`

	// DebugInfo keeps the source map on the Program.
	DebugInfo bool `toml:"debug_info"`

	// Output receives console output of Program.Run, one line per call.
	// If nil, output is only returned.
	Output io.Writer `toml:"-"`

	suppress []*coregex.Regexp
}

// Module is one entry of a project manifest.
type Module struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

// manifest is the layout of neoc.toml.
type manifest struct {
	Config
	Modules []Module `toml:"module"`
}

// applyDefaults fills in default values for unset Config fields and
// compiles the suppression patterns.
func (c *Config) applyDefaults() error {
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.LogVerbosity != 0 {
		commonlog.Configure(c.LogVerbosity, nil)
	}
	c.suppress = c.suppress[:0]
	for _, pattern := range c.Suppress {
		re, err := coregex.Compile(pattern)
		if err != nil {
			return fmt.Errorf("suppress pattern %q: %w", pattern, err)
		}
		c.suppress = append(c.suppress, re)
	}
	return nil
}

// suppressed reports whether a diagnostic code matches a Suppress pattern.
func (c *Config) suppressed(code string) bool {
	for _, re := range c.suppress {
		if re.MatchString(code) {
			return true
		}
	}
	return false
}

// LoadConfig reads a project manifest. Module paths are resolved relative to
// the manifest's directory.
//
// Example neoc.toml:
//
//	entry = "main.js"
//	suppress = ["^float-literal$"]
//
//	[[module]]
//	name = "main.js"
//	path = "src/main.js"
func LoadConfig(path string) (*Config, []Module, error) {
	var m manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, nil, fmt.Errorf("loading %s: unknown key %q", path, undecoded[0].String())
	}
	dir := filepath.Dir(path)
	for i, mod := range m.Modules {
		if mod.Path == "" {
			return nil, nil, fmt.Errorf("loading %s: module %d has no path", path, i+1)
		}
		if mod.Name == "" {
			m.Modules[i].Name = filepath.Base(mod.Path)
		}
		if !filepath.IsAbs(mod.Path) {
			m.Modules[i].Path = filepath.Join(dir, mod.Path)
		}
	}
	cfg := m.Config
	return &cfg, m.Modules, nil
}

// readModules loads the source of every module.
func readModules(mods []Module) ([]Source, error) {
	sources := make([]Source, 0, len(mods))
	for _, mod := range mods {
		code, err := os.ReadFile(mod.Path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{Name: mod.Name, Code: string(code)})
	}
	return sources, nil
}
