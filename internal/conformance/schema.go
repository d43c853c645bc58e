// Package conformance loads the YAML suites of end-to-end compiler tests.
package conformance

// Suite is one YAML file: a group of related cases.
type Suite struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Cases       []Case `yaml:"cases"`
}

// Case is one program and its expected behavior. Exactly one of Logs,
// Error and Diagnostics is the expectation; Logs may accompany Error to
// check the output printed before the exception.
type Case struct {
	Name string `yaml:"name"`
	Skip string `yaml:"skip,omitempty"`

	// Source is a single unit named main.js; Modules lists several units,
	// the first being the entry.
	Source  string   `yaml:"source,omitempty"`
	Modules []Module `yaml:"modules,omitempty"`

	Logs        []string `yaml:"logs,omitempty"`
	Error       string   `yaml:"error,omitempty"`
	Diagnostics []string `yaml:"diagnostics,omitempty"`
}

// Module is one named unit of a multi-unit case.
type Module struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
}

// Loaded is a case together with the file and suite it came from.
type Loaded struct {
	File  string
	Suite string
	Case  Case
}
