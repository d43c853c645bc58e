package conformance

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadDir loads every .yaml file under dir, in file name order.
func LoadDir(dir string) ([]Loaded, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".yaml" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var loaded []Loaded
	for _, path := range files {
		suite, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		rel, _ := filepath.Rel(dir, path)
		for _, c := range suite.Cases {
			loaded = append(loaded, Loaded{File: rel, Suite: suite.Name, Case: c})
		}
	}
	return loaded, nil
}

// LoadFile parses one suite and checks that every case is well formed.
func LoadFile(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i, c := range suite.Cases {
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("%s: case %d (%s): %w", path, i+1, c.Name, err)
		}
	}
	return &suite, nil
}

func (c Case) validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("missing name")
	case c.Source == "" && len(c.Modules) == 0:
		return fmt.Errorf("needs source or modules")
	case c.Source != "" && len(c.Modules) > 0:
		return fmt.Errorf("has both source and modules")
	case c.Logs == nil && c.Error == "" && c.Diagnostics == nil:
		return fmt.Errorf("has no expectation")
	}
	return nil
}
