package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultScript = "raise.yaml"

// loadConfig decodes the build script at path, then every include in
// order on top of it. A missing include is only a warning.
func loadConfig(path string, log *slog.Logger) (*Config, error) {
	cfg := &Config{
		Vars:    make(map[string]Var),
		Targets: make(map[string]Target),
	}

	if err := decodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, RaiseException(FILE_NOT_FOUND, filepath.Dir(path))
		}
		return nil, configError("Cannot load '%s': %v", path, err)
	}

	base := filepath.Dir(path)
	for _, inc := range cfg.Includes {
		incPath := inc
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(base, inc)
		}
		if err := decodeFile(incPath, cfg); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Warn("cannot load include", "include", inc)
				continue
			}
			return nil, configError("Cannot load include '%s': %v", inc, err)
		}
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks every step of every target without touching the
// filesystem or the toolchains.
func (c *Config) Validate() error {
	var problems []string
	check := func(where string, t Target) {
		for i, s := range t.AllSteps() {
			problems = append(problems, validateStep(fmt.Sprintf("%s step %d", where, i+1), s, false)...)
		}
	}
	check("prologue", c.Prologue)
	check("epilogue", c.Epilogue)
	for _, name := range c.TargetNames() {
		if strings.TrimSpace(name) == "" {
			problems = append(problems, "target with an empty name")
			continue
		}
		check(fmt.Sprintf("target '%s'", name), c.Targets[name])
	}

	if len(problems) > 0 {
		return configError("Invalid build script: %s.", strings.Join(problems, "; "))
	}
	return nil
}

func validateStep(where string, s Step, nested bool) []string {
	kinds := s.Kinds()
	switch len(kinds) {
	case 0:
		return []string{where + " has no action"}
	case 1:
	default:
		return []string{fmt.Sprintf("%s has more than one action (%s)", where, strings.Join(kinds, ", "))}
	}

	var problems []string
	switch kinds[0] {
	case StepConcurrent:
		if nested {
			return []string{where + " nests a concurrent block"}
		}
		for i, inner := range s.Concurrent {
			problems = append(problems, validateStep(fmt.Sprintf("%s.%d", where, i+1), inner, true)...)
		}
	case StepToolchain:
		if nested {
			problems = append(problems, where+" selects a toolchain inside a concurrent block")
		}
		if s.Toolchain.Lang != "linker" {
			if _, err := languageByName(s.Toolchain.Lang); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", where, err))
			}
		}
	case StepObject, StepProgram, StepLink, StepSharedLibrary, StepStaticLibrary:
		spec := s.buildSpec()
		if spec.Out == "" {
			problems = append(problems, where+" has no out file")
		}
		if len(spec.In) == 0 {
			problems = append(problems, where+" has no input files")
		}
	}
	if (len(s.Outputs) > 0 || len(s.Inputs) > 0) && kinds[0] != StepRun {
		problems = append(problems, where+" sets outputs/inputs on a non-run step")
	}
	return problems
}

func (s Step) buildSpec() *BuildSpec {
	switch {
	case s.Object != nil:
		return s.Object
	case s.Program != nil:
		return s.Program
	case s.Link != nil:
		return s.Link
	case s.SharedLibrary != nil:
		return s.SharedLibrary
	default:
		return s.StaticLibrary
	}
}

// TargetNames returns the target names, sorted.
func (c *Config) TargetNames() []string {
	names := make([]string, 0, len(c.Targets))
	for name := range c.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TargetFunc is the body of a target.
type TargetFunc func(b *Build) error

// TargetTable maps target names to their bodies. Targets are
// registered explicitly; nothing is discovered.
type TargetTable struct {
	funcs map[string]TargetFunc
	docs  map[string]string
}

func NewTargetTable() *TargetTable {
	return &TargetTable{
		funcs: make(map[string]TargetFunc),
		docs:  make(map[string]string),
	}
}

func (t *TargetTable) Register(name, doc string, fn TargetFunc) {
	t.funcs[name] = fn
	t.docs[name] = doc
}

func (t *TargetTable) Lookup(name string) (TargetFunc, bool) {
	fn, ok := t.funcs[name]
	return fn, ok
}

func (t *TargetTable) Doc(name string) string {
	return t.docs[name]
}

func (t *TargetTable) Names() []string {
	names := make([]string, 0, len(t.funcs))
	for name := range t.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table registers every target of the build script.
func (c *Config) Table() *TargetTable {
	table := NewTargetTable()
	for name, target := range c.Targets {
		steps := target.AllSteps()
		table.Register(name, target.Doc, func(b *Build) error {
			return b.RunSteps(steps)
		})
	}
	return table
}
