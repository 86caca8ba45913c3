package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// BuildOptions are the knobs of one `raise build` invocation.
type BuildOptions struct {
	Script       string
	Dir          string
	Jobs         int
	PollInterval time.Duration
	Abandon      bool
}

// scriptPath returns the build script location for dir and file.
func scriptPath(dir, file string) string {
	if file == "" {
		file = DefaultScript
	}
	if filepath.IsAbs(file) || dir == "" {
		return file
	}
	return filepath.Join(dir, file)
}

// loadScript loads and validates the build script.
func loadScript(opts BuildOptions, log *slog.Logger) (*Config, error) {
	cfg, err := loadConfig(scriptPath(opts.Dir, opts.Script), log)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runBuild runs the prologue, each target in order, then the epilogue.
// The first fatal error stops the build.
func runBuild(ctx context.Context, opts BuildOptions, report Reporter, log *slog.Logger, targets []string) error {
	cfg, err := loadScript(opts, log)
	if err != nil {
		return err
	}

	table := cfg.Table()
	for _, name := range targets {
		if _, ok := table.Lookup(name); !ok {
			fatal := RaiseException(TARGET_NOT_FOUND, name)
			if names := table.Names(); len(names) > 0 {
				fatal.Output = fmt.Sprintf("Found targets are '%s'.", strings.Join(names, "', '"))
			}
			return fatal
		}
	}

	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return configError("Bad working directory '%s': %v", opts.Dir, err)
	}

	env := OSEnviron()
	cfg.ExportVars(env)

	sched := NewScheduler(Options{
		Jobs:         opts.Jobs,
		PollInterval: opts.PollInterval,
		Abandon:      opts.Abandon,
		Dir:          dir,
		Env:          env,
		Logger:       log,
		Reporter:     report,
	})
	tools := DiscoverToolchains(runtime.GOOS, exec.LookPath)
	b := NewBuild(ctx, sched, tools, cfg, runtime.GOOS, dir)

	log.Debug("starting build", "script", scriptPath(opts.Dir, opts.Script), "targets", targets, "jobs", sched.Slots())

	if err := b.runPhase("prologue", cfg.Prologue); err != nil {
		return err
	}
	for _, name := range targets {
		fn, _ := table.Lookup(name)
		report.Info(fmt.Sprintf("Running target '%s'", name))
		b.target = name
		if err := fn(b); err != nil {
			return err
		}
	}
	return b.runPhase("epilogue", cfg.Epilogue)
}

func (b *Build) runPhase(name string, t Target) error {
	steps := t.AllSteps()
	if len(steps) == 0 {
		return nil
	}
	b.target = name
	return b.RunSteps(steps)
}

type targetInfo struct {
	Name  string `json:"name" yaml:"name"`
	Doc   string `json:"doc,omitempty" yaml:"doc,omitempty"`
	Steps int    `json:"steps" yaml:"steps"`
}

func targetInfos(cfg *Config) []targetInfo {
	table := cfg.Table()
	names := table.Names()
	targets := make([]targetInfo, 0, len(names))
	for _, name := range names {
		targets = append(targets, targetInfo{
			Name:  name,
			Doc:   table.Doc(name),
			Steps: len(cfg.Targets[name].AllSteps()),
		})
	}
	return targets
}

func listTargets(w io.Writer, cfg *Config, format string) error {
	switch format {
	case "json":
		return listTargetsJSON(w, cfg)
	case "yaml":
		return listTargetsYAML(w, cfg)
	case "", "table":
		return listTargetsTable(w, cfg)
	default:
		return configError("Unknown list format '%s'. Use table, json or yaml.", format)
	}
}

func listTargetsTable(w io.Writer, cfg *Config) error {
	fmt.Fprintln(w, "Available targets:")
	fmt.Fprintln(w, "------------------")

	targets := targetInfos(cfg)
	if len(targets) == 0 {
		fmt.Fprintln(w, "No targets found")
		return nil
	}

	maxNameLen := 0
	for _, t := range targets {
		maxNameLen = max(maxNameLen, len(t.Name))
	}

	for _, t := range targets {
		padding := strings.Repeat(" ", maxNameLen-len(t.Name)+2)
		doc := ""
		if t.Doc != "" {
			doc = "  " + t.Doc
		}
		fmt.Fprintf(w, "  %s%s%d steps%s\n", t.Name, padding, t.Steps, doc)
	}

	fmt.Fprintf(w, "\nTotal: %d targets\n", len(targets))
	return nil
}

func listTargetsJSON(w io.Writer, cfg *Config) error {
	targets := targetInfos(cfg)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]any{
		"targets": targets,
		"total":   len(targets),
	})
}

func listTargetsYAML(w io.Writer, cfg *Config) error {
	targets := targetInfos(cfg)
	encoder := yaml.NewEncoder(w)
	defer func() { _ = encoder.Close() }()
	return encoder.Encode(map[string]any{
		"targets": targets,
		"total":   len(targets),
	})
}
