package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Build is what a target body works with: the scheduler, the selected
// toolchains and the build script variables.
type Build struct {
	ctx    context.Context
	sched  *Scheduler
	tools  *Toolchains
	cfg    *Config
	goos   string
	dir    string
	target string
}

func NewBuild(ctx context.Context, sched *Scheduler, tools *Toolchains, cfg *Config, goos, dir string) *Build {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Build{
		ctx:   ctx,
		sched: sched,
		tools: tools,
		cfg:   cfg,
		goos:  goos,
		dir:   dir,
	}
}

// RunSteps executes steps in order. A concurrent step buffers its inner
// build steps and drains them as one parallel batch.
func (b *Build) RunSteps(steps []Step) error {
	for _, s := range steps {
		if err := b.runStep(s); err != nil {
			return err
		}
	}
	return nil
}

func (b *Build) runStep(s Step) error {
	kinds := s.Kinds()
	if len(kinds) != 1 {
		return configError("A step needs exactly one action, got %d.", len(kinds))
	}

	switch kinds[0] {
	case StepConcurrent:
		b.ConcurrentStart()
		for _, inner := range s.Concurrent {
			if err := b.runStep(inner); err != nil {
				return err
			}
		}
		return b.ConcurrentEnd()
	case StepRun:
		return b.Run(b.parse(s.Run), b.parseAll(s.Outputs), b.parseAll(s.Inputs))
	case StepToolchain:
		return b.SelectToolchain(*s.Toolchain)
	case StepObject:
		return b.BuildObject(b.parseSpec(*s.Object))
	case StepProgram:
		return b.BuildProgram(b.parseSpec(*s.Program))
	case StepLink:
		return b.LinkProgram(b.parseSpec(*s.Link))
	case StepSharedLibrary:
		return b.BuildSharedLibrary(b.parseSpec(*s.SharedLibrary))
	case StepStaticLibrary:
		return b.BuildStaticLibrary(b.parseSpec(*s.StaticLibrary))
	}
	return configError("Unknown step '%s'.", kinds[0])
}

func (b *Build) parse(text string) string {
	return b.cfg.ParseVars(text, b.target)
}

func (b *Build) parseAll(texts []string) []string {
	if texts == nil {
		return nil
	}
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = b.parse(text)
	}
	return out
}

// parseSpec substitutes build script variables in file names so that
// staleness is checked against the real paths.
func (b *Build) parseSpec(spec BuildSpec) BuildSpec {
	spec.Out = b.parse(spec.Out)
	spec.In = b.parseAll(spec.In)
	spec.Include = b.parseAll(spec.Include)
	return spec
}

func (b *Build) ConcurrentStart() {
	b.sched.ConcurrentStart()
}

func (b *Build) ConcurrentEnd() error {
	return b.sched.ConcurrentEnd(b.ctx)
}

func (b *Build) add(ev *Event) error {
	return b.sched.Add(b.ctx, ev)
}

// SelectToolchain picks a compiler or the linker and publishes it
// through the environment for the steps that follow.
func (b *Build) SelectToolchain(spec ToolchainSpec) error {
	env := b.sched.Env()
	if spec.Lang == "linker" {
		l, err := b.tools.Linker(spec.Name)
		if err != nil {
			return err
		}
		b.tools.SelectLinker(env, l)
		return nil
	}

	lang, err := languageByName(spec.Lang)
	if err != nil {
		return err
	}
	c, err := b.tools.Compiler(lang, spec.Name)
	if err != nil {
		return err
	}
	b.tools.SelectCompiler(env, lang, c, CompilerOptions{
		Debug:            spec.Debug,
		WarningsAll:      spec.WarningsAll,
		WarningsAsErrors: spec.WarningsAsErrors,
		Optimize:         spec.Optimize,
		Defines:          spec.Defines,
	})
	return nil
}

// compiler returns the selected compiler for lang, falling back to the
// platform default when the build script never chose one.
func (b *Build) compiler(lang Language) (*Compiler, error) {
	if c, ok := b.tools.Selected(lang); ok {
		return c, nil
	}
	c, err := b.tools.Compiler(lang, "")
	if err != nil {
		return nil, err
	}
	b.tools.SelectCompiler(b.sched.Env(), lang, c, CompilerOptions{})
	return c, nil
}

// path resolves a toolchain step path against the build directory,
// after mapping its extension to the platform's.
func (b *Build) path(p string) string {
	return b.resolve(NativePath(b.goos, p))
}

// resolve joins a relative path to the build directory.
func (b *Build) resolve(p string) string {
	if filepath.IsAbs(p) || b.dir == "" {
		return p
	}
	return filepath.Join(b.dir, p)
}

func mapPaths(ps []string, fn func(string) string) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = fn(p)
	}
	return out
}

// outdated is the setup check shared by the toolchain steps.
func (b *Build) outdated(outputs, inputs []string) (bool, error) {
	return IsOutdated(mapPaths(outputs, b.path), mapPaths(inputs, b.path))
}

// requireEnv fails when the environment variable key is missing. It
// runs at admission time, so a toolchain selected earlier in the same
// batch is visible.
func (b *Build) requireEnv(key, what string) error {
	if _, ok := b.sched.Env().Lookup(key); !ok {
		return configError("Set the env variable '%s' to the %s, and try again.", key, what)
	}
	return nil
}

func nouns(lang Language, singular string) (string, string) {
	return lang.Display + " " + singular + "s", lang.Display + " " + singular
}

func (b *Build) BuildObject(spec BuildSpec) error {
	if err := requireExtension(spec.Out, ".o"); err != nil {
		return err
	}
	lang, err := languageByName(spec.Lang)
	if err != nil {
		return err
	}
	c, err := b.compiler(lang)
	if err != nil {
		return err
	}

	plural, singular := nouns(lang, "object")
	command := fmt.Sprintf("${%s} ${%s} %s %s%s %s %s",
		lang.CompilerVar, lang.FlagsVar, c.NoLink, c.OutFile, spec.Out,
		strings.Join(spec.In, " "), strings.Join(spec.Include, " "))

	return b.add(NewEvent("Building", spec.Out, plural, singular, NativeCommand(b.goos, command), func() (bool, error) {
		if needed, err := b.outdated([]string{spec.Out}, spec.In); err != nil || !needed {
			return false, err
		}
		return true, b.requireEnv(lang.CompilerVar, lang.Display+" compiler")
	}))
}

func (b *Build) BuildProgram(spec BuildSpec) error {
	if err := requireExtension(spec.Out, ".exe"); err != nil {
		return err
	}
	lang, err := languageByName(spec.Lang)
	if err != nil {
		return err
	}
	c, err := b.compiler(lang)
	if err != nil {
		return err
	}

	plural, singular := nouns(lang, "program")
	command := fmt.Sprintf("${%s} ${%s} %s %s %s%s",
		lang.CompilerVar, lang.FlagsVar,
		strings.Join(spec.In, " "), strings.Join(spec.Include, " "), c.OutFile, spec.Out)

	return b.add(NewEvent("Building", spec.Out, plural, singular, NativeCommand(b.goos, command), func() (bool, error) {
		if needed, err := b.outdated([]string{spec.Out}, spec.In); err != nil || !needed {
			return false, err
		}
		return true, b.requireEnv(lang.CompilerVar, lang.Display+" compiler")
	}))
}

// LinkProgram links object files into a program, through the compiler
// of spec.Lang or, for lang "linker", through the selected linker.
func (b *Build) LinkProgram(spec BuildSpec) error {
	if spec.Lang == "linker" {
		return b.linkWithLinker(spec)
	}
	if err := requireExtension(spec.Out, ".exe"); err != nil {
		return err
	}
	lang, err := languageByName(spec.Lang)
	if err != nil {
		return err
	}
	c, err := b.compiler(lang)
	if err != nil {
		return err
	}

	plural, singular := nouns(lang, "program")
	command := fmt.Sprintf("${%s} ${%s} %s %s %s %s%s",
		lang.CompilerVar, lang.FlagsVar, c.Link,
		strings.Join(spec.In, " "), strings.Join(spec.Include, " "), c.OutFile, spec.Out)

	return b.add(NewEvent("Linking", spec.Out, plural, singular, NativeCommand(b.goos, command), func() (bool, error) {
		if needed, err := b.outdated([]string{spec.Out}, spec.In); err != nil || !needed {
			return false, err
		}
		return true, b.requireEnv(lang.CompilerVar, lang.Display+" compiler")
	}))
}

func (b *Build) linkWithLinker(spec BuildSpec) error {
	l, err := b.linker()
	if err != nil {
		return err
	}
	command := fmt.Sprintf("${LINKER} %s %s%s %s %s",
		l.Setup, l.OutFile, spec.Out, strings.Join(spec.In, " "), strings.Join(spec.Include, " "))

	return b.add(NewEvent("Linking", spec.Out, "programs", "program", NativeCommand(b.goos, command), func() (bool, error) {
		if needed, err := b.outdated([]string{spec.Out}, spec.In); err != nil || !needed {
			return false, err
		}
		return true, b.requireEnv("LINKER", "linker")
	}))
}

func (b *Build) linker() (*Linker, error) {
	if l, ok := b.tools.SelectedLinker(); ok {
		return l, nil
	}
	l, err := b.tools.Linker("")
	if err != nil {
		return nil, err
	}
	b.tools.SelectLinker(b.sched.Env(), l)
	return l, nil
}

func (b *Build) BuildSharedLibrary(spec BuildSpec) error {
	if err := requireExtension(spec.Out, ".so"); err != nil {
		return err
	}
	l, err := b.linker()
	if err != nil {
		return err
	}
	command := fmt.Sprintf("%s %s %s %s %s%s",
		l.Name, l.Setup, l.Shared, strings.Join(spec.In, " "), l.OutFile, spec.Out)

	return b.add(NewEvent("Building", spec.Out, "shared libraries", "shared library", NativeCommand(b.goos, command), func() (bool, error) {
		return b.outdated([]string{spec.Out}, spec.In)
	}))
}

func (b *Build) BuildStaticLibrary(spec BuildSpec) error {
	if err := requireExtension(spec.Out, ".a"); err != nil {
		return err
	}
	command := fmt.Sprintf("ar rcs %s %s", spec.Out, strings.Join(spec.In, " "))

	return b.add(NewEvent("Building", spec.Out, "static libraries", "static library", NativeCommand(b.goos, command), func() (bool, error) {
		if needed, err := b.outdated([]string{spec.Out}, spec.In); err != nil || !needed {
			return false, err
		}
		if err := os.MkdirAll(filepath.Dir(b.path(spec.Out)), 0o755); err != nil {
			return false, configError("Cannot create the directory for '%s': %v", spec.Out, err)
		}
		return true, nil
	}))
}

// Run schedules a plain command. With outputs and inputs it only runs
// when the outputs are outdated. The paths are checked as written.
func (b *Build) Run(command string, outputs, inputs []string) error {
	ev := NewEvent("Running", command, "commands", "command", command, func() (bool, error) {
		if len(outputs) == 0 && len(inputs) == 0 {
			return true, nil
		}
		return IsOutdated(mapPaths(outputs, b.resolve), mapPaths(inputs, b.resolve))
	})
	ev.ShowOutput = true
	return b.add(ev)
}
