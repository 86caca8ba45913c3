package main

type Var string

// Target is a named build entry point. Run is shorthand for leading
// plain command steps.
type Target struct {
	Doc   string   `yaml:"doc" json:"doc,omitempty"`
	Run   []string `yaml:"run" json:"run,omitempty"`
	Steps []Step   `yaml:"steps" json:"steps,omitempty"`
}

// Step is one entry of a target. Exactly one action field is set.
type Step struct {
	Run     string   `yaml:"run"`
	Outputs []string `yaml:"outputs"`
	Inputs  []string `yaml:"inputs"`

	Toolchain     *ToolchainSpec `yaml:"toolchain"`
	Object        *BuildSpec     `yaml:"object"`
	Program       *BuildSpec     `yaml:"program"`
	Link          *BuildSpec     `yaml:"link"`
	SharedLibrary *BuildSpec     `yaml:"shared_library"`
	StaticLibrary *BuildSpec     `yaml:"static_library"`
	Concurrent    []Step         `yaml:"concurrent"`
}

// BuildSpec describes one output built from a list of inputs.
type BuildSpec struct {
	Lang    string   `yaml:"lang"`
	Out     string   `yaml:"out"`
	In      []string `yaml:"in"`
	Include []string `yaml:"include"`
}

// ToolchainSpec selects a compiler (lang c or cxx) or the linker
// (lang linker) and its options.
type ToolchainSpec struct {
	Lang             string   `yaml:"lang"`
	Name             string   `yaml:"name"`
	Debug            bool     `yaml:"debug"`
	WarningsAll      bool     `yaml:"warnings_all"`
	WarningsAsErrors bool     `yaml:"warnings_as_errors"`
	Optimize         bool     `yaml:"optimize"`
	Defines          []string `yaml:"defines"`
}

type Config struct {
	Includes []string          `yaml:"include"`
	Vars     map[string]Var    `yaml:"vars"`
	Prologue Target            `yaml:"prologue"`
	Targets  map[string]Target `yaml:"targets"`
	Epilogue Target            `yaml:"epilogue"`
}

// Step kinds, in the order Kinds checks them.
const (
	StepRun           = "run"
	StepToolchain     = "toolchain"
	StepObject        = "object"
	StepProgram       = "program"
	StepLink          = "link"
	StepSharedLibrary = "shared_library"
	StepStaticLibrary = "static_library"
	StepConcurrent    = "concurrent"
)

// Kinds lists every action set on s. A valid step has exactly one.
func (s Step) Kinds() []string {
	var kinds []string
	if s.Run != "" {
		kinds = append(kinds, StepRun)
	}
	if s.Toolchain != nil {
		kinds = append(kinds, StepToolchain)
	}
	if s.Object != nil {
		kinds = append(kinds, StepObject)
	}
	if s.Program != nil {
		kinds = append(kinds, StepProgram)
	}
	if s.Link != nil {
		kinds = append(kinds, StepLink)
	}
	if s.SharedLibrary != nil {
		kinds = append(kinds, StepSharedLibrary)
	}
	if s.StaticLibrary != nil {
		kinds = append(kinds, StepStaticLibrary)
	}
	if len(s.Concurrent) > 0 {
		kinds = append(kinds, StepConcurrent)
	}
	return kinds
}

// AllSteps returns the Run shorthand followed by Steps.
func (t Target) AllSteps() []Step {
	steps := make([]Step, 0, len(t.Run)+len(t.Steps))
	for _, cmd := range t.Run {
		steps = append(steps, Step{Run: cmd})
	}
	return append(steps, t.Steps...)
}
