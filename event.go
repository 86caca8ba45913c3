package main

import (
	"fmt"
)

// EventState moves only forward: ready, running, then success or failure.
type EventState string

const (
	StateReady   EventState = "ready"
	StateRunning EventState = "running"
	StateSuccess EventState = "success"
	StateFailure EventState = "failure"
)

// SetupFunc decides at admission time whether an event has to run.
// false means the outputs are up to date. An error is fatal for the run.
type SetupFunc func() (bool, error)

// Event is one schedulable build step: a shell command plus the
// wording used to report it.
type Event struct {
	Task     string // "Building", "Linking"
	Result   string // nominal output, for display
	Plural   string
	Singular string
	Command  string

	// ShowOutput prints the command's stdout after it succeeds.
	ShowOutput bool

	setup  SetupFunc
	state  EventState
	runner *Runner
	sched  *Scheduler
}

func NewEvent(task, result, plural, singular, command string, setup SetupFunc) *Event {
	return &Event{
		Task:     task,
		Result:   result,
		Plural:   plural,
		Singular: singular,
		Command:  command,
		setup:    setup,
		state:    StateReady,
	}
}

func (e *Event) State() EventState {
	return e.state
}

// Runner is nil until the event has been started.
func (e *Event) Runner() *Runner {
	return e.runner
}

// Run evaluates the setup predicate and starts the command. It returns
// false, without starting anything, when the event is not needed.
func (e *Event) Run() (bool, error) {
	if e.state != StateReady {
		return false, fmt.Errorf("event %q is %s, not ready", e.Result, e.state)
	}
	s := e.sched

	if s.concurrent && s.firstConcurrent {
		s.firstConcurrent = false
		s.report.Info(fmt.Sprintf("%s %s concurrently ...", e.Task, e.Plural))
	}

	if e.setup != nil {
		needed, err := e.setup()
		if err != nil {
			return false, err
		}
		if !needed {
			s.log.Debug("skipping up to date event", "result", e.Result)
			return false, nil
		}
	}

	if !s.concurrent {
		s.report.Status(fmt.Sprintf("%s %s '%s'", e.Task, e.Singular, e.Result))
	}

	e.runner = NewRunner(e.Command, s.dir, s.env.Expanded(), s.wakeUp)
	if err := e.runner.Start(); err != nil {
		e.state = StateFailure
		if s.concurrent {
			s.report.Status(fmt.Sprintf("   '%s'", e.Result))
		}
		s.report.Fail(err.Error())
		return false, &FatalError{
			Kind:    COMMAND_FAILURE,
			Message: fmt.Sprintf(Exps[COMMAND_FAILURE], e.Task),
			Output:  err.Error(),
		}
	}
	e.state = StateRunning
	s.log.Debug("started event", "result", e.Result, "command", s.env.Expand(e.runner.Command()))
	return true, nil
}

// IsDone reports whether the command has exited.
func (e *Event) IsDone() bool {
	return e.runner != nil && e.runner.Poll()
}

// Finish collects the command's outcome and reports it. A warning
// still counts as success. A failure returns a COMMAND_FAILURE error.
func (e *Event) Finish() error {
	if e.state != StateRunning {
		return fmt.Errorf("event %q is %s, not running", e.Result, e.state)
	}
	s := e.sched
	e.runner.Wait()

	if s.concurrent {
		s.report.Status(fmt.Sprintf("   '%s'", e.Result))
	}

	switch {
	case e.runner.IsSuccess():
		s.report.Ok()
		e.state = StateSuccess
	case e.runner.IsWarning():
		s.report.Warning(e.runner.Stderr())
		e.state = StateSuccess
	default:
		s.report.Fail(e.runner.CombinedOutput())
		e.state = StateFailure
		return &FatalError{
			Kind:    COMMAND_FAILURE,
			Message: fmt.Sprintf(Exps[COMMAND_FAILURE], e.Task),
			Output:  e.runner.CombinedOutput(),
		}
	}

	if e.ShowOutput && e.runner.Stdout() != "" {
		s.report.Print(e.runner.Stdout())
	}
	return nil
}
