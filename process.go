package main

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Outcome classifies a finished command.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeSuccess
	OutcomeWarning
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeWarning:
		return "warning"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Runner runs one shell command line as a child process. Start is
// non-blocking, Poll checks for exit without blocking, and Wait must
// complete before any of the output accessors are used.
type Runner struct {
	command string
	dir     string
	env     []string
	notify  func()

	cmd     *exec.Cmd
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	done    chan struct{}
	waitErr error

	waited   bool
	exitCode int
	out      string
	errOut   string
	outcome  Outcome
}

// NewRunner prepares command for execution in dir with env as the
// complete child environment. notify, if set, is called from a
// background goroutine once the process has exited.
func NewRunner(command, dir string, env []string, notify func()) *Runner {
	return &Runner{
		command: nativeCommand(command),
		dir:     dir,
		env:     env,
		notify:  notify,
	}
}

func (r *Runner) Command() string {
	return r.command
}

// Start launches the command through the platform shell.
func (r *Runner) Start() error {
	if r.cmd != nil {
		return fmt.Errorf("command already started: %s", r.command)
	}
	if strings.TrimSpace(r.command) == "" {
		return fmt.Errorf("empty command")
	}

	shell, flag := shellCommand()
	// #nosec G204 - a build tool runs user-defined commands by design
	cmd := exec.Command(shell, flag, r.command)
	cmd.Dir = r.dir
	cmd.Env = r.env
	cmd.Stdout = &r.stdout
	cmd.Stderr = &r.stderr
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return err
	}
	r.cmd = cmd
	r.done = make(chan struct{})

	go func() {
		r.waitErr = cmd.Wait()
		close(r.done)
		if r.notify != nil {
			r.notify()
		}
	}()
	return nil
}

// Poll reports whether the process has exited. It never blocks.
func (r *Runner) Poll() bool {
	if r.done == nil {
		return false
	}
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the process exits and captures its exit code and
// output. It is safe to call more than once.
func (r *Runner) Wait() {
	if r.waited {
		return
	}
	if r.done == nil {
		panic(fmt.Errorf("wait called before start: %w", ErrInvalidState))
	}
	<-r.done

	r.exitCode = 0
	if r.waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(r.waitErr, &exitErr) && exitErr.ExitCode() > 0 {
			r.exitCode = exitErr.ExitCode()
		} else {
			// killed by a signal or failed to collect the status
			r.exitCode = -1
		}
	}

	// invalid UTF-8 is kept as raw bytes
	r.out = chomp(r.stdout.String())
	r.errOut = chomp(r.stderr.String())

	switch {
	case r.exitCode != 0:
		r.outcome = OutcomeFailure
	case r.errOut != "":
		r.outcome = OutcomeWarning
	default:
		r.outcome = OutcomeSuccess
	}
	r.waited = true
}

// Kill terminates the process (and its process group where supported)
// and waits for it to be reaped.
func (r *Runner) Kill() error {
	if r.cmd == nil || r.Poll() {
		return nil
	}
	if err := killProcess(r.cmd); err != nil && !r.Poll() {
		return fmt.Errorf("kill %q: %w", r.command, err)
	}
	<-r.done
	return nil
}

func (r *Runner) requireWait() {
	if !r.waited {
		panic(ErrInvalidState)
	}
}

func (r *Runner) ExitCode() int {
	r.requireWait()
	return r.exitCode
}

func (r *Runner) Outcome() Outcome {
	r.requireWait()
	return r.outcome
}

func (r *Runner) IsSuccess() bool {
	return r.Outcome() == OutcomeSuccess
}

func (r *Runner) IsWarning() bool {
	return r.Outcome() == OutcomeWarning
}

func (r *Runner) IsFailure() bool {
	return r.Outcome() == OutcomeFailure
}

func (r *Runner) Stdout() string {
	r.requireWait()
	return r.out
}

func (r *Runner) Stderr() string {
	r.requireWait()
	return r.errOut
}

// CombinedOutput is stdout and stderr joined by a newline.
func (r *Runner) CombinedOutput() string {
	r.requireWait()
	return r.out + "\n" + r.errOut
}

// chomp removes one trailing line terminator.
func chomp(s string) string {
	for _, sep := range []string{"\r\n", "\n", "\r"} {
		if strings.HasSuffix(s, sep) {
			return s[:len(s)-len(sep)]
		}
	}
	return s
}
