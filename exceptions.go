package main

import (
	"errors"
	"fmt"
)

// Exception kinds. The numeric value is also the process exit code.
const (
	TARGET_NOT_FOUND ErrorKind = iota + 1
	FILE_NOT_FOUND
	CONFIG_ERROR
	STALE_INPUT
	COMMAND_FAILURE
	INTERRUPTED
)

type ErrorKind int8

var Exps = map[ErrorKind]string{
	TARGET_NOT_FOUND: "No target named '%s'.",
	FILE_NOT_FOUND:   "No build script found in '%s'.",
	CONFIG_ERROR:     "%s",
	STALE_INPUT:      "The file '%s' does not exist.",
	COMMAND_FAILURE:  "%s failed. Try again.",
	INTERRUPTED:      "Exit called by the keyboard.",
}

// ErrInvalidState is the panic value for querying a Runner before Wait.
var ErrInvalidState = errors.New("wait needs to be called before any info on the process can be gotten")

// FatalError ends the whole run. Output holds the captured command
// output for command failures.
type FatalError struct {
	Kind    ErrorKind
	Message string
	Output  string
}

func (e *FatalError) Error() string {
	return e.Message
}

// ExitCode is the process exit code for e.
func (e *FatalError) ExitCode() int {
	return int(e.Kind)
}

// RaiseException builds the fatal error for kind, formatting value into
// its message template.
func RaiseException(kind ErrorKind, value string) *FatalError {
	format, ok := Exps[kind]
	if !ok {
		format = "%s"
	}
	msg := format
	if kind != INTERRUPTED {
		msg = fmt.Sprintf(format, value)
	}
	return &FatalError{Kind: kind, Message: msg}
}

func configError(format string, args ...any) *FatalError {
	return RaiseException(CONFIG_ERROR, fmt.Sprintf(format, args...))
}

// asFatal returns the FatalError in err's chain, if any.
func asFatal(err error) (*FatalError, bool) {
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return fatal, true
	}
	return nil, false
}
