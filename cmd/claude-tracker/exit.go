package main

import (
	"errors"
	"fmt"

	"github.com/j-veylop/claude-tracker/internal/failure"
)

// Process exit codes.
const (
	ExitSuccess     = 0
	ExitUserError   = 1
	ExitPartial     = 2
	ExitAuthFailure = 3
	ExitIOFailure   = 4
)

// ExitError carries the exit code a command failed with.
type ExitError struct {
	Err  error
	Code int
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func wrapExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// exitCode maps err to a process exit code. Unwrapped errors are
// classified by failure kind.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch failure.KindOf(err) {
	case failure.KindUnauthorized:
		return ExitAuthFailure
	case failure.KindSecretStore, failure.KindConfigIO:
		return ExitIOFailure
	default:
		return ExitUserError
	}
}
