// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
)

// Exit codes.
const (
	ExitOK              = 0
	ExitInternal        = 1
	ExitInvalid         = 2
	ExitNoActiveProgram = 3
	ExitNotFound        = 4
	ExitAlreadyExists   = 5
	ExitTransport       = 6
	ExitNoResponders    = 7
	ExitCancelled       = 130
)

// ExitError exits with Code without printing anything further; the
// command has already written its own output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitCode maps an error returned by a command to the process exit
// code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitError *ExitError
	if errors.As(err, &exitError) {
		return exitError.Code
	}
	switch {
	case errors.Is(err, context.Canceled):
		return ExitCancelled
	case errors.Is(err, ErrNoActiveProgram):
		return ExitNoActiveProgram
	case errors.Is(err, ErrNoResponders):
		return ExitNoResponders
	}
	switch Classify(err) {
	case CategoryValidation:
		return ExitInvalid
	case CategoryNotFound:
		return ExitNotFound
	case CategoryConflict:
		return ExitAlreadyExists
	case CategoryTransient:
		return ExitTransport
	default:
		return ExitInternal
	}
}

// Silent reports whether err has already been reported to the user, so
// main should exit without printing it.
func Silent(err error) bool {
	var exitError *ExitError
	return errors.As(err, &exitError) || errors.Is(err, ErrNoResponders)
}
