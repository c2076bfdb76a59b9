// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/h3xrecon/h3xrecon/lib/bus"
	"github.com/h3xrecon/h3xrecon/lib/cache"
	"github.com/h3xrecon/h3xrecon/lib/dispatch"
	"github.com/h3xrecon/h3xrecon/lib/fleet"
	"github.com/h3xrecon/h3xrecon/lib/ingest"
	"github.com/h3xrecon/h3xrecon/lib/queue"
	"github.com/h3xrecon/h3xrecon/lib/store"
)

// ErrorCategory classifies command errors.
type ErrorCategory string

const (
	// CategoryValidation: bad input. Fix it and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound: a named program or entry does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryConflict: the resource already exists.
	CategoryConflict ErrorCategory = "conflict"

	// CategoryTransient: the bus, cache or database could not be
	// reached, or a call timed out.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: anything else.
	CategoryInternal ErrorCategory = "internal"
)

var (
	// ErrNoActiveProgram is returned by program-scoped commands when no
	// program was named and none is selected with "use".
	ErrNoActiveProgram = errors.New("no active program: pass one explicitly, use --program, or run \"h3xrecon use <program>\"")

	// ErrNoResponders is returned after a fleet command printed that no
	// component replied.
	ErrNoResponders = errors.New("no components replied")

	// ErrBackendUnavailable wraps failures to open the bus, the cache or
	// the database.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// ToolError is a categorized error. It wraps the underlying error so
// errors.Is and errors.As see the whole chain.
type ToolError struct {
	Category ErrorCategory
	Err      error
}

func (e *ToolError) Error() string { return e.Err.Error() }

func (e *ToolError) Unwrap() error { return e.Err }

// Validation creates a validation error.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Conflict creates a conflict error.
func Conflict(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryConflict, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// Classify returns the category of err. An explicit ToolError wins over
// the sentinels found deeper in its chain.
func Classify(err error) ErrorCategory {
	var toolError *ToolError
	if errors.As(err, &toolError) {
		return toolError.Category
	}
	switch {
	case errors.Is(err, ErrNoActiveProgram),
		errors.Is(err, store.ErrInvalid),
		errors.Is(err, dispatch.ErrInvalidRequest),
		errors.Is(err, dispatch.ErrUnknownFunction),
		errors.Is(err, fleet.ErrInvalidRequest),
		errors.Is(err, queue.ErrUnknownStream),
		errors.Is(err, cache.ErrUnknownClass),
		errors.Is(err, ingest.ErrInvalid):
		return CategoryValidation
	case errors.Is(err, store.ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return CategoryConflict
	case errors.Is(err, bus.ErrDispatchFailed),
		errors.Is(err, ErrBackendUnavailable),
		errors.Is(err, ErrNoResponders),
		errors.Is(err, context.DeadlineExceeded):
		return CategoryTransient
	default:
		return CategoryInternal
	}
}
