// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

// ToolAnnotations describe the side effects of a command. A nil field
// means unspecified.
type ToolAnnotations struct {
	// ReadOnly commands only read state.
	ReadOnly *bool

	// Destructive commands may irreversibly remove data. The console
	// asks for confirmation before running them.
	Destructive *bool

	// Idempotent commands converge to the same result when repeated.
	Idempotent *bool
}

// ReadOnly annotates list, show and status commands.
func ReadOnly() *ToolAnnotations {
	return &ToolAnnotations{ReadOnly: boolPtr(true), Destructive: boolPtr(false), Idempotent: boolPtr(true)}
}

// Idempotent annotates commands that modify state but converge, such
// as adding a scope entry.
func Idempotent() *ToolAnnotations {
	return &ToolAnnotations{ReadOnly: boolPtr(false), Destructive: boolPtr(false), Idempotent: boolPtr(true)}
}

// Create annotates commands whose effects accumulate, such as
// dispatching a job.
func Create() *ToolAnnotations {
	return &ToolAnnotations{ReadOnly: boolPtr(false), Destructive: boolPtr(false), Idempotent: boolPtr(false)}
}

// Destructive annotates commands that delete data: program deletion,
// queue and cache flushes, asset drops.
func Destructive() *ToolAnnotations {
	return &ToolAnnotations{ReadOnly: boolPtr(false), Destructive: boolPtr(true), Idempotent: boolPtr(false)}
}

// IsDestructive reports whether annotations mark a destructive command.
func (a *ToolAnnotations) IsDestructive() bool {
	return a != nil && a.Destructive != nil && *a.Destructive
}

func boolPtr(value bool) *bool {
	return &value
}
