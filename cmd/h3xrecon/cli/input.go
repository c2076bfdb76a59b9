// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"

	"github.com/h3xrecon/h3xrecon/lib/dispatch"
)

// StdinArg is the positional argument that reads items from stdin.
const StdinArg = "-"

// ReadItems returns the items named by args. A lone "-" reads one item
// per line from stdin, skipping blank lines and '#' comments.
func ReadItems(args []string, stdin io.Reader) ([]string, error) {
	if len(args) == 1 && args[0] == StdinArg {
		items, err := dispatch.ReadTargets(stdin)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, Validation("no items on stdin")
		}
		return items, nil
	}
	if len(args) == 0 {
		return nil, Validation("at least one item is required (or - to read from stdin)")
	}
	return args, nil
}

// ProgramAndItems splits the arguments of commands shaped
// "[program] <item|->...". With one argument the program comes from the
// session; with more, the first argument names the program.
func ProgramAndItems(args []string) (program string, items []string) {
	if len(args) <= 1 {
		return "", args
	}
	return args[0], args[1:]
}
