// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/display"
)

// changeResult is one line of the --json output of "config add" and
// "config del".
type changeResult struct {
	Program string `json:"program"`
	Kind    string `json:"kind"`
	Value   string `json:"value"`

	// Changed is false when the entry was already present (add) or
	// already absent (del).
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
}

// listResult is the --json output of "config list".
type listResult struct {
	Program string   `json:"program"`
	Kind    string   `json:"kind"`
	Entries []string `json:"entries"`
}

type entryParams struct {
	cli.JSONOutput
}

// entryCommand returns the "config <action>" group with one subcommand
// per entry kind.
func entryCommand(env *cli.Environment, action string, kinds ...entryKind) *cli.Command {
	group := &cli.Command{Name: action}
	switch action {
	case "add":
		group.Summary = "Add scope patterns or CIDRs to a program"
	case "del":
		group.Summary = "Remove scope patterns or CIDRs from a program"
	default:
		group.Summary = "List a program's scope patterns or CIDRs"
	}
	for _, kind := range kinds {
		if action == "list" {
			group.Subcommands = append(group.Subcommands, listCommand(env, kind))
		} else {
			group.Subcommands = append(group.Subcommands, changeCommand(env, action, kind))
		}
	}
	return group
}

func changeCommand(env *cli.Environment, action string, kind entryKind) *cli.Command {
	var params entryParams

	apply, imperative, verb, unchanged := kind.add, "Add", "Added", "already present"
	annotations := cli.Idempotent()
	if action == "del" {
		apply, imperative, verb, unchanged = kind.del, "Remove", "Removed", "not present"
		annotations = cli.Destructive()
	}

	return &cli.Command{
		Name:    kind.name,
		Summary: fmt.Sprintf("%s %s", imperative, kind.plural),
		Description: fmt.Sprintf(`%s %s of a program. Entries are validated and normalized
by the store; an entry that is %s is reported and is not an error.

With one argument the active program is used. Pass "-" as the entry
to read entries from stdin, one per line.`, imperative, kind.plural, unchanged),
		Usage:       fmt.Sprintf("h3xrecon config %s %s [program] <entry|->", action, kind.name),
		Params:      func() any { return &params },
		Output:      func() any { return &[]changeResult{} },
		Annotations: annotations,
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("usage: h3xrecon config %s %s [program] <entry|->", action, kind.name)
			}
			explicit, arguments := cli.ProgramAndItems(args)
			values, err := cli.ReadItems(arguments, env.Stdin)
			if err != nil {
				return err
			}
			program, err := env.ResolveProgram(explicit)
			if err != nil {
				return err
			}
			programs, err := env.Store(ctx)
			if err != nil {
				return err
			}

			results := make([]changeResult, 0, len(values))
			var errs []error
			for _, value := range values {
				changed, err := apply(programs, ctx, program, value)
				result := changeResult{Program: program, Kind: kind.name, Value: value, Changed: changed}
				if err != nil {
					errs = append(errs, err)
					result.Error = err.Error()
				} else {
					logger.Debug("scope entry applied", "action", action, "kind", kind.name,
						"program", program, "value", value, "changed", changed)
				}
				results = append(results, result)
			}

			if done, jsonErr := params.EmitJSON(env.Stdout, results); done {
				if jsonErr != nil {
					return jsonErr
				}
				return errors.Join(errs...)
			}
			for _, result := range results {
				switch {
				case result.Error != "":
				case result.Changed:
					fmt.Fprintf(env.Stdout, "%s %s %s\n", verb, kind.name, result.Value)
				default:
					fmt.Fprintf(env.Stdout, "%s %s %s\n", kind.name, result.Value, unchanged)
				}
			}
			return errors.Join(errs...)
		},
	}
}

func listCommand(env *cli.Environment, kind entryKind) *cli.Command {
	var params entryParams

	return &cli.Command{
		Name:        kind.name,
		Summary:     fmt.Sprintf("List %s", kind.plural),
		Usage:       fmt.Sprintf("h3xrecon config list %s [program] [--json]", kind.name),
		Params:      func() any { return &params },
		Output:      func() any { return &listResult{} },
		Annotations: cli.ReadOnly(),
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("usage: h3xrecon config list %s [program]", kind.name)
			}
			var explicit string
			if len(args) == 1 {
				explicit = args[0]
			}
			program, err := env.ResolveProgram(explicit)
			if err != nil {
				return err
			}
			programs, err := env.Store(ctx)
			if err != nil {
				return err
			}
			entries, err := kind.list(programs, ctx, program)
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(env.Stdout, listResult{Program: program, Kind: kind.name, Entries: nonNil(entries)}); done {
				return err
			}
			records := make([]display.Record, len(entries))
			for i, entry := range entries {
				records[i] = display.Row{{Name: kind.name, Value: entry}}
			}
			return env.ShowList(ctx, "", fmt.Sprintf("No %s for %s.", kind.plural, program), records)
		},
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
