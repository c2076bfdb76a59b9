// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package program

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
)

// delResult is one line of the --json output of "program del".
type delResult struct {
	Program string `json:"program"`
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

type delParams struct {
	cli.JSONOutput
}

func delCommand(env *cli.Environment) *cli.Command {
	var params delParams

	return &cli.Command{
		Name:    "del",
		Summary: "Delete programs with their scope and assets",
		Description: `Delete one or more programs. Their scope patterns, CIDR ranges and
every asset recorded for them are removed with them.

Deleting the active program clears the selection made with "use".

Pass "-" to read program names from stdin, one per line. Every name is
attempted; the command fails if any of them could not be deleted.`,
		Usage: "h3xrecon program del <name>... | -",
		Examples: []cli.Example{
			{
				Description: "Delete every program listed in a file",
				Command:     "h3xrecon program del - < retired.txt",
			},
		},
		Params:      func() any { return &params },
		Output:      func() any { return &[]delResult{} },
		Annotations: cli.Destructive(),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			names, err := cli.ReadItems(args, env.Stdin)
			if err != nil {
				return err
			}
			programs, err := env.Store(ctx)
			if err != nil {
				return err
			}

			session, err := env.Session()
			if err != nil {
				return err
			}

			results := make([]delResult, 0, len(names))
			var errs []error
			for _, name := range names {
				if err := programs.DeleteProgram(ctx, name); err != nil {
					errs = append(errs, err)
					results = append(results, delResult{Program: name, Error: err.Error()})
					continue
				}
				logger.Info("program deleted", "program", name)
				results = append(results, delResult{Program: name, Deleted: true})

				if session.ActiveProgram == name {
					session.ActiveProgram = ""
					if err := env.SaveSession(session); err != nil {
						errs = append(errs, err)
						continue
					}
					logger.Info("active program cleared", "program", name)
				}
			}

			if done, err := params.EmitJSON(env.Stdout, results); done {
				if err != nil {
					return err
				}
				return errors.Join(errs...)
			}
			for _, result := range results {
				if result.Deleted {
					fmt.Fprintf(env.Stdout, "Deleted program %s\n", result.Program)
				}
			}
			return errors.Join(errs...)
		},
	}
}
