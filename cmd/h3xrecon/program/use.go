// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package program

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
)

// useResult is the --json output of "use".
type useResult struct {
	ActiveProgram string `json:"active_program"`
}

type useParams struct {
	cli.JSONOutput
}

// UseCommand returns the "use" command, which selects the active
// program for later invocations.
func UseCommand(env *cli.Environment) *cli.Command {
	var params useParams

	return &cli.Command{
		Name:    "use",
		Summary: "Select the active program",
		Description: `Select the program that program-scoped commands operate on when none
is named. The program must exist. The selection is kept in the session
file ($XDG_CONFIG_HOME/h3xrecon/session.json, or $H3XRECON_SESSION_FILE)
and survives between invocations.

Without an argument, print the active program.`,
		Usage:       "h3xrecon use [program]",
		Params:      func() any { return &params },
		Output:      func() any { return &useResult{} },
		Annotations: cli.Idempotent(),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			switch len(args) {
			case 0:
				session, err := env.Session()
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(env.Stdout, useResult{ActiveProgram: session.ActiveProgram}); done {
					return err
				}
				if session.ActiveProgram == "" {
					return cli.ErrNoActiveProgram
				}
				fmt.Fprintln(env.Stdout, session.ActiveProgram)
				return nil
			case 1:
			default:
				return cli.Validation("usage: h3xrecon use [program]")
			}

			programs, err := env.Store(ctx)
			if err != nil {
				return err
			}
			program, err := programs.Program(ctx, args[0])
			if err != nil {
				return err
			}
			if err := env.SaveSession(cli.Session{ActiveProgram: program.Name}); err != nil {
				return err
			}
			logger.Debug("active program saved", "program", program.Name, "session", env.SessionPath)
			if done, err := params.EmitJSON(env.Stdout, useResult{ActiveProgram: program.Name}); done {
				return err
			}
			fmt.Fprintf(env.Stdout, "Using program %s\n", program.Name)
			return nil
		},
	}
}
