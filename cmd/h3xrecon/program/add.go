// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package program

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/store"
)

type addParams struct {
	cli.JSONOutput
}

func addCommand(env *cli.Environment) *cli.Command {
	var params addParams

	return &cli.Command{
		Name:    "add",
		Summary: "Create a program",
		Description: `Create an empty program. Program names are unique; adding an existing
name fails with "already exists".`,
		Usage:       "h3xrecon program add <name>",
		Params:      func() any { return &params },
		Output:      func() any { return &store.Program{} },
		Annotations: cli.Create(),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: h3xrecon program add <name>")
			}
			programs, err := env.Store(ctx)
			if err != nil {
				return err
			}
			program, err := programs.AddProgram(ctx, args[0])
			if err != nil {
				return err
			}
			logger.Info("program created", "program", program.Name, "id", program.ID)
			if done, err := params.EmitJSON(env.Stdout, program); done {
				return err
			}
			fmt.Fprintf(env.Stdout, "Created program %s (id %d)\n", program.Name, program.ID)
			return nil
		},
	}
}
