// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package program

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/display"
	"github.com/h3xrecon/h3xrecon/lib/store"
)

type listParams struct {
	cli.JSONOutput
}

func listCommand(env *cli.Environment) *cli.Command {
	var params listParams

	return &cli.Command{
		Name:        "list",
		Summary:     "List programs",
		Usage:       "h3xrecon program list [--json]",
		Params:      func() any { return &params },
		Output:      func() any { return &[]store.Program{} },
		Annotations: cli.ReadOnly(),
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			programs, err := env.Store(ctx)
			if err != nil {
				return err
			}
			list, err := programs.Programs(ctx)
			if err != nil {
				return fmt.Errorf("listing programs: %w", err)
			}
			if done, err := params.EmitJSON(env.Stdout, list); done {
				return err
			}

			records := make([]display.Record, len(list))
			for i, program := range list {
				records[i] = display.Row{
					{Name: "name", Value: program.Name},
					{Name: "id", Value: strconv.FormatInt(program.ID, 10)},
				}
			}
			return env.ShowList(ctx, "", "No programs.", records)
		},
	}
}
