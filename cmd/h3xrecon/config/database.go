// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/store"
)

// dropResult is the --json output of "config database drop".
type dropResult struct {
	Program string           `json:"program"`
	Removed store.DropReport `json:"removed"`
	Total   int64            `json:"total"`
}

type dropParams struct {
	cli.JSONOutput
}

func databaseCommand(env *cli.Environment) *cli.Command {
	return &cli.Command{
		Name:        "database",
		Summary:     "Manage a program's recorded data",
		Subcommands: []*cli.Command{dropCommand(env)},
	}
}

func dropCommand(env *cli.Environment) *cli.Command {
	var params dropParams

	return &cli.Command{
		Name:    "drop",
		Summary: "Delete every asset recorded for a program",
		Description: `Delete the domains, IPs, URLs, services, nuclei findings and
certificates recorded for a program. The program, its scope patterns
and its CIDRs are kept.`,
		Usage:       "h3xrecon config database drop [program]",
		Params:      func() any { return &params },
		Output:      func() any { return &dropResult{} },
		Annotations: cli.Destructive(),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("usage: h3xrecon config database drop [program]")
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
			report, err := programs.DropAssets(ctx, program)
			if err != nil {
				return err
			}
			logger.Info("program data dropped", "program", program, "rows", report.Total())

			result := dropResult{Program: program, Removed: report, Total: report.Total()}
			if done, err := params.EmitJSON(env.Stdout, result); done {
				return err
			}
			var parts []string
			for _, table := range store.AssetTables {
				if count := report[table]; count > 0 {
					parts = append(parts, fmt.Sprintf("%s %d", table, count))
				}
			}
			if len(parts) == 0 {
				fmt.Fprintf(env.Stdout, "No data recorded for %s.\n", program)
				return nil
			}
			fmt.Fprintf(env.Stdout, "Dropped %d rows from %s (%s)\n", result.Total, program, strings.Join(parts, ", "))
			return nil
		},
	}
}
