// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package program

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/store"
)

type importParams struct {
	cli.JSONOutput
}

func importCommand(env *cli.Environment) *cli.Command {
	var params importParams

	return &cli.Command{
		Name:    "import",
		Summary: "Create programs and scope from a YAML document",
		Description: `Apply a YAML import document to the store:

  programs:
    - name: acme
      scope: ['.*\.acme\.com']
      cidr: [10.0.0.0/24]

Missing programs are created and missing scope and CIDR entries added.
Nothing is removed, so importing the same document twice changes
nothing the second time. Entries that fail validation are reported and
skipped. Pass "-" to read the document from stdin.`,
		Usage:       "h3xrecon program import <file|->",
		Params:      func() any { return &params },
		Output:      func() any { return &[]store.ImportReport{} },
		Annotations: cli.Idempotent(),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: h3xrecon program import <file|->")
			}
			var reader io.Reader = env.Stdin
			if args[0] != cli.StdinArg {
				file, err := os.Open(args[0])
				if err != nil {
					return cli.Validation("opening import document: %w", err)
				}
				defer file.Close()
				reader = file
			}

			document, err := store.ParseImport(reader)
			if err != nil {
				return err
			}
			programs, err := env.Store(ctx)
			if err != nil {
				return err
			}
			reports, err := store.Import(ctx, programs, document)
			logger.Info("import applied", "programs", len(reports))

			if done, jsonErr := params.EmitJSON(env.Stdout, reports); done {
				if jsonErr != nil {
					return jsonErr
				}
				return err
			}
			for _, report := range reports {
				verb := "Updated"
				if report.Created {
					verb = "Created"
				}
				fmt.Fprintf(env.Stdout, "%s %s: %d scope, %d cidr added\n",
					verb, report.Program, report.ScopesAdded, report.CIDRsAdded)
				if len(report.Invalid) > 0 {
					fmt.Fprintf(env.Stdout, "  skipped invalid: %s\n", strings.Join(report.Invalid, ", "))
				}
			}
			return err
		},
	}
}
