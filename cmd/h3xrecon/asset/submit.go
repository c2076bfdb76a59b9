// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/ingest"
	"github.com/h3xrecon/h3xrecon/lib/schema"
)

type submitParams struct {
	cli.JSONOutput
}

// AddCommand returns "add", which submits assets to a program through
// the recon data stream.
func AddCommand(env *cli.Environment) *cli.Command {
	return submitGroup(env, "add")
}

// DelCommand returns "del", which submits asset removals through the
// recon data stream.
func DelCommand(env *cli.Environment) *cli.Command {
	return submitGroup(env, "del")
}

func submitGroup(env *cli.Environment, action string) *cli.Command {
	summary := "Submit assets to a program"
	if action == "del" {
		summary = "Submit asset removals for a program"
	}
	group := &cli.Command{
		Name:    action,
		Summary: summary,
		Description: summary + `.

Items are validated and normalized (domains lowercased, IPs in
canonical form, URLs must be http or https) and published to the recon
data stream. The data processors apply them asynchronously; "list"
shows the result once they have.

With one item the active program is used; with more arguments the
first names the program. Pass "-" to read items from stdin.`,
		Usage: fmt.Sprintf("h3xrecon %s {domain,ip,url} [program] <item...|->", action),
		Examples: []cli.Example{
			{
				Description: "Submit domains from a file to acme",
				Command:     fmt.Sprintf("h3xrecon %s domain acme - < domains.txt", action),
			},
		},
	}
	for _, dataType := range []schema.DataType{schema.DataDomain, schema.DataIP, schema.DataURL} {
		group.Subcommands = append(group.Subcommands, submitCommand(env, action, dataType))
	}
	return group
}

func submitCommand(env *cli.Environment, action string, dataType schema.DataType) *cli.Command {
	var params submitParams

	annotations := cli.Create()
	if action == "del" {
		annotations = cli.Destructive()
	}

	return &cli.Command{
		Name:        string(dataType),
		Summary:     fmt.Sprintf("%s %s items", strings.ToUpper(action[:1])+action[1:], dataType),
		Usage:       fmt.Sprintf("h3xrecon %s %s [program] <item...|->", action, dataType),
		Params:      func() any { return &params },
		Output:      func() any { return &ingest.Submission{} },
		Annotations: annotations,
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("usage: h3xrecon %s %s [program] <item...|->", action, dataType)
			}
			explicit, arguments := cli.ProgramAndItems(args)
			items, err := cli.ReadItems(arguments, env.Stdin)
			if err != nil {
				return err
			}
			program, err := env.Program(ctx, explicit)
			if err != nil {
				return err
			}
			submitter, err := env.Ingest(ctx)
			if err != nil {
				return err
			}

			var submission ingest.Submission
			if action == "del" {
				submission, err = submitter.Remove(ctx, program, dataType, items)
			} else {
				submission, err = submitter.Add(ctx, program, dataType, items)
			}
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(env.Stdout, submission); done {
				return err
			}
			verb := "Submitted"
			if action == "del" {
				verb = "Submitted removal of"
			}
			fmt.Fprintf(env.Stdout, "%s %d %s item(s) for %s\n", verb, len(submission.Accepted), dataType, program.Name)
			if len(submission.Invalid) > 0 {
				fmt.Fprintf(env.Stdout, "Skipped %d invalid: %s\n", len(submission.Invalid), strings.Join(submission.Invalid, ", "))
			}
			return nil
		},
	}
}
