// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package program implements the "program" command group and "use".
package program

import (
	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
)

// Command returns the "program" command group.
func Command(env *cli.Environment) *cli.Command {
	return &cli.Command{
		Name:    "program",
		Summary: "Manage programs",
		Description: `Create, list, delete and bulk-import programs.

A program is an isolated scope of targets: its scope patterns and CIDR
ranges decide which discovered assets belong to it. Deleting a program
removes its scope, CIDRs and assets.`,
		Subcommands: []*cli.Command{
			listCommand(env),
			addCommand(env),
			delCommand(env),
			importCommand(env),
		},
		Examples: []cli.Example{
			{
				Description: "List programs",
				Command:     "h3xrecon program list",
			},
			{
				Description: "Import programs with their scope from a file",
				Command:     "h3xrecon program import programs.yaml",
			},
		},
	}
}
