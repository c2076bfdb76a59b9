// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package system implements the "system" command group: the platform
// queues, the shared cache and the component status namespace.
package system

import "github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"

// Command returns the "system" command group.
func Command(env *cli.Environment) *cli.Command {
	return &cli.Command{
		Name:    "system",
		Summary: "Inspect and maintain queues, cache and component status",
		Description: `Platform maintenance.

The queues are the three work streams: worker (function execution
requests), job (function output for the job processors) and data
(recon data for the data processors). The cache holds the rate-limit
entries consulted by sendjob and cached function results. The status
namespace holds the last state reported by each component.`,
		Subcommands: []*cli.Command{
			queueCommand(env),
			cacheCommand(env),
			statusCommand(env),
		},
		Examples: []cli.Example{
			{
				Description: "Depth and consumers of every queue",
				Command:     "h3xrecon system queue show",
			},
			{
				Description: "Peek at the pending recon data",
				Command:     "h3xrecon system queue messages data --limit 5",
			},
			{
				Description: "Forget every cooldown",
				Command:     "h3xrecon system cache flush",
			},
		},
	}
}
