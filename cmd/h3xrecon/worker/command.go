// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package worker implements the "worker" command group, which runs
// fleet control rounds against the platform components.
package worker

import (
	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/fleet"
)

var summaries = map[fleet.Command]string{
	fleet.CommandList:    "List the components that answer",
	fleet.CommandStatus:  "Show component state, current job and counters",
	fleet.CommandPing:    "Check which components are alive",
	fleet.CommandPause:   "Pause components after their current job",
	fleet.CommandUnpause: "Resume paused components",
	fleet.CommandKillJob: "Abort the job a worker is running",
	fleet.CommandReport:  "Print each component's full status document",
}

// Command returns the "worker" command group.
func Command(env *cli.Environment) *cli.Command {
	group := &cli.Command{
		Name:    "worker",
		Summary: "Query and control workers and processors",
		Description: `Broadcast a command to platform components and collect their replies.

The selector is "all" (the default), a component class (worker,
jobprocessor, dataprocessor), or one or more component ids such as
worker-3. Replies are collected until the window closes (fleet.timeout,
default 3s, or --window), or as soon as every id named explicitly has
answered. Components that do not answer in time are reported as
missing; when nobody answers the command exits with status 7.

killjob reaches workers only.`,
		Usage: "h3xrecon worker <command> [all|<class>|<id>...] [flags]",
		Examples: []cli.Example{
			{
				Description: "Status of every component",
				Command:     "h3xrecon worker status",
			},
			{
				Description: "Pause all job processors",
				Command:     "h3xrecon worker pause jobprocessor",
			},
			{
				Description: "Abort the current job of two workers",
				Command:     "h3xrecon worker killjob worker-1 worker-2",
			},
		},
	}
	for _, command := range fleet.Commands() {
		group.Subcommands = append(group.Subcommands, roundCommand(env, command))
	}
	return group
}
