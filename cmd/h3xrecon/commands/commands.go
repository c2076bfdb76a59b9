// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the h3xrecon command tree. The one-shot CLI
// and the interactive console both dispatch through [Root].
package commands

import (
	"context"

	assetcmd "github.com/h3xrecon/h3xrecon/cmd/h3xrecon/asset"
	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	configcmd "github.com/h3xrecon/h3xrecon/cmd/h3xrecon/config"
	consolecmd "github.com/h3xrecon/h3xrecon/cmd/h3xrecon/console"
	jobcmd "github.com/h3xrecon/h3xrecon/cmd/h3xrecon/job"
	programcmd "github.com/h3xrecon/h3xrecon/cmd/h3xrecon/program"
	systemcmd "github.com/h3xrecon/h3xrecon/cmd/h3xrecon/system"
	workercmd "github.com/h3xrecon/h3xrecon/cmd/h3xrecon/worker"
)

// Root builds the command tree over env. The console command is added
// last because it dispatches back into the finished tree.
func Root(env *cli.Environment) *cli.Command {
	root := &cli.Command{
		Name:  "h3xrecon",
		Usage: "h3xrecon [global flags] <command> [flags]",
		Description: `h3xrecon: operator client for the h3xrecon reconnaissance platform.

Manage programs and their scope, submit jobs to the workers, inspect
the platform queues and cache, and control the worker fleet.

Global flags (before the command):
      --config string    configuration file
  -p, --program string   program to operate on, overriding the active program
      --no-pager         write all rows without paging
      --quiet            only log warnings and errors
      --debug            log at debug level
      --timeout duration bound each command's run time`,
		HelpOutput: env.Stderr,
		Subcommands: []*cli.Command{
			programcmd.Command(env),
			programcmd.UseCommand(env),
			configcmd.Command(env),
			assetcmd.ListCommand(env),
			assetcmd.ShowCommand(env),
			assetcmd.AddCommand(env),
			assetcmd.DelCommand(env),
			jobcmd.SendJobCommand(env),
			jobcmd.WorkflowCommand(env),
			workercmd.Command(env),
			systemcmd.Command(env),
		},
		Examples: []cli.Example{
			{
				Description: "Create a program and select it",
				Command:     "h3xrecon program add acme && h3xrecon use acme",
			},
			{
				Description: "Add a scope pattern to the active program",
				Command:     `h3xrecon config add scope '.*\.acme\.com'`,
			},
			{
				Description: "Resolve a domain, bypassing the cooldown",
				Command:     "h3xrecon sendjob resolve_domain www.acme.com --force",
			},
			{
				Description: "Ask every component for its status",
				Command:     "h3xrecon worker status all",
			},
			{
				Description: "Show the depth of every queue",
				Command:     "h3xrecon system queue show",
			},
		},
	}

	root.Subcommands = append(root.Subcommands, consolecmd.Command(env, root))
	return root
}

// Execute parses the global flags of args into env and runs the named
// command. Every command except the console is bounded by --timeout.
func Execute(ctx context.Context, env *cli.Environment, args []string) error {
	globals, rest, err := cli.ParseGlobals(args)
	if err != nil {
		return err
	}
	env.Globals = globals

	root := Root(env)
	command, _ := root.Find(rest)
	if command.Name != "console" {
		var cancel context.CancelFunc
		ctx, cancel = env.CommandContext(ctx)
		defer cancel()
	}

	logger := env.Logger()
	logger.Debug("running command", "command", command.FullName(), "config", configSource(env))
	return root.Execute(ctx, rest, logger)
}

func configSource(env *cli.Environment) string {
	if path := env.ConfigPath(); path != "" {
		return path
	}
	return "defaults"
}
