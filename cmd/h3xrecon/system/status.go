// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/cache"
)

const classUsage = "{all,worker,jobprocessor,dataprocessor}"

func statusCommand(env *cli.Environment) *cli.Command {
	return &cli.Command{
		Name:    "status",
		Summary: "Inspect and flush component status entries",
		Description: `Components record their state in the status namespace, keyed
"<class>-<id>". Entries of components that are gone linger until
flushed.`,
		Subcommands: []*cli.Command{
			statusShowCommand(env),
			statusFlushCommand(env),
		},
	}
}

type statusShowParams struct {
	cli.JSONOutput
}

func statusShowCommand(env *cli.Environment) *cli.Command {
	var params statusShowParams

	return &cli.Command{
		Name:        "show",
		Summary:     "List status entries of a component class",
		Usage:       "h3xrecon system status show [" + classUsage + "]",
		Params:      func() any { return &params },
		Output:      func() any { return &[]itemResult{} },
		Annotations: cli.ReadOnly(),
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			class, err := classArgument(args, "show", true)
			if err != nil {
				return err
			}
			client, err := env.Cache(ctx)
			if err != nil {
				return err
			}
			items, err := client.StatusItems(ctx, class)
			if err != nil {
				return err
			}
			return showItems(ctx, env, &params.JSONOutput, items, "No status entries.")
		},
	}
}

// statusFlushResult is the --json output of "system status flush".
type statusFlushResult struct {
	Class   string `json:"class"`
	Removed int64  `json:"removed"`
}

type statusFlushParams struct {
	cli.JSONOutput
}

func statusFlushCommand(env *cli.Environment) *cli.Command {
	var params statusFlushParams

	return &cli.Command{
		Name:        "flush",
		Summary:     "Remove the status entries of a component class",
		Usage:       "h3xrecon system status flush " + classUsage,
		Params:      func() any { return &params },
		Output:      func() any { return &statusFlushResult{} },
		Annotations: cli.Destructive(),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			class, err := classArgument(args, "flush", false)
			if err != nil {
				return err
			}
			client, err := env.Cache(ctx)
			if err != nil {
				return err
			}
			removed, err := client.FlushStatus(ctx, class)
			if err != nil {
				return err
			}
			logger.Info("status entries flushed", "class", class, "removed", removed)
			if done, err := params.EmitJSON(env.Stdout, statusFlushResult{Class: class, Removed: removed}); done {
				return err
			}
			fmt.Fprintf(env.Stdout, "Flushed %s status: removed %d entr%s\n", class, removed, plural(removed, "y", "ies"))
			return nil
		},
	}
}

func classArgument(args []string, verb string, optional bool) (string, error) {
	switch {
	case len(args) == 0 && optional:
		return cache.StatusAll, nil
	case len(args) != 1:
		return "", cli.Validation("usage: h3xrecon system status %s %s", verb, classUsage)
	}
	return args[0], nil
}

func plural(count int64, one, many string) string {
	if count == 1 {
		return one
	}
	return many
}
