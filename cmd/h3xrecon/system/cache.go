// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/cache"
	"github.com/h3xrecon/h3xrecon/lib/display"
)

// itemResult is one entry of the --json output of "show" commands.
type itemResult struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Value   string `json:"value"`
}

func cacheCommand(env *cli.Environment) *cli.Command {
	return &cli.Command{
		Name:    "cache",
		Summary: "Inspect and flush the rate-limit and result cache",
		Subcommands: []*cli.Command{
			cacheShowCommand(env),
			cacheFlushCommand(env),
		},
	}
}

type cacheShowParams struct {
	cli.JSONOutput
}

func cacheShowCommand(env *cli.Environment) *cli.Command {
	var params cacheShowParams

	return &cli.Command{
		Name:    "show",
		Summary: "List cache keys with a summary of their values",
		Description: `List every cache key, sorted, with a one-line summary of its value.
Rate-limit entries are keyed "<function>:<target>" and show when the
pair was last dispatched.`,
		Usage:       "h3xrecon system cache show [--json]",
		Params:      func() any { return &params },
		Output:      func() any { return &[]itemResult{} },
		Annotations: cli.ReadOnly(),
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			client, err := env.Cache(ctx)
			if err != nil {
				return err
			}
			items, err := client.ResultItems(ctx)
			if err != nil {
				return fmt.Errorf("reading cache: %w", err)
			}
			return showItems(ctx, env, &params.JSONOutput, items, "The cache is empty.")
		},
	}
}

// cacheFlushResult is the --json output of "system cache flush".
type cacheFlushResult struct {
	Flushed bool `json:"flushed"`
}

type cacheFlushParams struct {
	cli.JSONOutput
}

func cacheFlushCommand(env *cli.Environment) *cli.Command {
	var params cacheFlushParams

	return &cli.Command{
		Name:        "flush",
		Summary:     "Remove every cache entry, resetting all cooldowns",
		Usage:       "h3xrecon system cache flush",
		Params:      func() any { return &params },
		Output:      func() any { return &cacheFlushResult{} },
		Annotations: cli.Destructive(),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			client, err := env.Cache(ctx)
			if err != nil {
				return err
			}
			if err := client.FlushResults(ctx); err != nil {
				return fmt.Errorf("flushing cache: %w", err)
			}
			logger.Info("cache flushed")
			if done, err := params.EmitJSON(env.Stdout, cacheFlushResult{Flushed: true}); done {
				return err
			}
			fmt.Fprintln(env.Stdout, "Cache flushed")
			return nil
		},
	}
}

func showItems(ctx context.Context, env *cli.Environment, output *cli.JSONOutput, items []cache.Item, empty string) error {
	results := make([]itemResult, len(items))
	records := make([]display.Record, len(items))
	for i, item := range items {
		results[i] = itemResult{Key: item.Key, Summary: cache.Summarize(item.Value), Value: string(item.Value)}
		records[i] = display.Row{
			{Name: "key", Value: results[i].Key},
			{Name: "value", Value: results[i].Summary},
		}
	}
	if done, err := output.EmitJSON(env.Stdout, results); done {
		return err
	}
	return env.ShowTable(ctx, fmt.Sprintf("%d key(s)", len(items)), empty, records)
}
