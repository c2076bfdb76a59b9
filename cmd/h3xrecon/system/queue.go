// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/display"
	"github.com/h3xrecon/h3xrecon/lib/queue"
	"github.com/h3xrecon/h3xrecon/lib/schema"
)

func queueCommand(env *cli.Environment) *cli.Command {
	return &cli.Command{
		Name:    "queue",
		Summary: "Inspect and flush the work streams",
		Usage:   "h3xrecon system queue {show,messages,flush} {worker,job,data}",
		Subcommands: []*cli.Command{
			queueShowCommand(env),
			queueMessagesCommand(env),
			queueFlushCommand(env),
		},
	}
}

type queueShowParams struct {
	cli.JSONOutput
}

func queueShowCommand(env *cli.Environment) *cli.Command {
	var params queueShowParams

	return &cli.Command{
		Name:        "show",
		Summary:     "Show depth, consumers and pending counts",
		Usage:       "h3xrecon system queue show [worker|job|data]",
		Params:      func() any { return &params },
		Output:      func() any { return &[]queue.Snapshot{} },
		Annotations: cli.ReadOnly(),
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("usage: h3xrecon system queue show [worker|job|data]")
			}
			inspector, err := env.Queue(ctx)
			if err != nil {
				return err
			}

			var snapshots []queue.Snapshot
			if len(args) == 1 {
				stream, err := queue.ParseStream(args[0])
				if err != nil {
					return err
				}
				snapshot, err := inspector.Show(ctx, stream)
				if err != nil {
					return err
				}
				snapshots = append(snapshots, snapshot)
			} else if snapshots, err = inspector.ShowAll(ctx); err != nil {
				return err
			}

			if done, err := params.EmitJSON(env.Stdout, snapshots); done {
				return err
			}
			records := make([]display.Record, len(snapshots))
			for i, snapshot := range snapshots {
				records[i] = display.Row{
					{Name: "stream", Value: string(snapshot.Stream)},
					{Name: "key", Value: snapshot.Key},
					{Name: "depth", Value: strconv.FormatInt(snapshot.Depth, 10)},
					{Name: "groups", Value: strconv.Itoa(snapshot.Groups)},
					{Name: "consumers", Value: strconv.FormatInt(snapshot.Consumers, 10)},
					{Name: "pending", Value: strconv.FormatInt(snapshot.Pending, 10)},
				}
			}
			return env.ShowTable(ctx, "", "No streams.", records)
		},
	}
}

type queueMessagesParams struct {
	cli.JSONOutput
	Limit int `flag:"limit,n" desc:"maximum number of messages (default: queue.page_limit)"`
}

func queueMessagesCommand(env *cli.Environment) *cli.Command {
	var params queueMessagesParams

	return &cli.Command{
		Name:    "messages",
		Summary: "Print pending messages without consuming them",
		Description: `Print the messages at the head of a stream, oldest first. Reading does
not consume or acknowledge anything.`,
		Usage:       "h3xrecon system queue messages {worker,job,data} [--limit N]",
		Params:      func() any { return &params },
		Output:      func() any { return &[]queue.Entry{} },
		Annotations: cli.ReadOnly(),
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			stream, err := streamArgument(args, "messages")
			if err != nil {
				return err
			}
			if params.Limit < 0 {
				return cli.Validation("--limit must not be negative")
			}
			limit := params.Limit
			if limit == 0 {
				cfg, err := env.Config()
				if err != nil {
					return err
				}
				limit = cfg.Queue.PageLimit
			}
			inspector, err := env.Queue(ctx)
			if err != nil {
				return err
			}
			entries, err := inspector.Messages(ctx, stream, limit)
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(env.Stdout, entries); done {
				return err
			}
			records := make([]display.Record, len(entries))
			for i, entry := range entries {
				records[i] = display.Row{
					{Name: "id", Value: entry.ID},
					{Name: "body", Value: string(entry.Body)},
				}
			}
			return env.ShowTable(ctx, fmt.Sprintf("%s: %d message(s)", stream, len(entries)),
				fmt.Sprintf("No pending messages on %s.", stream), records)
		},
	}
}

// flushResult is the --json output of "system queue flush".
type flushResult struct {
	Stream  schema.StreamName `json:"stream"`
	Removed int64             `json:"removed"`
}

type queueFlushParams struct {
	cli.JSONOutput
}

func queueFlushCommand(env *cli.Environment) *cli.Command {
	var params queueFlushParams

	return &cli.Command{
		Name:    "flush",
		Summary: "Remove every message from a stream",
		Description: `Remove every message from a stream. Consumer groups are kept, so
consumers resume with the next message published.`,
		Usage:       "h3xrecon system queue flush {worker,job,data}",
		Params:      func() any { return &params },
		Output:      func() any { return &flushResult{} },
		Annotations: cli.Destructive(),
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			stream, err := streamArgument(args, "flush")
			if err != nil {
				return err
			}
			inspector, err := env.Queue(ctx)
			if err != nil {
				return err
			}
			removed, err := inspector.Flush(ctx, stream)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(env.Stdout, flushResult{Stream: stream, Removed: removed}); done {
				return err
			}
			fmt.Fprintf(env.Stdout, "Flushed %s: removed %d message(s)\n", stream, removed)
			return nil
		},
	}
}

func streamArgument(args []string, verb string) (schema.StreamName, error) {
	if len(args) != 1 {
		return "", cli.Validation("usage: h3xrecon system queue %s {worker,job,data}", verb)
	}
	return queue.ParseStream(args[0])
}
