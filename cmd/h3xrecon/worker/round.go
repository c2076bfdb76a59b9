// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/display"
	"github.com/h3xrecon/h3xrecon/lib/fleet"
	"github.com/h3xrecon/h3xrecon/lib/schema"
)

type roundParams struct {
	cli.JSONOutput
	Window      time.Duration `flag:"window,w" desc:"reply collection window (default: fleet.timeout)"`
	ExecutionID string        `flag:"execution-id" desc:"killjob: abort only if the running job has this execution id"`
}

// roundResult is the --json output of every worker command.
type roundResult struct {
	RoundID    string                `json:"round_id"`
	Command    fleet.Command         `json:"command"`
	Selector   string                `json:"selector"`
	Components []fleet.Descriptor    `json:"components"`
	Replies    []schema.ControlReply `json:"replies"`
	Missing    []string              `json:"missing,omitempty"`
	Cancelled  bool                  `json:"cancelled,omitempty"`
	Truncated  bool                  `json:"truncated,omitempty"`
	ElapsedMS  int64                 `json:"elapsed_ms"`
}

func roundCommand(env *cli.Environment, command fleet.Command) *cli.Command {
	var params roundParams

	annotations := cli.ReadOnly()
	if command.Kind() == fleet.KindControl {
		annotations = cli.Idempotent()
		if command == fleet.CommandKillJob {
			annotations = cli.Destructive()
		}
	}

	return &cli.Command{
		Name:        string(command),
		Summary:     summaries[command],
		Usage:       fmt.Sprintf("h3xrecon worker %s [all|<class>|<id>...] [flags]", command),
		Params:      func() any { return &params },
		Output:      func() any { return &roundResult{} },
		Annotations: annotations,
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			selector, err := fleet.ParseSelector(args)
			if err != nil {
				return err
			}
			if params.Window < 0 {
				return cli.Validation("--window must not be negative")
			}
			request := fleet.Request{Command: command, Selector: selector, Timeout: params.Window}
			if params.ExecutionID != "" {
				if command != fleet.CommandKillJob {
					return cli.Validation("--execution-id applies to killjob only")
				}
				request.Payload, _ = json.Marshal(map[string]string{"execution_id": params.ExecutionID})
			}

			controller, err := env.Fleet(ctx)
			if err != nil {
				return err
			}
			result, err := controller.Execute(ctx, request)
			if err != nil {
				return err
			}
			logger.Debug("fleet round finished", "command", string(command), "selector", selector.String(),
				"replies", len(result.Replies), "missing", len(result.Missing), "elapsed", result.Elapsed)

			if result.Truncated {
				logger.Warn("--timeout closed the collection window early", "elapsed", result.Elapsed)
				// The round is complete; only the invocation deadline has
				// passed, so rendering must not inherit it.
				ctx = context.WithoutCancel(ctx)
			}

			if done, err := params.EmitJSON(env.Stdout, newRoundResult(result)); !done {
				if result.NoResponders() {
					window := params.Window
					if window == 0 || result.Truncated {
						window = result.Elapsed.Round(time.Millisecond)
					}
					fmt.Fprintf(env.Stdout, "No components replied to %s (%s) within %s.\n", command, selector, window)
				} else if err := render(ctx, env, result); err != nil {
					return err
				}
			} else if err != nil {
				return err
			}

			switch {
			case result.Cancelled:
				if err := ctx.Err(); err != nil {
					return err
				}
				return context.Canceled
			case result.NoResponders():
				return cli.ErrNoResponders
			}
			return nil
		},
	}
}

func newRoundResult(result *fleet.Result) roundResult {
	return roundResult{
		RoundID:    result.RoundID,
		Command:    result.Command,
		Selector:   result.Selector.String(),
		Components: result.Descriptors(),
		Replies:    result.Sorted(),
		Missing:    result.Missing,
		Cancelled:  result.Cancelled,
		Truncated:  result.Truncated,
		ElapsedMS:  result.Elapsed.Milliseconds(),
	}
}

// render writes the text view of a round: a table of the components
// that replied, the ids that did not, and for report each component's
// full status document.
func render(ctx context.Context, env *cli.Environment, result *fleet.Result) error {
	if result.Command == fleet.CommandReport {
		return writeReports(env.Stdout, result)
	}

	descriptors := result.Descriptors()
	counters := fleet.CounterNames(descriptors)
	records := make([]display.Record, 0, len(descriptors)+len(result.Missing))
	for _, descriptor := range descriptors {
		records = append(records, row(result.Command, descriptor, counters))
	}
	for _, id := range result.Missing {
		records = append(records, row(result.Command, fleet.Descriptor{
			ID:    id,
			Class: schema.ClassOf(id),
			State: "missing",
			Error: "no reply",
		}, counters))
	}

	title := fmt.Sprintf("%s %s: %d replied", result.Command, result.Selector, len(result.Replies))
	if len(result.Missing) > 0 {
		title += fmt.Sprintf(", %d missing", len(result.Missing))
	}
	if result.Cancelled {
		title += " (cancelled)"
	}
	if result.Truncated {
		title += " (window cut short by --timeout)"
	}
	return env.ShowTable(ctx, title, "", records)
}

func row(command fleet.Command, descriptor fleet.Descriptor, counters []string) display.Row {
	theme := display.DefaultTheme
	fields := display.Row{
		{Name: "id", Value: descriptor.ID},
		{Name: "class", Value: string(descriptor.Class)},
	}

	switch {
	case command.Kind() == fleet.KindControl:
		outcome := "ok"
		if !descriptor.Success {
			outcome = "failed"
		}
		if descriptor.State == "missing" {
			outcome = "missing"
		}
		fields = append(fields,
			display.Field{Name: "result", Value: theme.StateStyle(outcome).Render(outcome)},
			display.Field{Name: "error", Value: descriptor.Error},
		)
	case command == fleet.CommandStatus:
		job := descriptor.CurrentFunction
		if descriptor.CurrentTarget != "" {
			job += " " + descriptor.CurrentTarget
		}
		fields = append(fields,
			display.Field{Name: "state", Value: theme.StateStyle(descriptor.State).Render(descriptor.State)},
			display.Field{Name: "job", Value: job},
			display.Field{Name: "uptime", Value: formatUptime(descriptor.Uptime)},
		)
		for _, name := range counters {
			value := ""
			if count, ok := descriptor.Counters[name]; ok {
				value = strconv.FormatInt(count, 10)
			}
			fields = append(fields, display.Field{Name: name, Value: value})
		}
	default:
		fields = append(fields, display.Field{
			Name:  "state",
			Value: theme.StateStyle(descriptor.State).Render(descriptor.State),
		})
	}
	return fields
}

func writeReports(w io.Writer, result *fleet.Result) error {
	for index, reply := range result.Sorted() {
		if index > 0 {
			fmt.Fprintln(w)
		}
		descriptor := fleet.Describe(reply)
		fmt.Fprintf(w, "== %s (%s) ==\n", descriptor.ID, descriptor.State)
		if reply.Error != "" {
			fmt.Fprintf(w, "error: %s\n", reply.Error)
		}
		if len(reply.Data) == 0 {
			fmt.Fprintln(w, "(no report)")
			continue
		}
		var indented strings.Builder
		var document any
		if err := json.Unmarshal(reply.Data, &document); err != nil {
			fmt.Fprintln(w, string(reply.Data))
			continue
		}
		encoder := json.NewEncoder(&indented)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(document); err != nil {
			return err
		}
		fmt.Fprint(w, indented.String())
	}
	for _, id := range result.Missing {
		fmt.Fprintf(w, "\n== %s (missing) ==\nno reply\n", id)
	}
	return nil
}

func formatUptime(uptime time.Duration) string {
	if uptime <= 0 {
		return ""
	}
	uptime = uptime.Round(time.Second)
	days := int(uptime.Hours()) / 24
	if days > 0 {
		return fmt.Sprintf("%dd%s", days, (uptime - time.Duration(days)*24*time.Hour).String())
	}
	return uptime.String()
}
