// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package job implements "sendjob" and "workflow", which submit
// function execution requests to the worker stream.
package job

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/bus"
	"github.com/h3xrecon/h3xrecon/lib/dispatch"
	"github.com/h3xrecon/h3xrecon/lib/schema"
)

type sendJobParams struct {
	cli.JSONOutput
	Force     bool   `flag:"force,f" desc:"dispatch even while the function and target are cooling down"`
	NoTrigger bool   `flag:"no-trigger" desc:"do not let the job processors schedule follow-up jobs from the output"`
	Wordlist  string `flag:"wordlist" desc:"wordlist path passed to the function"`
	Mode      string `flag:"mode" desc:"function mode passed to the function"`
	WaitAck   bool   `flag:"wait-ack" desc:"wait for the workers to acknowledge and complete each job"`
}

// sendJobResult is the --json output of sendjob.
type sendJobResult struct {
	Program  string           `json:"program"`
	Outcomes []outcomeResult  `json:"outcomes"`
	Summary  dispatch.Summary `json:"summary"`
}

// outcomeResult is a dispatch outcome with its error as text.
type outcomeResult struct {
	dispatch.Outcome
	Error string `json:"error,omitempty"`
}

// SendJobCommand returns the "sendjob" command.
func SendJobCommand(env *cli.Environment) *cli.Command {
	var params sendJobParams

	return &cli.Command{
		Name:    "sendjob",
		Summary: "Submit a function execution request to the workers",
		Description: `Publish a request to run a reconnaissance function against a target
for the active program (or --program).

Before publishing, the shared cache is consulted: if the same function
ran against the same target less than its cooldown ago, the request is
reported as rate limited and nothing is published. --force publishes
anyway and still refreshes the cooldown entry. Cooldowns come from
jobs.cooldowns in the configuration; when that table is set, functions
it does not list are rejected.

A target of "-" reads targets from stdin, one per line; each gets its
own outcome. Function parameters follow the target; put them after
"--" when they start with a dash. --wordlist and --mode are forwarded
to functions that take them.

--wait-ack waits after each publish for a recon worker to acknowledge
the job, then for the parsing worker to report it complete. Each wait
lasts at most jobs.ack_timeout (2m by default). A job nobody answers is
still dispatched and is reported as such.`,
		Usage: "h3xrecon sendjob <function> <target|-> [params...] [flags]",
		Examples: []cli.Example{
			{
				Description: "Resolve a domain",
				Command:     "h3xrecon sendjob resolve_domain www.acme.com",
			},
			{
				Description: "Port scan a list of hosts now, ignoring cooldowns",
				Command:     "h3xrecon sendjob port_scan - --force < hosts.txt",
			},
			{
				Description: "Brute force subdomains and wait for the workers",
				Command:     "h3xrecon sendjob subdomain_permutation acme.com --wordlist /opt/wordlists/dns.txt --mode fast --wait-ack",
			},
			{
				Description: "Pass parameters through to the function",
				Command:     "h3xrecon sendjob nuclei https://www.acme.com -- -severity critical",
			},
		},
		Params:      func() any { return &params },
		Output:      func() any { return &sendJobResult{} },
		Annotations: cli.Create(),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) < 2 {
				return cli.Validation("usage: h3xrecon sendjob <function> <target|-> [params...]")
			}
			program, err := env.Program(ctx, "")
			if err != nil {
				return err
			}
			dispatcher, err := env.Dispatcher(ctx)
			if err != nil {
				return err
			}

			request := dispatch.Request{
				Program:  program,
				Function: args[0],
				Target:   args[1],
				Params:   args[2:],
				Force:    params.Force,
				Trigger:  !params.NoTrigger,
				Wordlist: params.Wordlist,
				Mode:     params.Mode,
				WaitAck:  params.WaitAck,
			}

			var outcomes []dispatch.Outcome
			if request.Target == dispatch.BulkTarget {
				outcomes, err = dispatcher.DispatchBulk(ctx, request, env.Stdin)
				if err != nil && len(outcomes) == 0 {
					return err
				}
			} else {
				outcome, dispatchErr := dispatcher.Dispatch(ctx, request)
				if dispatchErr != nil && outcome.Kind != dispatch.OutcomeFailed {
					return dispatchErr
				}
				outcomes = []dispatch.Outcome{outcome}
			}

			summary := dispatch.Summarize(outcomes)
			logger.Debug("sendjob finished", "function", request.Function,
				"dispatched", summary.Dispatched, "rate_limited", summary.RateLimited, "failed", summary.Failed)

			result := sendJobResult{Program: program.Name, Summary: summary}
			for _, outcome := range outcomes {
				entry := outcomeResult{Outcome: outcome}
				if outcome.Err != nil {
					entry.Error = outcome.Err.Error()
				}
				result.Outcomes = append(result.Outcomes, entry)
			}

			if done, jsonErr := params.EmitJSON(env.Stdout, result); !done {
				writeOutcomes(env.Stdout, result, request.Target == dispatch.BulkTarget)
			} else if jsonErr != nil {
				return jsonErr
			}

			if err != nil {
				// Bulk dispatch stopped early, typically on cancellation.
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%w: %d of %d dispatches failed", bus.ErrDispatchFailed, summary.Failed, len(outcomes))
			}
			return nil
		},
	}
}

// writeOutcomes renders outcomes one per line, followed by a summary
// line when summary is true.
func writeOutcomes(w io.Writer, result sendJobResult, summary bool) {
	for _, outcome := range result.Outcomes {
		switch outcome.Kind {
		case dispatch.OutcomeDispatched:
			fmt.Fprintf(w, "Dispatched %s %s (execution %s)\n", outcome.Function, outcome.Target, outcome.ExecutionID)
			if outcome.Warning != "" {
				fmt.Fprintf(w, "  warning: %s\n", outcome.Warning)
			}
			for _, response := range outcome.Responses {
				switch response.Status {
				case schema.JobAcknowledged:
					fmt.Fprintf(w, "  acknowledged by %s\n", response.ComponentID)
				case schema.JobCompleted:
					fmt.Fprintf(w, "  completed by %s\n", response.ComponentID)
				default:
					fmt.Fprintf(w, "  %s from %s\n", response.Status, response.ComponentID)
				}
			}
			if outcome.Unacknowledged {
				fmt.Fprintf(w, "  no response received\n")
			}
		case dispatch.OutcomeRateLimited:
			fmt.Fprintf(w, "Rate limited %s %s: last dispatched %s, %s remaining (use --force to override)\n",
				outcome.Function, outcome.Target,
				outcome.LastDispatch.UTC().Format(time.RFC3339), outcome.Remaining.Round(time.Second))
		default:
			fmt.Fprintf(w, "Failed %s %s: %s\n", outcome.Function, outcome.Target, outcome.Error)
		}
	}
	if summary {
		fmt.Fprintf(w, "%d dispatched, %d rate limited, %d failed\n",
			result.Summary.Dispatched, result.Summary.RateLimited, result.Summary.Failed)
	}
}
