// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/bus"
	"github.com/h3xrecon/h3xrecon/lib/config"
	"github.com/h3xrecon/h3xrecon/lib/dispatch"
	"github.com/h3xrecon/h3xrecon/lib/store"
)

type workflowParams struct {
	cli.JSONOutput
	Force     bool `flag:"force,f" desc:"dispatch even while a function and target are cooling down"`
	NoTrigger bool `flag:"no-trigger" desc:"do not let the job processors schedule follow-up jobs from the output"`
}

// workflowResult is the --json output of workflow.
type workflowResult struct {
	Workflow string           `json:"workflow"`
	Program  string           `json:"program"`
	Outcomes []outcomeResult  `json:"outcomes"`
	Summary  dispatch.Summary `json:"summary"`
}

// WorkflowCommand returns the "workflow" command.
func WorkflowCommand(env *cli.Environment) *cli.Command {
	var params workflowParams

	return &cli.Command{
		Name:    "workflow",
		Summary: "Send every job of a configured workflow against a target",
		Description: `Send the jobs of a named workflow against a target of the active
program (or --program). Workflows are job lists under "workflows" in
the configuration:

  workflows:
    passive:
      jobs:
        - function: resolve_domain
        - function: subdomain_permutation
          wordlist: /opt/wordlists/dns.txt
          force: true

Each job goes through the same cooldown check as sendjob. A job's own
force and trigger_new_jobs settings win over --force and --no-trigger.
Every function is checked before anything is sent, so a workflow that
names an unknown function sends nothing.

A target of "-" reads targets from stdin, one per line; each target
gets every job of the workflow, in order.`,
		Usage: "h3xrecon workflow <name> <target|-> [flags]",
		Examples: []cli.Example{
			{
				Description: "Run the passive workflow against a domain",
				Command:     "h3xrecon workflow passive acme.com",
			},
			{
				Description: "Run a workflow against a list of hosts",
				Command:     "h3xrecon workflow web - < hosts.txt",
			},
		},
		Params:      func() any { return &params },
		Output:      func() any { return &workflowResult{} },
		Annotations: cli.Create(),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return cli.Validation("usage: h3xrecon workflow <name> <target|->")
			}
			cfg, err := env.Config()
			if err != nil {
				return err
			}
			name := args[0]
			workflow, ok := cfg.Workflows[name]
			if !ok {
				known := slices.Sorted(maps.Keys(cfg.Workflows))
				if len(known) == 0 {
					return cli.NotFound("workflow %q: no workflows are configured", name)
				}
				return cli.NotFound("workflow %q not found (configured: %s)", name, strings.Join(known, ", "))
			}
			if len(workflow.Jobs) == 0 {
				return cli.Validation("workflow %q has no jobs", name)
			}

			var targets []string
			if args[1] == dispatch.BulkTarget {
				targets, err = dispatch.ReadTargets(env.Stdin)
				if err != nil {
					return err
				}
			} else {
				targets = []string{args[1]}
			}

			program, err := env.Program(ctx, "")
			if err != nil {
				return err
			}
			dispatcher, err := env.Dispatcher(ctx)
			if err != nil {
				return err
			}

			requests := make([]dispatch.Request, 0, len(workflow.Jobs))
			for _, job := range workflow.Jobs {
				requests = append(requests, workflowRequest(program, job, params.Force, !params.NoTrigger))
			}

			outcomes, err := dispatcher.DispatchAll(ctx, requests, targets)
			if err != nil && len(outcomes) == 0 {
				return err
			}

			summary := dispatch.Summarize(outcomes)
			logger.Debug("workflow finished", "workflow", name, "targets", len(targets),
				"dispatched", summary.Dispatched, "rate_limited", summary.RateLimited, "failed", summary.Failed)

			result := workflowResult{Workflow: name, Program: program.Name, Summary: summary}
			for _, outcome := range outcomes {
				entry := outcomeResult{Outcome: outcome}
				if outcome.Err != nil {
					entry.Error = outcome.Err.Error()
				}
				result.Outcomes = append(result.Outcomes, entry)
			}

			if done, jsonErr := params.EmitJSON(env.Stdout, result); !done {
				writeOutcomes(env.Stdout, sendJobResult{Program: result.Program, Outcomes: result.Outcomes, Summary: summary}, false)
				if summary.Dispatched == len(outcomes) {
					fmt.Fprintf(env.Stdout, "All %d workflow jobs sent\n", len(outcomes))
				} else {
					fmt.Fprintf(env.Stdout, "%d of %d workflow jobs sent (%d rate limited, %d failed)\n",
						summary.Dispatched, len(outcomes), summary.RateLimited, summary.Failed)
				}
			} else if jsonErr != nil {
				return jsonErr
			}

			if err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%w: %d of %d dispatches failed", bus.ErrDispatchFailed, summary.Failed, len(outcomes))
			}
			return nil
		},
	}
}

// workflowRequest builds the request for one workflow job. The job's
// own force and trigger settings override the command line.
func workflowRequest(program store.Program, job config.WorkflowJob, force, trigger bool) dispatch.Request {
	if job.Force != nil {
		force = *job.Force
	}
	if job.TriggerNewJobs != nil {
		trigger = *job.TriggerNewJobs
	}
	return dispatch.Request{
		Program:  program,
		Function: job.Function,
		Params:   job.Params,
		Force:    force,
		Trigger:  trigger,
		Wordlist: job.Wordlist,
		Mode:     job.Mode,
	}
}
