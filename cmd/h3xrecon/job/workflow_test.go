// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli/clitest"
	"github.com/h3xrecon/h3xrecon/lib/cache"
	"github.com/h3xrecon/h3xrecon/lib/config"
	"github.com/h3xrecon/h3xrecon/lib/dispatch"
	"github.com/h3xrecon/h3xrecon/lib/schema"
)

func setupWorkflow(t *testing.T) (*clitest.Harness, *cli.Command) {
	t.Helper()
	harness, _ := setup(t)
	force := true
	harness.Config.Workflows = map[string]config.Workflow{
		"passive": {Jobs: []config.WorkflowJob{
			{Function: "resolve_domain"},
			{Function: "subdomain_permutation", Wordlist: "/opt/wordlists/dns.txt", Mode: "fast", Force: &force},
		}},
		"broken": {Jobs: []config.WorkflowJob{
			{Function: "resolve_domain"},
			{Function: "teleport"},
		}},
	}
	return harness, &cli.Command{Name: "h3xrecon", Subcommands: []*cli.Command{WorkflowCommand(harness.Env)}}
}

func TestWorkflow_SendsEveryJob(t *testing.T) {
	harness, root := setupWorkflow(t)
	ctx := context.Background()

	// Cooling down, but the workflow job forces it.
	harness.Cache.RecordExecution(ctx, "subdomain_permutation", "acme.com", cache.Entry{LastDispatch: clitest.Epoch})

	output := harness.MustRun(t, root, "workflow", "passive", "acme.com", "--no-trigger")
	if !strings.Contains(output, "All 2 workflow jobs sent") {
		t.Errorf("summary line:\n%s", output)
	}

	messages, err := harness.Bus.Range(ctx, "h3x:stream:FUNCTION_EXECUTE", 10)
	if err != nil || len(messages) != 2 {
		t.Fatalf("Range: %v (%d messages)", err, len(messages))
	}
	var jobs []schema.JobRequest
	for _, message := range messages {
		var job schema.JobRequest
		if err := json.Unmarshal(message.Payload, &job); err != nil {
			t.Fatalf("decoding job: %v", err)
		}
		jobs = append(jobs, job)
	}
	if jobs[0].FunctionName != "resolve_domain" || jobs[0].Force || jobs[0].TriggerNewJobs {
		t.Errorf("first job: got %+v", jobs[0])
	}
	second := jobs[1]
	if second.FunctionName != "subdomain_permutation" || !second.Force || second.Params.Target != "acme.com" {
		t.Errorf("second job: got %+v", second)
	}
	if second.Params.Wordlist != "/opt/wordlists/dns.txt" || second.Params.Mode != "fast" {
		t.Errorf("second job params: got %+v", second.Params)
	}
}

func TestWorkflow_BulkTargetsReportRateLimits(t *testing.T) {
	harness, root := setupWorkflow(t)
	ctx := context.Background()

	harness.Cache.RecordExecution(ctx, "resolve_domain", "b.acme.com", cache.Entry{LastDispatch: clitest.Epoch.Add(-time.Hour)})
	harness.Stdin.WriteString("a.acme.com\nb.acme.com\n")

	output := harness.MustRun(t, root, "workflow", "passive", "-")
	if !strings.Contains(output, "Rate limited resolve_domain b.acme.com") {
		t.Errorf("rate limited line:\n%s", output)
	}
	if !strings.Contains(output, "3 of 4 workflow jobs sent (1 rate limited, 0 failed)") {
		t.Errorf("summary line:\n%s", output)
	}
}

func TestWorkflow_Errors(t *testing.T) {
	harness, root := setupWorkflow(t)

	_, err := harness.Run(t, root, "workflow", "passive")
	if cli.ExitCode(err) != cli.ExitInvalid {
		t.Errorf("missing target: got %v", err)
	}

	_, err = harness.Run(t, root, "workflow", "active", "acme.com")
	if cli.ExitCode(err) != cli.ExitNotFound || !strings.Contains(err.Error(), "configured: broken, passive") {
		t.Errorf("unknown workflow: got %v", err)
	}

	harness.Config.Jobs.Cooldowns = map[string]config.Duration{"resolve_domain": config.Duration(time.Hour)}
	_, err = harness.Run(t, root, "workflow", "broken", "acme.com")
	if !errors.Is(err, dispatch.ErrUnknownFunction) {
		t.Errorf("unknown function: got %v", err)
	}
	if info, _ := harness.Bus.Info(context.Background(), "h3x:stream:FUNCTION_EXECUTE"); info.Length != 0 {
		t.Errorf("nothing should be sent for a workflow with an unknown function, got %d entries", info.Length)
	}

	harness.Select(t, "")
	_, err = harness.Run(t, root, "workflow", "passive", "acme.com")
	if cli.ExitCode(err) != cli.ExitNoActiveProgram {
		t.Errorf("no active program: got %v", err)
	}
}
