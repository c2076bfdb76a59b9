// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli/clitest"
	"github.com/h3xrecon/h3xrecon/lib/cache"
	"github.com/h3xrecon/h3xrecon/lib/queue"
)

func newRoot(harness *clitest.Harness) *cli.Command {
	return &cli.Command{Name: "h3xrecon", Subcommands: []*cli.Command{Command(harness.Env)}}
}

func TestQueueShow(t *testing.T) {
	harness := clitest.New(t)
	root := newRoot(harness)
	ctx := context.Background()

	for range 3 {
		harness.Bus.Append(ctx, "h3x:stream:FUNCTION_EXECUTE", []byte(`{"function_name":"nmap"}`))
	}
	harness.Bus.SetGroup("h3x:stream:FUNCTION_EXECUTE", "workers", 4, 2)

	output := harness.MustRun(t, root, "system", "queue", "show", "worker", "--json")
	var snapshots []queue.Snapshot
	if err := json.Unmarshal([]byte(output), &snapshots); err != nil {
		t.Fatalf("decoding %q: %v", output, err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(snapshots))
	}
	if got := snapshots[0]; got.Depth != 3 || got.Consumers != 4 || got.Pending != 2 {
		t.Errorf("worker snapshot: got %+v", got)
	}

	output = harness.MustRun(t, root, "system", "queue", "show")
	for _, want := range []string{"FUNCTION_EXECUTE", "FUNCTION_OUTPUT", "RECON_DATA"} {
		if !strings.Contains(output, want) {
			t.Errorf("queue show missing %s:\n%s", want, output)
		}
	}
}

func TestQueueMessages(t *testing.T) {
	harness := clitest.New(t)
	root := newRoot(harness)
	ctx := context.Background()

	for _, body := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		harness.Bus.Append(ctx, "h3x:stream:FUNCTION_OUTPUT", []byte(body))
	}

	output := harness.MustRun(t, root, "system", "queue", "messages", "job", "-n", "2")
	if !strings.Contains(output, `{"n":1}`) || !strings.Contains(output, `{"n":2}`) || strings.Contains(output, `{"n":3}`) {
		t.Errorf("messages with limit 2:\n%s", output)
	}

	_, err := harness.Run(t, root, "system", "queue", "messages", "job", "--limit=-1")
	if cli.ExitCode(err) != cli.ExitInvalid {
		t.Errorf("negative limit: got %v", err)
	}
}

func TestCacheShowAndFlush(t *testing.T) {
	harness := clitest.New(t)
	root := newRoot(harness)
	ctx := context.Background()

	entry := cache.Entry{LastDispatch: clitest.Epoch, ExecutionID: "e-1"}
	if err := harness.Cache.RecordExecution(ctx, "resolve_domain", "www.acme.com", entry); err != nil {
		t.Fatalf("RecordExecution: %v", err)
	}

	output := harness.MustRun(t, root, "system", "cache", "show", "--json")
	var items []itemResult
	if err := json.Unmarshal([]byte(output), &items); err != nil {
		t.Fatalf("decoding %q: %v", output, err)
	}
	if len(items) != 1 || items[0].Key != "resolve_domain:www.acme.com" {
		t.Fatalf("cache items: got %+v", items)
	}
	if !strings.Contains(items[0].Summary, clitest.Epoch.Format(time.RFC3339)) {
		t.Errorf("summary should show the last dispatch: got %q", items[0].Summary)
	}

	if output := harness.MustRun(t, root, "system", "cache", "flush"); strings.TrimSpace(output) != "Cache flushed" {
		t.Errorf("flush output: got %q", output)
	}
	if _, found, _ := harness.Cache.LastExecution(ctx, "resolve_domain", "www.acme.com"); found {
		t.Error("entry should be gone after flush")
	}
	if output := harness.MustRun(t, root, "system", "cache", "show"); strings.TrimSpace(output) != "The cache is empty." {
		t.Errorf("empty cache: got %q", output)
	}
}

func TestStatusFlushByClass(t *testing.T) {
	harness := clitest.New(t)
	root := newRoot(harness)
	ctx := context.Background()

	for _, key := range []string{"worker-1", "worker-2", "jobprocessor-1"} {
		if err := harness.Cache.Status.Set(ctx, key, []byte(`{"state":"idle"}`)); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	output := harness.MustRun(t, root, "system", "status", "flush", "worker")
	if !strings.Contains(output, "Flushed worker status: removed 2 entries") {
		t.Errorf("flush output: got %q", output)
	}
	output = harness.MustRun(t, root, "system", "status", "show")
	if !strings.Contains(output, "jobprocessor-1") || strings.Contains(output, "worker-1") {
		t.Errorf("remaining status entries:\n%s", output)
	}

	_, err := harness.Run(t, root, "system", "status", "flush", "robots")
	if cli.ExitCode(err) != cli.ExitInvalid {
		t.Errorf("unknown class: got %v", err)
	}
}
