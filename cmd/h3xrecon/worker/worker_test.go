// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli/clitest"
	"github.com/h3xrecon/h3xrecon/lib/schema"
	"github.com/h3xrecon/h3xrecon/lib/testutil"
)

func newRoot(harness *clitest.Harness) *cli.Command {
	return &cli.Command{Name: "h3xrecon", Subcommands: []*cli.Command{Command(harness.Env)}}
}

// respond answers every command published on channel with a reply built
// by build.
func respond(t *testing.T, harness *clitest.Harness, channel string, build func(schema.ControlCommand) schema.ControlReply) {
	t.Helper()
	subscription, err := harness.Bus.Subscribe(context.Background(), channel)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	t.Cleanup(func() { subscription.Close() })
	go func() {
		for message := range subscription.Messages() {
			var command schema.ControlCommand
			if err := json.Unmarshal(message.Payload, &command); err != nil {
				continue
			}
			reply := build(command)
			reply.RoundID = command.RoundID
			reply.Command = command.Command
			body, _ := json.Marshal(reply)
			harness.Bus.Publish(context.Background(), command.ReplyTo, body)
		}
	}()
}

func TestRound_MissingComponent(t *testing.T) {
	harness := clitest.New(t)
	root := newRoot(harness)

	respond(t, harness, "h3x:control:status:worker-1", func(schema.ControlCommand) schema.ControlReply {
		return schema.ControlReply{ComponentID: "worker-1", Success: true, Status: "idle"}
	})

	type result struct {
		output string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		output, err := harness.Run(t, root, "worker", "status", "worker-1", "worker-2", "--window", "2s", "--json")
		done <- result{output, err}
	}()
	harness.Clock.WaitForTimers(1)
	harness.Clock.Advance(2 * time.Second)

	got := testutil.RequireReceive(t, done, 5*time.Second, "status round to finish")
	if got.err != nil {
		t.Fatalf("status: %v", got.err)
	}
	var round roundResult
	if err := json.Unmarshal([]byte(got.output), &round); err != nil {
		t.Fatalf("decoding %q: %v", got.output, err)
	}
	if len(round.Replies) != 1 || round.Replies[0].ComponentID != "worker-1" {
		t.Errorf("replies: got %+v", round.Replies)
	}
	if len(round.Missing) != 1 || round.Missing[0] != "worker-2" {
		t.Errorf("missing: got %v", round.Missing)
	}
	if !strings.Contains(round.Selector, "worker-2") {
		t.Errorf("selector: got %q", round.Selector)
	}
}

func TestRound_DeadlineKeepsPartialResult(t *testing.T) {
	harness := clitest.New(t)
	root := newRoot(harness)

	respond(t, harness, "h3x:control:ping:all", func(schema.ControlCommand) schema.ControlReply {
		return schema.ControlReply{ComponentID: "worker-1", Success: true, Status: "pong"}
	})

	// The fake clock is never advanced, so only the deadline ends the round.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	output, err := harness.RunContext(ctx, t, root, "worker", "ping", "all")
	if err != nil {
		t.Fatalf("ping with replies before the deadline should succeed, got %v", err)
	}
	for _, want := range []string{"worker-1", "cut short by --timeout"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestRound_ControlTable(t *testing.T) {
	harness := clitest.New(t)
	root := newRoot(harness)

	received := make(chan json.RawMessage, 1)
	respond(t, harness, "h3x:control:killjob:worker-7", func(command schema.ControlCommand) schema.ControlReply {
		received <- command.Payload
		return schema.ControlReply{ComponentID: "worker-7", Success: false, Error: "no job running"}
	})

	output := harness.MustRun(t, root, "worker", "killjob", "worker-7", "--execution-id", "e-42")
	payload := testutil.RequireReceive(t, received, time.Second, "killjob payload")
	if string(payload) != `{"execution_id":"e-42"}` {
		t.Errorf("payload: got %s", payload)
	}
	for _, want := range []string{"worker-7", "failed", "no job running"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestRound_Validation(t *testing.T) {
	harness := clitest.New(t)
	root := newRoot(harness)

	for _, args := range [][]string{
		{"worker", "ping", "--execution-id", "e-1"},
		{"worker", "ping", "--window=-1s"},
		{"worker", "ping", "all", "worker-1"},
		{"worker", "killjob", "jobprocessor"},
	} {
		_, err := harness.Run(t, root, args...)
		if code := cli.ExitCode(err); code != cli.ExitInvalid {
			t.Errorf("%v: got %v (exit %d), want exit %d", args, err, code, cli.ExitInvalid)
		}
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		uptime time.Duration
		want   string
	}{
		{0, ""},
		{90 * time.Second, "1m30s"},
		{1500 * time.Millisecond, "2s"},
		{50 * time.Hour, "2d2h0m0s"},
	}
	for _, test := range tests {
		if got := formatUptime(test.uptime); got != test.want {
			t.Errorf("formatUptime(%v) = %q, want %q", test.uptime, got, test.want)
		}
	}
}
