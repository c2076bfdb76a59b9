// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/h3xrecon/h3xrecon/lib/bus"
	"github.com/h3xrecon/h3xrecon/lib/clock"
	"github.com/h3xrecon/h3xrecon/lib/schema"
	"github.com/h3xrecon/h3xrecon/lib/testutil"
)

var keys = bus.Keyspace{Prefix: "h3x"}

type harness struct {
	controller *Controller
	memory     *bus.Memory
	clock      *clock.FakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	memory := bus.NewMemory()
	t.Cleanup(func() { memory.Close() })
	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return &harness{
		controller: New(Config{Bus: memory, Keyspace: keys, Clock: fake, Timeout: 3 * time.Second}),
		memory:     memory,
		clock:      fake,
	}
}

type outcome struct {
	result *Result
	err    error
}

func (h *harness) start(ctx context.Context, request Request) <-chan outcome {
	done := make(chan outcome, 1)
	go func() {
		result, err := h.controller.Execute(ctx, request)
		done <- outcome{result, err}
	}()
	return done
}

// respond simulates components listening on a control channel. When a
// command arrives, answer publishes its replies on the round's reply
// channel; the command is then forwarded to the returned channel.
func (h *harness) respond(t *testing.T, channel string, answer func(schema.ControlCommand) [][]byte) <-chan schema.ControlCommand {
	t.Helper()
	subscription, err := h.memory.Subscribe(context.Background(), channel)
	if err != nil {
		t.Fatalf("Subscribe %s: %v", channel, err)
	}
	t.Cleanup(func() { subscription.Close() })

	commands := make(chan schema.ControlCommand, 1)
	go func() {
		message, ok := <-subscription.Messages()
		if !ok {
			return
		}
		var command schema.ControlCommand
		if err := json.Unmarshal(message.Payload, &command); err != nil {
			return
		}
		for _, payload := range answer(command) {
			h.memory.Publish(context.Background(), command.ReplyTo, payload)
		}
		commands <- command
	}()
	return commands
}

func reply(command schema.ControlCommand, componentID, status string) []byte {
	body, _ := json.Marshal(schema.ControlReply{
		RoundID:     command.RoundID,
		ComponentID: componentID,
		Command:     command.Command,
		Success:     true,
		Status:      status,
	})
	return body
}

func TestExecute_CollectsUntilWindowCloses(t *testing.T) {
	h := newHarness(t)
	commands := h.respond(t, "h3x:control:status:all", func(command schema.ControlCommand) [][]byte {
		foreign := command
		foreign.RoundID = "another-round"
		return [][]byte{
			reply(command, "worker-1", "first"),
			reply(command, "worker-2", "ok"),
			reply(command, "worker-1", "second"),
			reply(command, "jobprocessor-1", "ok"),
			reply(foreign, "worker-3", "ok"),
			reply(command, "", "ok"),
			[]byte("not json"),
		}
	})

	done := h.start(context.Background(), Request{Command: CommandStatus, Selector: Selector{All: true}})
	command := testutil.RequireReceive(t, commands, time.Second, "control command")
	h.clock.WaitForTimers(1)
	h.clock.Advance(3 * time.Second)
	got := testutil.RequireReceive(t, done, time.Second, "round result")

	if got.err != nil {
		t.Fatalf("Execute: %v", got.err)
	}
	result := got.result
	if command.RoundID != result.RoundID || command.Target != "all" || command.Command != "status" {
		t.Errorf("published command: got %+v", command)
	}
	if command.ReplyTo != keys.Reply(result.RoundID) {
		t.Errorf("reply_to: got %q", command.ReplyTo)
	}

	var ids []string
	for _, r := range result.Sorted() {
		ids = append(ids, r.ComponentID)
	}
	if want := []string{"jobprocessor-1", "worker-1", "worker-2"}; !slices.Equal(ids, want) {
		t.Errorf("replies: got %v, want %v", ids, want)
	}
	if status := result.Replies["worker-1"].Status; status != "first" {
		t.Errorf("duplicate reply replaced the first: status %q", status)
	}
	if class := result.Replies["jobprocessor-1"].Class; class != schema.ClassJobProcessor {
		t.Errorf("class should be derived from the id, got %q", class)
	}
	if result.Elapsed != 3*time.Second {
		t.Errorf("elapsed: got %v, want 3s", result.Elapsed)
	}
	if result.Cancelled || len(result.Missing) != 0 {
		t.Errorf("cancelled=%v missing=%v", result.Cancelled, result.Missing)
	}
	if n := h.memory.Subscribers(keys.Reply(result.RoundID)); n != 0 {
		t.Errorf("reply subscription left open: %d subscribers", n)
	}
}

func TestExecute_NoResponders(t *testing.T) {
	h := newHarness(t)

	done := h.start(context.Background(), Request{Command: CommandPing, Selector: Selector{All: true}})
	h.clock.WaitForTimers(1)
	h.clock.Advance(3 * time.Second)
	got := testutil.RequireReceive(t, done, time.Second, "round result")

	if got.err != nil {
		t.Fatalf("zero replies must not be an error, got %v", got.err)
	}
	if !got.result.NoResponders() {
		t.Errorf("expected no responders, got %d replies", len(got.result.Replies))
	}
	if got.result.Elapsed != 3*time.Second {
		t.Errorf("elapsed: got %v, want the full window", got.result.Elapsed)
	}
}

func TestExecute_ExplicitIDsEndEarly(t *testing.T) {
	h := newHarness(t)
	for _, id := range []string{"worker-1", "worker-2"} {
		h.respond(t, "h3x:control:ping:"+id, func(command schema.ControlCommand) [][]byte {
			return [][]byte{reply(command, id, "pong")}
		})
	}

	done := h.start(context.Background(), Request{
		Command:  CommandPing,
		Selector: Selector{IDs: []string{"worker-1", "worker-2"}},
	})
	// The clock never moves: the round must end once both ids replied.
	got := testutil.RequireReceive(t, done, 5*time.Second, "round ending before its window")

	if got.err != nil {
		t.Fatalf("Execute: %v", got.err)
	}
	if len(got.result.Replies) != 2 || len(got.result.Missing) != 0 {
		t.Errorf("replies=%d missing=%v", len(got.result.Replies), got.result.Missing)
	}
	if got.result.Elapsed != 0 {
		t.Errorf("elapsed: got %v, want 0", got.result.Elapsed)
	}
}

func TestExecute_ReportsMissingIDs(t *testing.T) {
	h := newHarness(t)
	answered := h.respond(t, "h3x:control:status:worker-1", func(command schema.ControlCommand) [][]byte {
		return [][]byte{reply(command, "worker-1", "ok")}
	})

	done := h.start(context.Background(), Request{
		Command:  CommandStatus,
		Selector: Selector{IDs: []string{"worker-1", "worker-9"}},
		Timeout:  500 * time.Millisecond,
	})
	testutil.RequireReceive(t, answered, time.Second, "command for worker-1")
	h.clock.WaitForTimers(1)
	h.clock.Advance(500 * time.Millisecond)
	got := testutil.RequireReceive(t, done, time.Second, "round result")

	if got.err != nil {
		t.Fatalf("Execute: %v", got.err)
	}
	if !slices.Equal(got.result.Missing, []string{"worker-9"}) {
		t.Errorf("missing: got %v, want [worker-9]", got.result.Missing)
	}
	if _, ok := got.result.Replies["worker-1"]; !ok {
		t.Error("worker-1 reply lost")
	}
}

func TestExecute_Cancelled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := h.start(ctx, Request{Command: CommandList, Selector: Selector{All: true}})
	h.clock.WaitForTimers(1)
	cancel()
	got := testutil.RequireReceive(t, done, time.Second, "round result after cancel")

	if got.err != nil {
		t.Fatalf("cancellation returns a partial result, got error %v", got.err)
	}
	if !got.result.Cancelled {
		t.Error("result should be marked cancelled")
	}
}

func TestExecute_DeadlineTruncatesWindow(t *testing.T) {
	h := newHarness(t)
	answered := h.respond(t, "h3x:control:ping:all", func(command schema.ControlCommand) [][]byte {
		return [][]byte{reply(command, "worker-1", "pong")}
	})

	// The fake clock never reaches the 3s window; the real deadline
	// closes it instead.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	done := h.start(ctx, Request{Command: CommandPing, Selector: Selector{All: true}})
	testutil.RequireReceive(t, answered, time.Second, "ping command")
	got := testutil.RequireReceive(t, done, 5*time.Second, "round result after deadline")

	if got.err != nil {
		t.Fatalf("a deadline returns the partial round, got error %v", got.err)
	}
	if !got.result.Truncated || got.result.Cancelled {
		t.Errorf("truncated=%v cancelled=%v, want truncated only", got.result.Truncated, got.result.Cancelled)
	}
	if _, ok := got.result.Replies["worker-1"]; !ok {
		t.Errorf("reply received before the deadline lost: %+v", got.result.Replies)
	}
}

type failingBus struct {
	bus.Bus
	err error
}

func (f failingBus) Publish(context.Context, string, []byte) error { return f.err }

func TestExecute_DispatchFailure(t *testing.T) {
	memory := bus.NewMemory()
	defer memory.Close()
	broken := errors.New("connection reset")
	controller := New(Config{Bus: failingBus{Bus: memory, err: broken}, Keyspace: keys})

	_, err := controller.Execute(context.Background(), Request{Command: CommandPause, Selector: Selector{All: true}})
	if !errors.Is(err, bus.ErrDispatchFailed) || !errors.Is(err, broken) {
		t.Errorf("publish failure: got %v, want ErrDispatchFailed wrapping the cause", err)
	}

	closed := bus.NewMemory()
	closed.Close()
	controller = New(Config{Bus: closed, Keyspace: keys})
	_, err = controller.Execute(context.Background(), Request{Command: CommandPing, Selector: Selector{All: true}})
	if !errors.Is(err, bus.ErrDispatchFailed) || !errors.Is(err, bus.ErrClosed) {
		t.Errorf("subscribe failure: got %v, want ErrDispatchFailed wrapping ErrClosed", err)
	}
}

func TestExecute_KillJobOnlyReachesWorkers(t *testing.T) {
	h := newHarness(t)
	commands := h.respond(t, "h3x:control:killjob:worker", func(schema.ControlCommand) [][]byte { return nil })

	done := h.start(context.Background(), Request{Command: CommandKillJob, Selector: Selector{All: true}})
	command := testutil.RequireReceive(t, commands, time.Second, "killjob on the worker channel")
	if command.Target != "worker" {
		t.Errorf("target: got %q, want worker", command.Target)
	}
	h.clock.WaitForTimers(1)
	h.clock.Advance(3 * time.Second)
	testutil.RequireReceive(t, done, time.Second, "round result")

	for _, selector := range []Selector{
		{Class: schema.ClassJobProcessor},
		{IDs: []string{"worker-1", "dataprocessor-1"}},
	} {
		_, err := h.controller.Execute(context.Background(), Request{Command: CommandKillJob, Selector: selector})
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("killjob %s: got %v, want ErrInvalidRequest", selector, err)
		}
	}
	_, err := h.controller.Execute(context.Background(), Request{Command: "reboot", Selector: Selector{All: true}})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("unknown command: got %v, want ErrInvalidRequest", err)
	}
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		args    []string
		want    Selector
		wantErr bool
	}{
		{args: nil, want: Selector{All: true}},
		{args: []string{"all"}, want: Selector{All: true}},
		{args: []string{"worker"}, want: Selector{Class: schema.ClassWorker}},
		{args: []string{"worker-1"}, want: Selector{IDs: []string{"worker-1"}}},
		{args: []string{"worker-1", "worker-2", "worker-1"}, want: Selector{IDs: []string{"worker-1", "worker-2"}}},
		{args: []string{"worker-1", "all"}, wantErr: true},
		{args: []string{"worker", "worker-1"}, wantErr: true},
		{args: []string{"bad id"}, wantErr: true},
		{args: []string{""}, wantErr: true},
	}
	for _, test := range tests {
		got, err := ParseSelector(test.args)
		if test.wantErr {
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("ParseSelector(%q): got %v, want ErrInvalidRequest", test.args, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSelector(%q): %v", test.args, err)
			continue
		}
		if got.All != test.want.All || got.Class != test.want.Class || !slices.Equal(got.IDs, test.want.IDs) {
			t.Errorf("ParseSelector(%q): got %+v, want %+v", test.args, got, test.want)
		}
	}
}

func TestParseCommand(t *testing.T) {
	for _, command := range Commands() {
		parsed, err := ParseCommand(strings.ToUpper(string(command)))
		if err != nil || parsed != command {
			t.Errorf("ParseCommand(%q): got %q, %v", command, parsed, err)
		}
	}
	if _, err := ParseCommand("restart"); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("unknown command: got %v", err)
	}
	if CommandStatus.Kind() != KindQuery || CommandPause.Kind() != KindControl {
		t.Error("command kinds are wrong")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name  string
		reply schema.ControlReply
		check func(t *testing.T, d Descriptor)
	}{
		{
			name: "running worker",
			reply: schema.ControlReply{
				ComponentID: "worker-7",
				Success:     true,
				Data: json.RawMessage(`{
					"current_job": {"function_name": "port_scan", "target": "10.0.0.1"},
					"counters": {"completed": 12, "failed": 1, "note": "x"},
					"uptime_seconds": 90.5
				}`),
			},
			check: func(t *testing.T, d Descriptor) {
				if d.State != "running" || d.CurrentFunction != "port_scan" || d.CurrentTarget != "10.0.0.1" {
					t.Errorf("got %+v", d)
				}
				if d.Class != schema.ClassWorker {
					t.Errorf("class: got %q", d.Class)
				}
				if d.Counters["completed"] != 12 || d.Counters["failed"] != 1 || len(d.Counters) != 2 {
					t.Errorf("counters: got %v", d.Counters)
				}
				if d.Uptime != 90500*time.Millisecond {
					t.Errorf("uptime: got %v", d.Uptime)
				}
			},
		},
		{
			name:  "explicit state wins",
			reply: schema.ControlReply{ComponentID: "jobprocessor-1", Success: true, Data: json.RawMessage(`{"state":"draining","paused":true}`)},
			check: func(t *testing.T, d Descriptor) {
				if d.State != "draining" || !d.Paused {
					t.Errorf("got %+v", d)
				}
			},
		},
		{
			name:  "paused",
			reply: schema.ControlReply{ComponentID: "worker-1", Success: true, Data: json.RawMessage(`{"paused":true}`)},
			check: func(t *testing.T, d Descriptor) {
				if d.State != "paused" {
					t.Errorf("state: got %q", d.State)
				}
			},
		},
		{
			name:  "failure without data",
			reply: schema.ControlReply{ComponentID: "custom", Error: "boom"},
			check: func(t *testing.T, d Descriptor) {
				if d.State != "error" || d.Error != "boom" || d.Class != "" {
					t.Errorf("got %+v", d)
				}
			},
		},
		{
			name:  "idle",
			reply: schema.ControlReply{ComponentID: "dataprocessor-2", Success: true},
			check: func(t *testing.T, d Descriptor) {
				if d.State != "idle" {
					t.Errorf("state: got %q", d.State)
				}
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.check(t, Describe(test.reply))
		})
	}

	names := CounterNames([]Descriptor{
		{Counters: map[string]int64{"failed": 1, "completed": 2}},
		{Counters: map[string]int64{"completed": 3, "queued": 4}},
	})
	if want := []string{"completed", "failed", "queued"}; !slices.Equal(names, want) {
		t.Errorf("CounterNames: got %v, want %v", names, want)
	}
}
