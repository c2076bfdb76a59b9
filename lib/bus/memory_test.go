// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/h3xrecon/h3xrecon/lib/testutil"
)

func TestMemory_PublishSubscribe(t *testing.T) {
	ctx := context.Background()
	memory := NewMemory()
	defer memory.Close()

	subscription, err := memory.Subscribe(ctx, "h3x:control:reply:round-1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	other, err := memory.Subscribe(ctx, "h3x:control:reply:round-2")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := memory.Publish(ctx, "h3x:control:reply:round-1", []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	message := testutil.RequireReceive(t, subscription.Messages(), time.Second, "reply on subscribed channel")
	if string(message.Payload) != `{"ok":true}` {
		t.Errorf("payload: got %q", message.Payload)
	}
	if message.Channel != "h3x:control:reply:round-1" {
		t.Errorf("channel: got %q", message.Channel)
	}
	testutil.RequireNoReceive(t, other.Messages(), 10*time.Millisecond, "delivery on another channel")
}

func TestMemory_PublishWithoutSubscribers(t *testing.T) {
	memory := NewMemory()
	defer memory.Close()

	if err := memory.Publish(context.Background(), "nobody", []byte("x")); err != nil {
		t.Fatalf("publishing with no subscribers should succeed, got %v", err)
	}
}

func TestMemory_SubscriptionClose(t *testing.T) {
	ctx := context.Background()
	memory := NewMemory()
	defer memory.Close()

	subscription, err := memory.Subscribe(ctx, "channel")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if got := memory.Subscribers("channel"); got != 1 {
		t.Fatalf("subscribers: got %d, want 1", got)
	}

	subscription.Close()
	testutil.RequireClosed(t, subscription.Messages(), time.Second, "messages after Close")
	if got := memory.Subscribers("channel"); got != 0 {
		t.Errorf("subscribers after close: got %d, want 0", got)
	}
	// Closing twice is harmless.
	if err := subscription.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestMemory_Streams(t *testing.T) {
	ctx := context.Background()
	memory := NewMemory()
	defer memory.Close()

	info, err := memory.Info(ctx, "h3x:stream:FUNCTION_EXECUTE")
	if err != nil {
		t.Fatalf("Info on missing stream: %v", err)
	}
	if info != (StreamInfo{}) {
		t.Errorf("missing stream should be empty, got %+v", info)
	}

	for _, body := range []string{"a", "b", "c"} {
		if _, err := memory.Append(ctx, "h3x:stream:FUNCTION_EXECUTE", []byte(body)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	memory.SetGroup("h3x:stream:FUNCTION_EXECUTE", "workers", 2, 1)

	info, err = memory.Info(ctx, "h3x:stream:FUNCTION_EXECUTE")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	want := StreamInfo{Length: 3, Groups: 1, Consumers: 2, Pending: 1}
	if info != want {
		t.Errorf("info: got %+v, want %+v", info, want)
	}

	messages, err := memory.Range(ctx, "h3x:stream:FUNCTION_EXECUTE", 2)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(messages) != 2 || string(messages[0].Payload) != "a" || messages[1].ID != "2-0" {
		t.Errorf("range: got %+v", messages)
	}

	removed, err := memory.Trim(ctx, "h3x:stream:FUNCTION_EXECUTE")
	if err != nil {
		t.Fatalf("Trim: %v", err)
	}
	if removed != 3 {
		t.Errorf("trim removed %d, want 3", removed)
	}

	info, _ = memory.Info(ctx, "h3x:stream:FUNCTION_EXECUTE")
	if info.Length != 0 || info.Groups != 1 {
		t.Errorf("after trim: got %+v, want empty stream with its group kept", info)
	}
}

func TestMemory_Closed(t *testing.T) {
	ctx := context.Background()
	memory := NewMemory()
	subscription, _ := memory.Subscribe(ctx, "channel")
	memory.Close()

	testutil.RequireClosed(t, subscription.Messages(), time.Second, "subscription after bus close")
	if err := memory.Publish(ctx, "channel", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after close: got %v, want ErrClosed", err)
	}
	if _, err := memory.Append(ctx, "stream", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Append after close: got %v, want ErrClosed", err)
	}
}

func TestKeyspace(t *testing.T) {
	keys := Keyspace{Prefix: "h3x"}
	if got := keys.Stream("RECON_DATA"); got != "h3x:stream:RECON_DATA" {
		t.Errorf("Stream: got %q", got)
	}
	if got := keys.Control("ping", "worker"); got != "h3x:control:ping:worker" {
		t.Errorf("Control: got %q", got)
	}
	if got := keys.Reply("abc"); got != "h3x:control:reply:abc" {
		t.Errorf("Reply: got %q", got)
	}
	if got := keys.JobResponse("r1"); got != "h3x:jobs:response:r1" {
		t.Errorf("JobResponse: got %q", got)
	}
}

func TestEntryPayload(t *testing.T) {
	if got := string(entryPayload(map[string]any{"data": `{"x":1}`})); got != `{"x":1}` {
		t.Errorf("data field: got %q", got)
	}
	if got := string(entryPayload(map[string]any{"function": "nmap"})); got != `{"function":"nmap"}` {
		t.Errorf("foreign entry: got %q", got)
	}
}
