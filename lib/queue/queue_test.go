// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/h3xrecon/h3xrecon/lib/bus"
	"github.com/h3xrecon/h3xrecon/lib/schema"
)

const dataKey = "h3x:stream:RECON_DATA"

func newInspector(t *testing.T) (*Inspector, *bus.Memory) {
	t.Helper()
	memory := bus.NewMemory()
	t.Cleanup(func() { memory.Close() })
	return NewInspector(memory, bus.Keyspace{Prefix: "h3x"}, nil), memory
}

func TestFlush_RemovesPendingAndKeepsGroups(t *testing.T) {
	ctx := context.Background()
	inspector, memory := newInspector(t)
	for i := range 5 {
		memory.Append(ctx, dataKey, fmt.Appendf(nil, `{"n":%d}`, i))
	}
	memory.SetGroup(dataKey, "dataprocessors", 2, 0)

	removed, err := inspector.Flush(ctx, schema.StreamData)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if removed != 5 {
		t.Errorf("removed: got %d, want 5", removed)
	}

	snapshot, err := inspector.Show(ctx, schema.StreamData)
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if snapshot.Depth != 0 {
		t.Errorf("depth after flush: got %d, want 0", snapshot.Depth)
	}
	if snapshot.Groups != 1 || snapshot.Consumers != 2 {
		t.Errorf("groups must survive a flush, got %+v", snapshot)
	}
	if snapshot.Key != dataKey {
		t.Errorf("key: got %q", snapshot.Key)
	}
}

func TestShow_EmptyStream(t *testing.T) {
	inspector, _ := newInspector(t)
	snapshots, err := inspector.ShowAll(context.Background())
	if err != nil {
		t.Fatalf("ShowAll: %v", err)
	}
	if len(snapshots) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snapshots))
	}
	for _, snapshot := range snapshots {
		if snapshot.Depth != 0 || snapshot.Groups != 0 {
			t.Errorf("%s: never-written stream should be empty, got %+v", snapshot.Stream, snapshot)
		}
	}
	if snapshots[0].Key != "h3x:stream:FUNCTION_EXECUTE" || snapshots[1].Key != "h3x:stream:FUNCTION_OUTPUT" {
		t.Errorf("stream keys: got %q, %q", snapshots[0].Key, snapshots[1].Key)
	}
}

func TestMessages(t *testing.T) {
	ctx := context.Background()
	inspector, memory := newInspector(t)
	key := "h3x:stream:FUNCTION_EXECUTE"
	for i := range 25 {
		memory.Append(ctx, key, fmt.Appendf(nil, `{"n":%d}`, i))
	}
	memory.Append(ctx, key, []byte("plain text"))

	entries, err := inspector.Messages(ctx, schema.StreamWorker, 0)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(entries) != DefaultLimit {
		t.Fatalf("default page: got %d entries, want %d", len(entries), DefaultLimit)
	}
	if string(entries[0].Body) != `{"n":0}` || entries[0].ID != "1-0" {
		t.Errorf("oldest first: got %+v", entries[0])
	}

	entries, _ = inspector.Messages(ctx, schema.StreamWorker, 100)
	if len(entries) != 26 {
		t.Fatalf("got %d entries, want 26", len(entries))
	}
	if string(entries[25].Body) != `"plain text"` {
		t.Errorf("non-JSON body should be quoted, got %s", entries[25].Body)
	}

	snapshot, _ := inspector.Show(ctx, schema.StreamWorker)
	if snapshot.Depth != 26 {
		t.Errorf("reading must not consume, depth %d", snapshot.Depth)
	}
}

func TestUnknownStream(t *testing.T) {
	inspector, _ := newInspector(t)
	ctx := context.Background()

	if _, err := ParseStream("results"); !errors.Is(err, ErrUnknownStream) {
		t.Errorf("ParseStream: got %v", err)
	}
	if _, err := inspector.Show(ctx, "results"); !errors.Is(err, ErrUnknownStream) {
		t.Errorf("Show: got %v", err)
	}
	if _, err := inspector.Messages(ctx, "results", 5); !errors.Is(err, ErrUnknownStream) {
		t.Errorf("Messages: got %v", err)
	}
	if _, err := inspector.Flush(ctx, "results"); !errors.Is(err, ErrUnknownStream) {
		t.Errorf("Flush: got %v", err)
	}
	if stream, err := ParseStream("job"); err != nil || stream != schema.StreamJob {
		t.Errorf("ParseStream(job): got %q, %v", stream, err)
	}
}
