// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func newTestClient() *Client {
	return &Client{Results: NewMemoryStore(), Status: NewMemoryStore()}
}

func TestClient_RateLimitEntries(t *testing.T) {
	ctx := context.Background()
	client := newTestClient()

	if _, found, err := client.LastExecution(ctx, "resolve_domain", "example.com"); err != nil || found {
		t.Fatalf("empty cache: found=%v err=%v", found, err)
	}

	dispatched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := Entry{LastDispatch: dispatched, ExecutionID: "exec-1"}
	if err := client.RecordExecution(ctx, "resolve_domain", "example.com", entry); err != nil {
		t.Fatalf("RecordExecution: %v", err)
	}

	raw, found, _ := client.Results.Get(ctx, "resolve_domain:example.com")
	if !found {
		t.Fatal("entry not stored under <function>:<target>")
	}
	if !strings.Contains(string(raw), `"last_dispatch":"2026-03-01T12:00:00Z"`) {
		t.Errorf("stored value: %s", raw)
	}
	if strings.Contains(string(raw), "result") {
		t.Errorf("empty result should be omitted: %s", raw)
	}

	got, found, err := client.LastExecution(ctx, "resolve_domain", "example.com")
	if err != nil || !found {
		t.Fatalf("LastExecution: found=%v err=%v", found, err)
	}
	if !got.LastDispatch.Equal(dispatched) || got.ExecutionID != "exec-1" {
		t.Errorf("entry round trip: got %+v", got)
	}
}

func TestClient_LastExecutionCorruptValue(t *testing.T) {
	ctx := context.Background()
	client := newTestClient()
	client.Results.Set(ctx, Key("port_scan", "10.0.0.1"), []byte("not json"))

	if _, _, err := client.LastExecution(ctx, "port_scan", "10.0.0.1"); err == nil {
		t.Error("expected decode error for a corrupt entry")
	}
}

func TestClient_FlushStatusByClass(t *testing.T) {
	ctx := context.Background()
	client := newTestClient()
	for _, id := range []string{"worker-1", "worker-2", "jobprocessor-1", "dataprocessor-1"} {
		client.Status.Set(ctx, id, []byte(`{"state":"idle"}`))
	}

	removed, err := client.FlushStatus(ctx, "worker")
	if err != nil {
		t.Fatalf("FlushStatus(worker): %v", err)
	}
	if removed != 2 {
		t.Errorf("removed %d worker entries, want 2", removed)
	}
	remaining, _ := client.StatusItems(ctx, StatusAll)
	if len(remaining) != 2 || remaining[0].Key != "dataprocessor-1" || remaining[1].Key != "jobprocessor-1" {
		t.Errorf("remaining: %+v", remaining)
	}

	removed, err = client.FlushStatus(ctx, StatusAll)
	if err != nil {
		t.Fatalf("FlushStatus(all): %v", err)
	}
	if removed != 2 {
		t.Errorf("flush all removed %d, want 2", removed)
	}
	if remaining, _ := client.StatusItems(ctx, StatusAll); len(remaining) != 0 {
		t.Errorf("status namespace not empty: %+v", remaining)
	}

	if _, err := client.FlushStatus(ctx, "scanner"); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("unknown class: got %v, want ErrUnknownClass", err)
	}
}

func TestClient_ResultItemsAndFlush(t *testing.T) {
	ctx := context.Background()
	client := newTestClient()
	client.RecordExecution(ctx, "nuclei", "https://a.example.com/login", Entry{ExecutionID: "x"})
	client.RecordExecution(ctx, "httpx", "a.example.com", Entry{ExecutionID: "y"})

	items, err := client.ResultItems(ctx)
	if err != nil {
		t.Fatalf("ResultItems: %v", err)
	}
	if len(items) != 2 || items[0].Key != "httpx:a.example.com" || items[1].Key != "nuclei:https://a.example.com/login" {
		t.Errorf("items: %+v", items)
	}

	if err := client.FlushResults(ctx); err != nil {
		t.Fatalf("FlushResults: %v", err)
	}
	if items, _ := client.ResultItems(ctx); len(items) != 0 {
		t.Errorf("results not flushed: %+v", items)
	}
}

func TestMemoryStore_KeysGlob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, key := range []string{"worker-1", "worker-10", "workers", "jobprocessor-1"} {
		store.Set(ctx, key, nil)
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"*", []string{"jobprocessor-1", "worker-1", "worker-10", "workers"}},
		{"worker-*", []string{"worker-1", "worker-10"}},
		{"worker-?", []string{"worker-1"}},
		{"worker.*", nil},
	}
	for _, test := range tests {
		got, err := store.Keys(ctx, test.pattern)
		if err != nil {
			t.Fatalf("Keys(%q): %v", test.pattern, err)
		}
		if strings.Join(got, ",") != strings.Join(test.want, ",") {
			t.Errorf("Keys(%q): got %v, want %v", test.pattern, got, test.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"rate limit entry", `{"last_dispatch":"2026-03-01T12:00:00Z","execution_id":"e1"}`, "last_dispatch=2026-03-01T12:00:00Z execution_id=e1"},
		{"cached result", `{"last_dispatch":"t","execution_id":"e1","result":[1]}`, "last_dispatch=t execution_id=e1 result=cached"},
		{"status entry", `{"state":"busy","current_job":{"function_name":"nmap"}}`, "state=busy job=nmap"},
		{"other object", `{"a":1,"b":2}`, "{a, b}"},
		{"plain text", "1700000000", "1700000000"},
		{"long text", strings.Repeat("x", 100), strings.Repeat("x", 77) + "..."},
		{"long multibyte text", strings.Repeat("é", 60), strings.Repeat("é", 38) + "..."},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Summarize([]byte(test.value)); got != test.want {
				t.Errorf("got %q, want %q", got, test.want)
			}
			if got := Summarize([]byte(test.value)); !utf8.ValidString(got) {
				t.Errorf("summary is not valid UTF-8: %q", got)
			}
		})
	}
}
