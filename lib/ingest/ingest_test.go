// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/h3xrecon/h3xrecon/lib/bus"
	"github.com/h3xrecon/h3xrecon/lib/schema"
	"github.com/h3xrecon/h3xrecon/lib/store"
)

const dataKey = "h3x:stream:RECON_DATA"

var acme = store.Program{ID: 7, Name: "acme"}

func newSubmitter(t *testing.T) (*Submitter, *bus.Memory) {
	t.Helper()
	memory := bus.NewMemory()
	t.Cleanup(func() { memory.Close() })
	return NewSubmitter(memory, bus.Keyspace{Prefix: "h3x"}, nil), memory
}

func readMessages(t *testing.T, memory *bus.Memory) []map[string]any {
	t.Helper()
	entries, err := memory.Range(context.Background(), dataKey, 100)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	var messages []map[string]any
	for _, entry := range entries {
		var message map[string]any
		if err := json.Unmarshal(entry.Payload, &message); err != nil {
			t.Fatalf("decoding %s: %v", entry.Payload, err)
		}
		messages = append(messages, message)
	}
	return messages
}

func TestAdd_Domains(t *testing.T) {
	submitter, memory := newSubmitter(t)

	submission, err := submitter.Add(context.Background(), acme, schema.DataDomain,
		[]string{"WWW.Acme.com.", "", "api.acme.com", "www.acme.com", "bad domain"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if want := []string{"www.acme.com", "api.acme.com"}; !slices.Equal(submission.Accepted, want) {
		t.Errorf("accepted: got %v, want %v", submission.Accepted, want)
	}
	if !slices.Equal(submission.Invalid, []string{"bad domain"}) {
		t.Errorf("invalid: got %v", submission.Invalid)
	}

	messages := readMessages(t, memory)
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want one batch", len(messages))
	}
	message := messages[0]
	if message["program_id"] != float64(7) || message["data_type"] != "domain" {
		t.Errorf("message header: got %v", message)
	}
	if _, hasAction := message["action"]; hasAction {
		t.Error("additions carry no action")
	}
	if data := message["data"].([]any); len(data) != 2 || data[0] != "www.acme.com" {
		t.Errorf("data: got %v", data)
	}
}

func TestAdd_URLsAreWrapped(t *testing.T) {
	submitter, memory := newSubmitter(t)

	_, err := submitter.Add(context.Background(), acme, schema.DataURL, []string{"https://acme.com/login", "ftp://acme.com"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	data := readMessages(t, memory)[0]["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("data: got %v", data)
	}
	if object, ok := data[0].(map[string]any); !ok || object["url"] != "https://acme.com/login" {
		t.Errorf("url item should be an object, got %#v", data[0])
	}
}

func TestRemove_OneMessagePerItem(t *testing.T) {
	submitter, memory := newSubmitter(t)

	submission, err := submitter.Remove(context.Background(), acme, schema.DataIP, []string{"10.0.0.1", "2001:DB8::1"})
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(submission.MessageIDs) != 2 {
		t.Errorf("message ids: got %v", submission.MessageIDs)
	}
	messages := readMessages(t, memory)
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	for _, message := range messages {
		if message["action"] != "delete" {
			t.Errorf("action: got %v", message["action"])
		}
	}
	if data := messages[1]["data"].([]any); data[0] != "2001:db8::1" {
		t.Errorf("ip should be canonical, got %v", data[0])
	}
}

func TestSubmit_Invalid(t *testing.T) {
	submitter, memory := newSubmitter(t)
	ctx := context.Background()

	if _, err := submitter.Add(ctx, acme, "certificate", []string{"x"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("unknown data type: got %v", err)
	}
	if _, err := submitter.Add(ctx, store.Program{Name: "ghost"}, schema.DataIP, []string{"10.0.0.1"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("program without id: got %v", err)
	}
	if _, err := submitter.Add(ctx, acme, schema.DataIP, []string{"not-an-ip", " "}); !errors.Is(err, ErrInvalid) {
		t.Errorf("no valid items: got %v", err)
	}
	if len(readMessages(t, memory)) != 0 {
		t.Error("invalid submissions must not publish")
	}
}

func TestSubmit_TransportFailure(t *testing.T) {
	memory := bus.NewMemory()
	memory.Close()
	submitter := NewSubmitter(memory, bus.Keyspace{Prefix: "h3x"}, nil)

	_, err := submitter.Add(context.Background(), acme, schema.DataDomain, []string{"acme.com"})
	if !errors.Is(err, bus.ErrDispatchFailed) {
		t.Errorf("got %v, want ErrDispatchFailed", err)
	}
}

func TestParseDataType(t *testing.T) {
	for _, name := range []string{"domain", "IP", "url"} {
		if _, err := ParseDataType(name); err != nil {
			t.Errorf("ParseDataType(%q): %v", name, err)
		}
	}
	if _, err := ParseDataType("service"); !errors.Is(err, ErrInvalid) {
		t.Errorf("ParseDataType(service): got %v", err)
	}
}
