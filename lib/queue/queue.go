// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package queue inspects and flushes the platform's work streams.
//
// Streams are named by their operator-facing names (worker, job, data)
// and mapped to bus stream keys through the configured keyspace. An
// empty or never-written stream is a zero result, not an error.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/h3xrecon/h3xrecon/lib/bus"
	"github.com/h3xrecon/h3xrecon/lib/schema"
)

// ErrUnknownStream is returned for a stream name other than worker, job
// or data.
var ErrUnknownStream = errors.New("queue: unknown stream")

// DefaultLimit is the page size of Messages when none is given.
const DefaultLimit = 20

// Snapshot describes one stream.
type Snapshot struct {
	Stream    schema.StreamName `json:"stream"`
	Key       string            `json:"key"`
	Depth     int64             `json:"depth"`
	Consumers int64             `json:"consumers"`
	Groups    int               `json:"groups"`
	Pending   int64             `json:"pending"`
}

// Entry is one message body read from a stream.
type Entry struct {
	ID   string          `json:"id"`
	Body json.RawMessage `json:"body"`
}

// Inspector reads and flushes streams on a bus.
type Inspector struct {
	bus    bus.Bus
	keys   bus.Keyspace
	logger *slog.Logger
}

// NewInspector returns an Inspector. A nil logger discards.
func NewInspector(transport bus.Bus, keys bus.Keyspace, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Inspector{bus: transport, keys: keys, logger: logger}
}

// ParseStream validates an operator-facing stream name.
func ParseStream(name string) (schema.StreamName, error) {
	stream := schema.StreamName(name)
	if !stream.Valid() {
		return "", fmt.Errorf("%w: %q (want one of worker, job, data)", ErrUnknownStream, name)
	}
	return stream, nil
}

func (i *Inspector) key(stream schema.StreamName) (string, error) {
	if !stream.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStream, stream)
	}
	return i.keys.Stream(stream.BusName()), nil
}

// Show returns the depth and consumer-group counts of stream.
func (i *Inspector) Show(ctx context.Context, stream schema.StreamName) (Snapshot, error) {
	key, err := i.key(stream)
	if err != nil {
		return Snapshot{}, err
	}
	info, err := i.bus.Info(ctx, key)
	if err != nil {
		return Snapshot{}, fmt.Errorf("inspecting %s stream: %w", stream, err)
	}
	return Snapshot{
		Stream:    stream,
		Key:       key,
		Depth:     info.Length,
		Consumers: info.Consumers,
		Groups:    info.Groups,
		Pending:   info.Pending,
	}, nil
}

// ShowAll returns a snapshot of every stream in display order.
func (i *Inspector) ShowAll(ctx context.Context) ([]Snapshot, error) {
	var snapshots []Snapshot
	for _, stream := range schema.Streams() {
		snapshot, err := i.Show(ctx, stream)
		if err != nil {
			return snapshots, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// Messages returns up to limit message bodies from the head of stream,
// oldest first, without removing them. A limit of zero or less uses
// DefaultLimit. Bodies that are not JSON are returned as JSON strings.
func (i *Inspector) Messages(ctx context.Context, stream schema.StreamName, limit int) ([]Entry, error) {
	key, err := i.key(stream)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	messages, err := i.bus.Range(ctx, key, limit)
	if err != nil {
		return nil, fmt.Errorf("reading %s stream: %w", stream, err)
	}

	entries := make([]Entry, 0, len(messages))
	for _, message := range messages {
		body := json.RawMessage(message.Payload)
		if !json.Valid(body) {
			quoted, _ := json.Marshal(string(message.Payload))
			body = quoted
		}
		entries = append(entries, Entry{ID: message.ID, Body: body})
	}
	return entries, nil
}

// Flush removes every message from stream and returns the count
// removed. Consumer groups are kept.
func (i *Inspector) Flush(ctx context.Context, stream schema.StreamName) (int64, error) {
	key, err := i.key(stream)
	if err != nil {
		return 0, err
	}
	removed, err := i.bus.Trim(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("flushing %s stream: %w", stream, err)
	}
	i.logger.Info("stream flushed", "stream", string(stream), "key", key, "removed", removed)
	return removed, nil
}
