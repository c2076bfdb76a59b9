// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package ingest submits manually supplied assets to the platform's data
// stream, where the data processors add them to (or remove them from) a
// program's inventory.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"net/url"
	"strings"

	"github.com/h3xrecon/h3xrecon/lib/bus"
	"github.com/h3xrecon/h3xrecon/lib/schema"
	"github.com/h3xrecon/h3xrecon/lib/store"
)

// ErrInvalid is returned for an unknown data type, a program without an
// id, or a submission with no valid items.
var ErrInvalid = errors.New("ingest: invalid submission")

// Submission reports what was published.
type Submission struct {
	Program  string          `json:"program"`
	DataType schema.DataType `json:"data_type"`
	Action   string          `json:"action"`

	// Accepted lists the items published, in input order.
	Accepted []string `json:"accepted"`

	// Invalid lists items skipped by validation.
	Invalid []string `json:"invalid,omitempty"`

	// MessageIDs holds the stream entry ids appended.
	MessageIDs []string `json:"message_ids"`
}

// Submitter appends DataMessages to the data stream.
type Submitter struct {
	bus    bus.Bus
	stream string
	logger *slog.Logger
}

// NewSubmitter returns a Submitter writing to the data stream of keys.
// A nil logger discards.
func NewSubmitter(transport bus.Bus, keys bus.Keyspace, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Submitter{
		bus:    transport,
		stream: keys.Stream(schema.StreamData.BusName()),
		logger: logger,
	}
}

// ParseDataType validates a data type name.
func ParseDataType(name string) (schema.DataType, error) {
	switch dataType := schema.DataType(strings.ToLower(name)); dataType {
	case schema.DataDomain, schema.DataIP, schema.DataURL:
		return dataType, nil
	default:
		return "", fmt.Errorf("%w: unknown data type %q (want domain, ip or url)", ErrInvalid, name)
	}
}

// Add publishes items for addition to program in a single message.
func (s *Submitter) Add(ctx context.Context, program store.Program, dataType schema.DataType, items []string) (Submission, error) {
	submission, err := s.prepare(program, dataType, "add", items)
	if err != nil {
		return submission, err
	}

	data := make([]any, 0, len(submission.Accepted))
	for _, item := range submission.Accepted {
		if dataType == schema.DataURL {
			data = append(data, map[string]string{"url": item})
		} else {
			data = append(data, item)
		}
	}
	id, err := s.append(ctx, schema.DataMessage{ProgramID: program.ID, DataType: dataType, Data: data})
	if err != nil {
		return submission, err
	}
	submission.MessageIDs = append(submission.MessageIDs, id)
	s.logger.Info("assets submitted", "program", program.Name, "data_type", string(dataType), "count", len(data))
	return submission, nil
}

// Remove publishes one removal message per item. A transport failure
// stops the batch; MessageIDs holds what was appended before it.
func (s *Submitter) Remove(ctx context.Context, program store.Program, dataType schema.DataType, items []string) (Submission, error) {
	submission, err := s.prepare(program, dataType, schema.ActionDelete, items)
	if err != nil {
		return submission, err
	}

	for _, item := range submission.Accepted {
		id, err := s.append(ctx, schema.DataMessage{
			ProgramID: program.ID,
			DataType:  dataType,
			Action:    schema.ActionDelete,
			Data:      []any{item},
		})
		if err != nil {
			return submission, err
		}
		submission.MessageIDs = append(submission.MessageIDs, id)
	}
	s.logger.Info("asset removals submitted", "program", program.Name, "data_type", string(dataType), "count", len(submission.MessageIDs))
	return submission, nil
}

func (s *Submitter) prepare(program store.Program, dataType schema.DataType, action string, items []string) (Submission, error) {
	submission := Submission{Program: program.Name, DataType: dataType, Action: action}
	if _, err := ParseDataType(string(dataType)); err != nil {
		return submission, err
	}
	if program.ID <= 0 {
		return submission, fmt.Errorf("%w: program %q has no id", ErrInvalid, program.Name)
	}

	seen := make(map[string]bool, len(items))
	for _, raw := range items {
		item := strings.TrimSpace(raw)
		if item == "" {
			continue
		}
		normalized, ok := normalize(dataType, item)
		if !ok {
			submission.Invalid = append(submission.Invalid, item)
			continue
		}
		if !seen[normalized] {
			seen[normalized] = true
			submission.Accepted = append(submission.Accepted, normalized)
		}
	}
	if len(submission.Accepted) == 0 {
		return submission, fmt.Errorf("%w: no valid %s items", ErrInvalid, dataType)
	}
	return submission, nil
}

func (s *Submitter) append(ctx context.Context, message schema.DataMessage) (string, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("encoding data message: %w", err)
	}
	id, err := s.bus.Append(ctx, s.stream, body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", bus.ErrDispatchFailed, err)
	}
	return id, nil
}

// normalize validates one item. Domains are lowercased and lose a
// trailing dot; IPs are canonicalized; URLs need an http(s) scheme and a
// host.
func normalize(dataType schema.DataType, item string) (string, bool) {
	switch dataType {
	case schema.DataDomain:
		domain := strings.TrimSuffix(strings.ToLower(item), ".")
		if domain == "" || strings.ContainsAny(domain, " \t/:@") {
			return "", false
		}
		return domain, true
	case schema.DataIP:
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return "", false
		}
		return addr.String(), true
	case schema.DataURL:
		parsed, err := url.Parse(item)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return "", false
		}
		return item, true
	}
	return "", false
}
