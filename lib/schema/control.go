// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"time"
)

// ControlCommand is published on a control channel to start a reply
// round. Components answer on ReplyTo.
type ControlCommand struct {
	RoundID string `json:"round_id"`
	Command string `json:"command"`

	// Target is the selector as addressed: "all", a class, or an id.
	Target string `json:"target"`

	ReplyTo  string          `json:"reply_to"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	IssuedAt time.Time       `json:"issued_at"`
}

// ControlReply is one component's answer to a ControlCommand.
type ControlReply struct {
	RoundID     string         `json:"round_id"`
	ComponentID string         `json:"component_id"`
	Class       ComponentClass `json:"class,omitempty"`
	Command     string         `json:"command"`
	Success     bool           `json:"success"`
	Status      string         `json:"status,omitempty"`
	Error       string         `json:"error,omitempty"`

	// Data is the command-specific body: a status document for status,
	// list and report, empty for ping and the control commands.
	Data json.RawMessage `json:"data,omitempty"`
}
