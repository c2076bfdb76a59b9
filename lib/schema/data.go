// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// DataType names the kind of asset carried by a DataMessage.
type DataType string

const (
	DataDomain DataType = "domain"
	DataIP     DataType = "ip"
	DataURL    DataType = "url"
)

// ActionDelete marks a DataMessage as a removal.
const ActionDelete = "delete"

// DataMessage is appended to the data stream to add or remove assets
// outside of a function run.
type DataMessage struct {
	ProgramID int64    `json:"program_id"`
	DataType  DataType `json:"data_type"`
	Action    string   `json:"action,omitempty"`

	// Data holds plain strings for domains and IPs, and {"url": ...}
	// objects for URLs.
	Data []any `json:"data"`
}
