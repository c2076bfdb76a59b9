// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// StreamName is the operator-facing name of one of the three work
// streams.
type StreamName string

const (
	// StreamWorker carries function execution requests to workers.
	StreamWorker StreamName = "worker"

	// StreamJob carries function output to the job processors.
	StreamJob StreamName = "job"

	// StreamData carries recon data to the data processors.
	StreamData StreamName = "data"
)

var streamBusNames = map[StreamName]string{
	StreamWorker: "FUNCTION_EXECUTE",
	StreamJob:    "FUNCTION_OUTPUT",
	StreamData:   "RECON_DATA",
}

// Streams returns the known stream names in display order.
func Streams() []StreamName {
	return []StreamName{StreamWorker, StreamJob, StreamData}
}

// BusName returns the name the platform uses for the stream on the bus,
// or "" for an unknown stream.
func (s StreamName) BusName() string {
	return streamBusNames[s]
}

// Valid reports whether s is one of the known streams.
func (s StreamName) Valid() bool {
	_, ok := streamBusNames[s]
	return ok
}
