// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the JSON messages the control plane exchanges
// with the platform's workers and processors, and the names that tie
// them to the bus.
//
//   - [JobRequest] on the worker stream
//   - [DataMessage] on the data stream
//   - [ControlCommand] and [ControlReply] on the fleet control channels
//   - [StreamName] and [ComponentClass] with their parsers
//
// This package depends on no other h3xrecon packages.
package schema
