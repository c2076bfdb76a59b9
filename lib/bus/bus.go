// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"errors"
)

// ErrDispatchFailed marks a failure to hand a message to the bus.
// Callers wrap transport errors with it so that the CLI can report
// transport failures distinctly:
//
//	return fmt.Errorf("%w: %w", bus.ErrDispatchFailed, err)
var ErrDispatchFailed = errors.New("bus: dispatch failed")

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("bus: closed")

// Message is one stream entry or one channel delivery.
type Message struct {
	// ID is the stream entry id. Empty for channel deliveries.
	ID string `json:"id,omitempty"`

	// Channel is the channel the message arrived on. Empty for stream
	// entries.
	Channel string `json:"channel,omitempty"`

	Payload []byte `json:"payload"`
}

// StreamInfo is a point-in-time view of one stream.
type StreamInfo struct {
	// Length is the number of entries currently in the stream.
	Length int64 `json:"length"`

	// Groups is the number of consumer groups.
	Groups int `json:"groups"`

	// Consumers is the consumer count summed over all groups.
	Consumers int64 `json:"consumers"`

	// Pending is the delivered-but-unacknowledged count summed over all
	// groups.
	Pending int64 `json:"pending"`
}

// Subscription delivers messages published on one channel until
// closed. Messages is closed after Close returns or when the underlying
// connection ends.
type Subscription interface {
	Messages() <-chan Message
	Close() error
}

// Bus is the transport used by the queue inspector, the dispatcher,
// the data submitter and the fleet controller.
type Bus interface {
	// Publish sends payload to every current subscriber of channel.
	Publish(ctx context.Context, channel string, payload []byte) error

	// Subscribe starts delivery for channel. The subscription is active
	// when Subscribe returns, so a Publish issued afterwards is never
	// missed.
	Subscribe(ctx context.Context, channel string) (Subscription, error)

	// Append adds payload to stream and returns the entry id.
	Append(ctx context.Context, stream string, payload []byte) (string, error)

	// Info describes stream. A stream that does not exist is empty.
	Info(ctx context.Context, stream string) (StreamInfo, error)

	// Range returns up to limit entries from the head of stream without
	// removing them.
	Range(ctx context.Context, stream string, limit int) ([]Message, error)

	// Trim removes every entry of stream and returns the count removed.
	// Consumer groups are kept.
	Trim(ctx context.Context, stream string) (int64, error)

	Close() error
}
