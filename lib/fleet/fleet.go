// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/h3xrecon/h3xrecon/lib/bus"
	"github.com/h3xrecon/h3xrecon/lib/clock"
	"github.com/h3xrecon/h3xrecon/lib/schema"
)

// DefaultTimeout is the collection window when neither the request nor
// the Config sets one.
const DefaultTimeout = 3 * time.Second

// Config holds the dependencies of a Controller.
type Config struct {
	Bus      bus.Bus
	Keyspace bus.Keyspace
	Clock    clock.Clock
	Logger   *slog.Logger

	// Timeout is the default collection window.
	Timeout time.Duration
}

// Controller runs reply rounds. Safe for concurrent use; each round has
// its own reply channel.
type Controller struct {
	bus     bus.Bus
	keys    bus.Keyspace
	clock   clock.Clock
	logger  *slog.Logger
	timeout time.Duration
}

// New returns a Controller. A nil Clock uses the real clock and a nil
// Logger discards.
func New(cfg Config) *Controller {
	controller := &Controller{
		bus:     cfg.Bus,
		keys:    cfg.Keyspace,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
		timeout: cfg.Timeout,
	}
	if controller.clock == nil {
		controller.clock = clock.Real()
	}
	if controller.logger == nil {
		controller.logger = slog.New(slog.DiscardHandler)
	}
	if controller.timeout <= 0 {
		controller.timeout = DefaultTimeout
	}
	return controller
}

// Request describes one round.
type Request struct {
	Command  Command
	Selector Selector

	// Payload is passed through to components verbatim.
	Payload json.RawMessage

	// Timeout overrides the controller's collection window when
	// positive.
	Timeout time.Duration
}

// Result is the outcome of a round.
type Result struct {
	RoundID  string   `json:"round_id"`
	Command  Command  `json:"command"`
	Selector Selector `json:"-"`

	// Replies holds the first reply from each component, by id.
	Replies map[string]schema.ControlReply `json:"-"`

	// Missing lists explicitly selected ids that did not reply.
	Missing []string `json:"missing,omitempty"`

	// Cancelled is set when the caller's context was cancelled before
	// the window closed. Replies holds what arrived before cancellation.
	Cancelled bool `json:"cancelled,omitempty"`

	// Truncated is set when the caller's deadline closed the window
	// early. The round is otherwise complete.
	Truncated bool `json:"truncated,omitempty"`

	Elapsed time.Duration `json:"-"`
}

// NoResponders reports whether no component replied.
func (r *Result) NoResponders() bool {
	return len(r.Replies) == 0
}

// Sorted returns the replies ordered by component id.
func (r *Result) Sorted() []schema.ControlReply {
	ids := make([]string, 0, len(r.Replies))
	for id := range r.Replies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	replies := make([]schema.ControlReply, 0, len(ids))
	for _, id := range ids {
		replies = append(replies, r.Replies[id])
	}
	return replies
}

// Failed returns the replies that reported failure, ordered by
// component id.
func (r *Result) Failed() []schema.ControlReply {
	var failed []schema.ControlReply
	for _, reply := range r.Sorted() {
		if !reply.Success {
			failed = append(failed, reply)
		}
	}
	return failed
}

// Execute runs one round: subscribe to the round's reply channel,
// publish the command on every addressed control channel, and collect
// replies until the window closes, every explicitly selected id has
// replied, or ctx is cancelled.
func (c *Controller) Execute(ctx context.Context, request Request) (*Result, error) {
	if _, ok := capabilities[request.Command]; !ok {
		return nil, fmt.Errorf("%w: unknown command %q", ErrInvalidRequest, request.Command)
	}
	selector, err := resolve(request.Command, request.Selector)
	if err != nil {
		return nil, err
	}
	timeout := request.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	roundID := uuid.NewString()
	replyChannel := c.keys.Reply(roundID)
	logger := c.logger.With("round", roundID, "command", string(request.Command), "selector", selector.String())

	// Subscribe before publishing so no reply can be missed.
	subscription, err := c.bus.Subscribe(ctx, replyChannel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", bus.ErrDispatchFailed, err)
	}
	defer subscription.Close()

	start := c.clock.Now()
	for _, scope := range selector.scopes() {
		command := schema.ControlCommand{
			RoundID:  roundID,
			Command:  string(request.Command),
			Target:   scope,
			ReplyTo:  replyChannel,
			Payload:  request.Payload,
			IssuedAt: start.UTC(),
		}
		body, err := json.Marshal(command)
		if err != nil {
			return nil, fmt.Errorf("encoding control command: %w", err)
		}
		if err := c.bus.Publish(ctx, c.keys.Control(string(request.Command), scope), body); err != nil {
			return nil, fmt.Errorf("%w: %w", bus.ErrDispatchFailed, err)
		}
	}
	logger.Debug("control command published", "timeout", timeout)

	result := &Result{
		RoundID:  roundID,
		Command:  request.Command,
		Selector: selector,
		Replies:  make(map[string]schema.ControlReply),
	}
	collector := &collector{roundID: roundID, result: result, logger: logger}
	if len(selector.IDs) > 0 {
		collector.expected = make(map[string]bool, len(selector.IDs))
		for _, id := range selector.IDs {
			collector.expected[id] = true
		}
	}

	deadline := c.clock.After(timeout)
	messages := subscription.Messages()

collect:
	for !collector.complete() {
		select {
		case message, ok := <-messages:
			if !ok {
				logger.Warn("reply subscription closed before the window ended")
				break collect
			}
			collector.accept(message.Payload)

		case <-deadline:
			// Replies already delivered when the window closes still
			// count.
			collector.drain(messages)
			break collect

		case <-ctx.Done():
			collector.drain(messages)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				result.Truncated = true
			} else {
				result.Cancelled = true
			}
			break collect
		}
	}

	result.Elapsed = c.clock.Now().Sub(start)
	result.Missing = collector.missing()
	logger.Debug("round finished",
		"replies", len(result.Replies),
		"missing", len(result.Missing),
		"cancelled", result.Cancelled,
		"truncated", result.Truncated,
		"elapsed", result.Elapsed,
	)
	return result, nil
}

type collector struct {
	roundID  string
	result   *Result
	expected map[string]bool
	logger   *slog.Logger
}

func (c *collector) accept(payload []byte) {
	var reply schema.ControlReply
	if err := json.Unmarshal(payload, &reply); err != nil {
		c.logger.Debug("dropping undecodable reply", "error", err)
		return
	}
	if reply.RoundID != c.roundID {
		c.logger.Debug("dropping reply for another round", "reply_round", reply.RoundID)
		return
	}
	if reply.ComponentID == "" {
		c.logger.Debug("dropping reply without a component id")
		return
	}
	if _, duplicate := c.result.Replies[reply.ComponentID]; duplicate {
		c.logger.Debug("dropping duplicate reply", "component", reply.ComponentID)
		return
	}
	if reply.Class == "" {
		reply.Class = schema.ClassOf(reply.ComponentID)
	}
	c.result.Replies[reply.ComponentID] = reply
}

func (c *collector) drain(messages <-chan bus.Message) {
	for {
		select {
		case message, ok := <-messages:
			if !ok {
				return
			}
			c.accept(message.Payload)
		default:
			return
		}
	}
}

// complete reports whether every explicitly selected id has replied.
// Broadcast rounds are never complete before the window closes.
func (c *collector) complete() bool {
	if c.expected == nil {
		return false
	}
	for id := range c.expected {
		if _, ok := c.result.Replies[id]; !ok {
			return false
		}
	}
	return true
}

func (c *collector) missing() []string {
	var missing []string
	for _, id := range c.result.Selector.IDs {
		if _, ok := c.result.Replies[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
