// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"fmt"
	"sync"
)

// subscriptionBuffer bounds how far a subscriber may fall behind before
// deliveries to it are dropped, as a Redis server drops slow pub/sub
// clients.
const subscriptionBuffer = 256

// Memory is an in-process Bus. Channel deliveries go to subscribers of
// the exact channel name. Streams keep entries in insertion order with
// sequential ids.
type Memory struct {
	mu          sync.Mutex
	closed      bool
	subscribers map[string]map[*memorySubscription]struct{}
	streams     map[string]*memoryStream
}

type memoryStream struct {
	entries []Message
	nextID  uint64
	groups  map[string]memoryGroup
}

type memoryGroup struct {
	consumers int64
	pending   int64
}

// NewMemory returns an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{
		subscribers: make(map[string]map[*memorySubscription]struct{}),
		streams:     make(map[string]*memoryStream),
	}
}

// Publish delivers payload to the current subscribers of channel.
func (m *Memory) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	message := Message{Channel: channel, Payload: append([]byte(nil), payload...)}
	for subscription := range m.subscribers[channel] {
		subscription.deliver(message)
	}
	return nil
}

// Subscribe registers a subscriber on channel.
func (m *Memory) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	subscription := &memorySubscription{
		bus:      m,
		channel:  channel,
		messages: make(chan Message, subscriptionBuffer),
	}
	if m.subscribers[channel] == nil {
		m.subscribers[channel] = make(map[*memorySubscription]struct{})
	}
	m.subscribers[channel][subscription] = struct{}{}
	return subscription, nil
}

// Subscribers reports how many subscriptions are open on channel.
func (m *Memory) Subscribers(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers[channel])
}

// Append adds an entry to stream.
func (m *Memory) Append(ctx context.Context, stream string, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}

	state := m.streamLocked(stream)
	state.nextID++
	id := fmt.Sprintf("%d-0", state.nextID)
	state.entries = append(state.entries, Message{ID: id, Payload: append([]byte(nil), payload...)})
	return id, nil
}

// Info describes stream.
func (m *Memory) Info(ctx context.Context, stream string) (StreamInfo, error) {
	if err := ctx.Err(); err != nil {
		return StreamInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return StreamInfo{}, ErrClosed
	}

	state, ok := m.streams[stream]
	if !ok {
		return StreamInfo{}, nil
	}
	info := StreamInfo{
		Length: int64(len(state.entries)),
		Groups: len(state.groups),
	}
	for _, group := range state.groups {
		info.Consumers += group.consumers
		info.Pending += group.pending
	}
	return info, nil
}

// Range returns up to limit entries from the head of stream.
func (m *Memory) Range(ctx context.Context, stream string, limit int) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	state, ok := m.streams[stream]
	if !ok || limit <= 0 {
		return nil, nil
	}
	count := min(limit, len(state.entries))
	result := make([]Message, count)
	copy(result, state.entries[:count])
	return result, nil
}

// Trim empties stream and returns the number of entries removed.
func (m *Memory) Trim(ctx context.Context, stream string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}

	state, ok := m.streams[stream]
	if !ok {
		return 0, nil
	}
	removed := int64(len(state.entries))
	state.entries = nil
	return removed, nil
}

// SetGroup records a consumer group on stream, creating the stream if
// needed. It stands in for components joining the group with
// XGROUP CREATE when simulating a deployment.
func (m *Memory) SetGroup(stream, group string, consumers, pending int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamLocked(stream).groups[group] = memoryGroup{consumers: consumers, pending: pending}
}

// Close closes every subscription. Further operations return ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for channel, subscriptions := range m.subscribers {
		for subscription := range subscriptions {
			subscription.closeLocked()
		}
		delete(m.subscribers, channel)
	}
	return nil
}

func (m *Memory) streamLocked(stream string) *memoryStream {
	state, ok := m.streams[stream]
	if !ok {
		state = &memoryStream{groups: make(map[string]memoryGroup)}
		m.streams[stream] = state
	}
	return state
}

type memorySubscription struct {
	bus      *Memory
	channel  string
	messages chan Message
	closed   bool
}

func (s *memorySubscription) Messages() <-chan Message { return s.messages }

// deliver is called with the bus lock held.
func (s *memorySubscription) deliver(message Message) {
	if s.closed {
		return
	}
	select {
	case s.messages <- message:
	default:
	}
}

func (s *memorySubscription) Close() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if subscriptions, ok := s.bus.subscribers[s.channel]; ok {
		delete(subscriptions, s)
		if len(subscriptions) == 0 {
			delete(s.bus.subscribers, s.channel)
		}
	}
	s.closeLocked()
	return nil
}

func (s *memorySubscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.messages)
}
