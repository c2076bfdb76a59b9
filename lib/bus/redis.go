// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// payloadField is the stream entry field carrying the message body.
const payloadField = "data"

// Redis is a Bus over one Redis client. Streams use XADD, XINFO,
// XRANGE and XTRIM. Channels use PUBLISH and SUBSCRIBE.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis wraps client. The Redis value does not own the client until
// Close is called, which closes it.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", channel, err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	pubsub := r.client.Subscribe(ctx, channel)
	// Receive blocks until the server confirms the subscription, so a
	// publish issued after Subscribe returns is delivered.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", channel, err)
	}

	subscription := &redisSubscription{
		pubsub:   pubsub,
		messages: make(chan Message, subscriptionBuffer),
		done:     make(chan struct{}),
	}
	go subscription.forward(pubsub.Channel())
	return subscription, nil
}

func (r *Redis) Append(ctx context.Context, stream string, payload []byte) (string, error) {
	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{payloadField: payload},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("appending to %s: %w", stream, err)
	}
	return id, nil
}

func (r *Redis) Info(ctx context.Context, stream string) (StreamInfo, error) {
	length, err := r.client.XLen(ctx, stream).Result()
	if err != nil {
		return StreamInfo{}, fmt.Errorf("reading length of %s: %w", stream, err)
	}

	groups, err := r.client.XInfoGroups(ctx, stream).Result()
	if err != nil {
		if isNoSuchKey(err) {
			return StreamInfo{Length: length}, nil
		}
		return StreamInfo{}, fmt.Errorf("reading groups of %s: %w", stream, err)
	}

	info := StreamInfo{Length: length, Groups: len(groups)}
	for _, group := range groups {
		info.Consumers += group.Consumers
		info.Pending += group.Pending
	}
	return info, nil
}

func (r *Redis) Range(ctx context.Context, stream string, limit int) ([]Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	entries, err := r.client.XRangeN(ctx, stream, "-", "+", int64(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", stream, err)
	}

	messages := make([]Message, 0, len(entries))
	for _, entry := range entries {
		messages = append(messages, Message{ID: entry.ID, Payload: entryPayload(entry.Values)})
	}
	return messages, nil
}

func (r *Redis) Trim(ctx context.Context, stream string) (int64, error) {
	removed, err := r.client.XTrimMaxLen(ctx, stream, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("trimming %s: %w", stream, err)
	}
	return removed, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// entryPayload extracts the body of a stream entry. Entries written by
// other producers may lack the data field; those are rendered as the
// JSON object of all their fields so they remain inspectable.
func entryPayload(values map[string]any) []byte {
	if raw, ok := values[payloadField]; ok {
		switch value := raw.(type) {
		case string:
			return []byte(value)
		case []byte:
			return value
		}
	}

	var builder strings.Builder
	builder.WriteByte('{')
	first := true
	for key, value := range values {
		if !first {
			builder.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&builder, "%q:%q", key, fmt.Sprint(value))
	}
	builder.WriteByte('}')
	return []byte(builder.String())
}

func isNoSuchKey(err error) bool {
	if errors.Is(err, redis.Nil) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such key")
}

type redisSubscription struct {
	pubsub    *redis.PubSub
	messages  chan Message
	done      chan struct{}
	closeOnce sync.Once
}

func (s *redisSubscription) Messages() <-chan Message { return s.messages }

func (s *redisSubscription) forward(source <-chan *redis.Message) {
	defer close(s.messages)
	for {
		select {
		case <-s.done:
			return
		case message, ok := <-source:
			if !ok {
				return
			}
			select {
			case s.messages <- Message{Channel: message.Channel, Payload: []byte(message.Payload)}:
			case <-s.done:
				return
			}
		}
	}
}

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}
