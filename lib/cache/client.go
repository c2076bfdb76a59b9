// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/h3xrecon/h3xrecon/lib/schema"
)

// StatusAll selects every component class in status operations.
const StatusAll = "all"

// ErrUnknownClass is returned for a status class that is neither a
// component class nor [StatusAll].
var ErrUnknownClass = errors.New("cache: unknown component class")

// Entry is the rate-limit record for one (function, target) pair.
type Entry struct {
	// LastDispatch is when the pair was last published to the worker
	// stream.
	LastDispatch time.Time `json:"last_dispatch"`

	// ExecutionID is the id of the job published at LastDispatch.
	ExecutionID string `json:"execution_id"`

	// Result is the cached function output, when a worker stored one.
	Result json.RawMessage `json:"result,omitempty"`
}

// Item is one raw key and value.
type Item struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// Client is the typed view over the results and status namespaces.
type Client struct {
	// Results holds rate-limit entries and cached function results.
	Results Store

	// Status holds component status entries.
	Status Store
}

// Key returns the rate-limit key of a function and target.
func Key(function, target string) string {
	return function + ":" + target
}

// LastExecution reads the rate-limit entry of function and target.
// found is false when no entry exists. A stored value that is not an
// entry is reported as an error.
func (c *Client) LastExecution(ctx context.Context, function, target string) (entry Entry, found bool, err error) {
	key := Key(function, target)
	raw, found, err := c.Results.Get(ctx, key)
	if err != nil || !found {
		return Entry{}, false, err
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return entry, true, nil
}

// RecordExecution writes or overwrites the rate-limit entry of function
// and target.
func (c *Client) RecordExecution(ctx context.Context, function, target string, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	return c.Results.Set(ctx, Key(function, target), raw)
}

// FlushResults removes every rate-limit entry and cached result.
func (c *Client) FlushResults(ctx context.Context) error {
	return c.Results.Flush(ctx)
}

// ResultItems returns every key and value of the results namespace,
// sorted by key.
func (c *Client) ResultItems(ctx context.Context) ([]Item, error) {
	return items(ctx, c.Results, "*")
}

// StatusItems returns the status entries of class, or of every class
// when class is [StatusAll].
func (c *Client) StatusItems(ctx context.Context, class string) ([]Item, error) {
	pattern, err := statusPattern(class)
	if err != nil {
		return nil, err
	}
	return items(ctx, c.Status, pattern)
}

// FlushStatus removes the status entries of class and returns how many
// were removed. [StatusAll] flushes the whole status namespace and
// reports the number of keys it held.
func (c *Client) FlushStatus(ctx context.Context, class string) (int64, error) {
	pattern, err := statusPattern(class)
	if err != nil {
		return 0, err
	}
	keys, err := c.Status.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}
	if class == StatusAll {
		if err := c.Status.Flush(ctx); err != nil {
			return 0, err
		}
		return int64(len(keys)), nil
	}
	return c.Status.Delete(ctx, keys...)
}

func statusPattern(class string) (string, error) {
	if class == StatusAll {
		return "*", nil
	}
	parsed, ok := schema.ParseClass(class)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	return string(parsed) + "-*", nil
}

func items(ctx context.Context, store Store, pattern string) ([]Item, error) {
	keys, err := store.Keys(ctx, pattern)
	if err != nil {
		return nil, err
	}
	result := make([]Item, 0, len(keys))
	for _, key := range keys {
		value, found, err := store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		// Expired or deleted between SCAN and GET.
		if !found {
			continue
		}
		result = append(result, Item{Key: key, Value: value})
	}
	return result, nil
}

// summaryLimit bounds the length of non-JSON values in summaries.
const summaryLimit = 80

// Summarize renders value on one line. Rate-limit entries show their
// dispatch time and execution id; status entries their state; other
// JSON objects their top-level keys; anything else is truncated text.
func Summarize(value []byte) string {
	if !gjson.ValidBytes(value) {
		return truncate(string(value))
	}
	parsed := gjson.ParseBytes(value)
	if !parsed.IsObject() {
		return truncate(parsed.String())
	}

	if last := parsed.Get("last_dispatch"); last.Exists() {
		summary := "last_dispatch=" + last.String()
		if id := parsed.Get("execution_id"); id.Exists() {
			summary += " execution_id=" + id.String()
		}
		if parsed.Get("result").Exists() {
			summary += " result=cached"
		}
		return summary
	}
	if state := parsed.Get("state"); state.Exists() {
		summary := "state=" + state.String()
		if job := parsed.Get("current_job.function_name"); job.Exists() {
			summary += " job=" + job.String()
		}
		return summary
	}

	var keys []string
	parsed.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return "{" + strings.Join(keys, ", ") + "}"
}

func truncate(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) <= summaryLimit {
		return text
	}
	cut := summaryLimit - 3
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
