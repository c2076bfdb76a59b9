// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"sort"
	"time"

	"github.com/tidwall/gjson"

	"github.com/h3xrecon/h3xrecon/lib/schema"
)

// Descriptor is the normalized view of one component's status reply.
// Components of different versions report status documents with
// different shapes; Describe reads the fields it knows by path and
// ignores the rest.
type Descriptor struct {
	ID      string                `json:"id"`
	Class   schema.ComponentClass `json:"class,omitempty"`
	State   string                `json:"state"`
	Paused  bool                  `json:"paused"`
	Success bool                  `json:"success"`
	Error   string                `json:"error,omitempty"`

	CurrentFunction string `json:"current_function,omitempty"`
	CurrentTarget   string `json:"current_target,omitempty"`

	Counters map[string]int64 `json:"counters,omitempty"`
	Uptime   time.Duration    `json:"uptime,omitempty"`
}

// Describe extracts a Descriptor from reply.
func Describe(reply schema.ControlReply) Descriptor {
	descriptor := Descriptor{
		ID:      reply.ComponentID,
		Class:   reply.Class,
		Success: reply.Success,
		Error:   reply.Error,
	}
	if descriptor.Class == "" {
		descriptor.Class = schema.ClassOf(reply.ComponentID)
	}

	data := gjson.ParseBytes(reply.Data)
	descriptor.Paused = data.Get("paused").Bool()
	descriptor.CurrentFunction = data.Get("current_job.function_name").String()
	descriptor.CurrentTarget = data.Get("current_job.target").String()
	if uptime := data.Get("uptime_seconds"); uptime.Exists() {
		descriptor.Uptime = time.Duration(uptime.Float() * float64(time.Second))
	}
	data.Get("counters").ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.Number {
			if descriptor.Counters == nil {
				descriptor.Counters = make(map[string]int64)
			}
			descriptor.Counters[key.String()] = value.Int()
		}
		return true
	})

	switch state := data.Get("state").String(); {
	case state != "":
		descriptor.State = state
	case descriptor.Paused:
		descriptor.State = "paused"
	case descriptor.CurrentFunction != "":
		descriptor.State = "running"
	case reply.Status != "":
		descriptor.State = reply.Status
	case !reply.Success:
		descriptor.State = "error"
	default:
		descriptor.State = "idle"
	}
	return descriptor
}

// Descriptors describes every reply in the result, ordered by
// component id.
func (r *Result) Descriptors() []Descriptor {
	replies := r.Sorted()
	descriptors := make([]Descriptor, 0, len(replies))
	for _, reply := range replies {
		descriptors = append(descriptors, Describe(reply))
	}
	return descriptors
}

// CounterNames returns the union of counter names across descriptors,
// sorted.
func CounterNames(descriptors []Descriptor) []string {
	seen := make(map[string]bool)
	var names []string
	for _, descriptor := range descriptors {
		for name := range descriptor.Counters {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
