// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// ReadTargets reads one target per line, trimming whitespace and
// skipping blank lines and lines starting with '#'.
func ReadTargets(reader io.Reader) ([]string, error) {
	var targets []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading targets: %w", err)
	}
	return targets, nil
}

// DispatchBulk dispatches req once per target read from input, ignoring
// req.Target. Every target gets its own outcome; a failed target does
// not stop the batch. The request is validated once before reading, and
// cancellation stops the batch with the outcomes gathered so far.
func (d *Dispatcher) DispatchBulk(ctx context.Context, req Request, input io.Reader) ([]Outcome, error) {
	cooldown, err := d.check(req)
	if err != nil {
		return nil, err
	}
	targets, err := ReadTargets(input)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(targets))
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		single := req
		single.Target = target
		outcome, _ := d.dispatch(ctx, single, cooldown)
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// DispatchAll dispatches every request of reqs against every target,
// target by target, ignoring each request's Target. All requests are
// validated before anything is published, so an unknown function in
// the list sends nothing. Like [Dispatcher.DispatchBulk], failures are
// recorded per outcome and cancellation returns what was gathered.
func (d *Dispatcher) DispatchAll(ctx context.Context, reqs []Request, targets []string) ([]Outcome, error) {
	cooldowns := make([]time.Duration, len(reqs))
	for index, req := range reqs {
		cooldown, err := d.check(req)
		if err != nil {
			return nil, err
		}
		cooldowns[index] = cooldown
	}

	outcomes := make([]Outcome, 0, len(reqs)*len(targets))
	for _, target := range targets {
		for index, req := range reqs {
			if err := ctx.Err(); err != nil {
				return outcomes, err
			}
			single := req
			single.Target = target
			outcome, _ := d.dispatch(ctx, single, cooldowns[index])
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes, nil
}

// Summary counts outcomes by kind.
type Summary struct {
	Dispatched  int `json:"dispatched"`
	RateLimited int `json:"rate_limited"`
	Failed      int `json:"failed"`
}

// Summarize counts outcomes by kind.
func Summarize(outcomes []Outcome) Summary {
	var summary Summary
	for _, outcome := range outcomes {
		switch outcome.Kind {
		case OutcomeDispatched:
			summary.Dispatched++
		case OutcomeRateLimited:
			summary.RateLimited++
		default:
			summary.Failed++
		}
	}
	return summary
}
