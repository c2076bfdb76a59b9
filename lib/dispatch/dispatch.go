// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/h3xrecon/h3xrecon/lib/bus"
	"github.com/h3xrecon/h3xrecon/lib/cache"
	"github.com/h3xrecon/h3xrecon/lib/clock"
	"github.com/h3xrecon/h3xrecon/lib/schema"
	"github.com/h3xrecon/h3xrecon/lib/store"
)

var (
	// ErrInvalidRequest is returned before any network call for a
	// request missing its function or target.
	ErrInvalidRequest = errors.New("dispatch: invalid request")

	// ErrUnknownFunction is returned for a function the cooldown policy
	// does not list.
	ErrUnknownFunction = errors.New("dispatch: unknown function")
)

// BulkTarget is the target value that reads targets from input.
const BulkTarget = "-"

// Policy supplies per-function cooldowns. known is false for a function
// the platform does not run.
type Policy interface {
	Cooldown(function string) (cooldown time.Duration, known bool)
}

// Request is one function execution request.
type Request struct {
	Program  store.Program
	Function string
	Target   string

	// Params are passed to the function after the target, in order.
	Params []string

	// Force publishes even when the pair is cooling down.
	Force bool

	// Trigger lets the job processors schedule follow-up jobs from the
	// output.
	Trigger bool

	// Wordlist and Mode are forwarded to functions that take them.
	Wordlist string
	Mode     string

	// WaitAck waits after publishing for the recon worker's
	// acknowledgement and then the parsing worker's completion, each
	// within the dispatcher's ack timeout.
	WaitAck bool
}

// OutcomeKind classifies the result of one dispatch.
type OutcomeKind int

const (
	OutcomeDispatched OutcomeKind = iota
	OutcomeRateLimited
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeDispatched:
		return "dispatched"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "failed"
	}
}

// MarshalText renders the kind by name in JSON output.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Outcome is the result of dispatching one target.
type Outcome struct {
	Function string      `json:"function"`
	Target   string      `json:"target"`
	Kind     OutcomeKind `json:"outcome"`

	// ExecutionID is set for dispatched requests.
	ExecutionID string `json:"execution_id,omitempty"`

	// LastDispatch and Remaining are set for rate-limited requests.
	LastDispatch time.Time     `json:"last_dispatch,omitzero"`
	Remaining    time.Duration `json:"remaining,omitempty"`

	// Warning reports a cache write failure after a successful publish.
	Warning string `json:"warning,omitempty"`

	// Responses holds the worker responses received for a waited-for
	// request, in arrival order.
	Responses []schema.JobResponse `json:"responses,omitempty"`

	// Unacknowledged is set when a waited-for request got no response
	// before the ack timeout.
	Unacknowledged bool `json:"unacknowledged,omitempty"`

	// Err is the failure of a failed dispatch.
	Err error `json:"-"`
}

// Config configures a Dispatcher. Bus, Cache and Policy are required.
type Config struct {
	Bus      bus.Bus
	Keyspace bus.Keyspace
	Cache    *cache.Client
	Policy   Policy

	// AckTimeout bounds each response stage of a waited-for request.
	// Defaults to [DefaultAckTimeout].
	AckTimeout time.Duration

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Logger defaults to discarding.
	Logger *slog.Logger
}

// DefaultAckTimeout is the response window used when
// Config.AckTimeout is unset.
const DefaultAckTimeout = 2 * time.Minute

// responseStages is the number of responses a waited-for request can
// get: the acknowledgement and the completion.
const responseStages = 2

// Dispatcher publishes job requests to the worker stream.
type Dispatcher struct {
	bus        bus.Bus
	keys       bus.Keyspace
	stream     string
	cache      *cache.Client
	policy     Policy
	ackTimeout time.Duration
	clock      clock.Clock
	logger     *slog.Logger
}

// New returns a Dispatcher for cfg.
func New(cfg Config) *Dispatcher {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = DefaultAckTimeout
	}
	return &Dispatcher{
		bus:        cfg.Bus,
		keys:       cfg.Keyspace,
		stream:     cfg.Keyspace.Stream(schema.StreamWorker.BusName()),
		cache:      cfg.Cache,
		policy:     cfg.Policy,
		ackTimeout: cfg.AckTimeout,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
	}
}

// Dispatch submits req for its single target.
//
// A rate-limited request is not an error: the outcome carries the last
// dispatch time and the remaining cooldown. A publish failure returns an
// OutcomeFailed outcome together with an error wrapping
// [bus.ErrDispatchFailed].
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Outcome, error) {
	cooldown, err := d.check(req)
	if err != nil {
		return Outcome{}, err
	}
	if req.Target == "" || req.Target == BulkTarget {
		return Outcome{}, fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}
	return d.dispatch(ctx, req, cooldown)
}

// check validates the target-independent part of req and resolves the
// function's cooldown.
func (d *Dispatcher) check(req Request) (time.Duration, error) {
	if req.Function == "" {
		return 0, fmt.Errorf("%w: function is required", ErrInvalidRequest)
	}
	if req.Program.Name == "" {
		return 0, fmt.Errorf("%w: program is required", ErrInvalidRequest)
	}
	cooldown, known := d.policy.Cooldown(req.Function)
	if !known {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFunction, req.Function)
	}
	return cooldown, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request, cooldown time.Duration) (Outcome, error) {
	outcome := Outcome{Function: req.Function, Target: req.Target}
	now := d.clock.Now()

	if !req.Force {
		entry, found, err := d.cache.LastExecution(ctx, req.Function, req.Target)
		if err != nil {
			d.logger.Warn("rate limit cache unreadable, dispatching",
				"function", req.Function, "target", req.Target, "error", err)
		}
		if found && now.Sub(entry.LastDispatch) < cooldown {
			outcome.Kind = OutcomeRateLimited
			outcome.LastDispatch = entry.LastDispatch
			outcome.Remaining = cooldown - now.Sub(entry.LastDispatch)
			d.logger.Debug("job rate limited",
				"function", req.Function, "target", req.Target, "remaining", outcome.Remaining)
			return outcome, nil
		}
	}

	job := schema.JobRequest{
		ExecutionID:  uuid.NewString(),
		FunctionName: req.Function,
		ProgramID:    req.Program.ID,
		ProgramName:  req.Program.Name,
		Params: schema.JobParams{
			Target:      req.Target,
			ExtraParams: req.Params,
			Wordlist:    req.Wordlist,
			Mode:        req.Mode,
		},
		Force:          req.Force,
		TriggerNewJobs: req.Trigger,
		SubmittedAt:    now.UTC(),
	}

	var responses bus.Subscription
	if req.WaitAck {
		job.ResponseID = uuid.NewString()
		// Subscribe before appending so a fast acknowledgement is not
		// missed.
		subscription, err := d.bus.Subscribe(ctx, d.keys.JobResponse(job.ResponseID))
		if err != nil {
			outcome.Kind = OutcomeFailed
			outcome.Err = fmt.Errorf("%w: %w", bus.ErrDispatchFailed, err)
			return outcome, outcome.Err
		}
		defer subscription.Close()
		responses = subscription
	}

	payload, err := json.Marshal(job)
	if err != nil {
		outcome.Kind = OutcomeFailed
		outcome.Err = fmt.Errorf("encoding job request: %w", err)
		return outcome, outcome.Err
	}

	if _, err := d.bus.Append(ctx, d.stream, payload); err != nil {
		outcome.Kind = OutcomeFailed
		outcome.Err = fmt.Errorf("%w: %w", bus.ErrDispatchFailed, err)
		return outcome, outcome.Err
	}
	outcome.Kind = OutcomeDispatched
	outcome.ExecutionID = job.ExecutionID
	d.logger.Info("job dispatched",
		"function", req.Function, "target", req.Target, "program", req.Program.Name,
		"execution_id", job.ExecutionID, "force", req.Force)

	entry := cache.Entry{LastDispatch: now.UTC(), ExecutionID: job.ExecutionID}
	if err := d.cache.RecordExecution(ctx, req.Function, req.Target, entry); err != nil {
		outcome.Warning = fmt.Sprintf("rate limit entry not recorded: %v", err)
		d.logger.Warn("rate limit cache write failed",
			"function", req.Function, "target", req.Target, "error", err)
	}

	if responses != nil {
		outcome.Responses = d.awaitResponses(ctx, job.ResponseID, responses.Messages())
		outcome.Unacknowledged = len(outcome.Responses) == 0
	}
	return outcome, nil
}

// awaitResponses collects the responses to one job, giving each stage
// its own ack timeout window. It stops early when a window closes, the
// subscription ends, or ctx is cancelled.
func (d *Dispatcher) awaitResponses(ctx context.Context, responseID string, messages <-chan bus.Message) []schema.JobResponse {
	logger := d.logger.With("response_id", responseID)
	var received []schema.JobResponse

	for len(received) < responseStages {
		deadline := d.clock.After(d.ackTimeout)
	stage:
		for {
			select {
			case message, ok := <-messages:
				if !ok {
					logger.Warn("job response subscription closed")
					return received
				}
				var response schema.JobResponse
				if err := json.Unmarshal(message.Payload, &response); err != nil {
					logger.Debug("dropping undecodable job response", "error", err)
					continue
				}
				if response.ResponseID != responseID {
					logger.Debug("dropping response for another job", "other", response.ResponseID)
					continue
				}
				logger.Info("job response received",
					"component", response.ComponentID, "status", response.Status)
				received = append(received, response)
				break stage

			case <-deadline:
				logger.Warn("no job response before the ack timeout",
					"timeout", d.ackTimeout, "received", len(received))
				return received

			case <-ctx.Done():
				return received
			}
		}
	}
	return received
}
