// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "time"

// JobRequest asks a worker to run one function against one target. It
// is appended to the worker stream.
type JobRequest struct {
	ExecutionID    string    `json:"execution_id"`
	FunctionName   string    `json:"function_name"`
	ProgramID      int64     `json:"program_id"`
	ProgramName    string    `json:"program_name"`
	Params         JobParams `json:"params"`
	Force          bool      `json:"force"`
	TriggerNewJobs bool      `json:"trigger_new_jobs"`
	SubmittedAt    time.Time `json:"submitted_at"`

	// ResponseID is set when the sender waits for responses. Workers
	// publish a [JobResponse] carrying it on the job response channel.
	ResponseID string `json:"response_id,omitempty"`
}

// JobParams holds the function arguments.
type JobParams struct {
	Target      string   `json:"target"`
	ExtraParams []string `json:"extra_params,omitempty"`
	Wordlist    string   `json:"wordlist,omitempty"`
	Mode        string   `json:"mode,omitempty"`
}

// Job response statuses. A recon worker acknowledges a job when it
// picks it up; the parsing worker reports completion once the results
// are stored.
const (
	JobAcknowledged = "acknowledged"
	JobCompleted    = "completed"
)

// JobResponse is published by a worker on the job response channel of
// a request that carried a response id.
type JobResponse struct {
	ResponseID  string `json:"response_id"`
	ComponentID string `json:"component_id"`
	Status      string `json:"status"`
	ExecutionID string `json:"execution_id,omitempty"`
}
