// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"testing"
	"time"
)

func TestStreamBusNames(t *testing.T) {
	tests := []struct {
		stream StreamName
		want   string
	}{
		{StreamWorker, "FUNCTION_EXECUTE"},
		{StreamJob, "FUNCTION_OUTPUT"},
		{StreamData, "RECON_DATA"},
		{"metrics", ""},
	}
	for _, test := range tests {
		if got := test.stream.BusName(); got != test.want {
			t.Errorf("%q.BusName(): got %q, want %q", test.stream, got, test.want)
		}
		if got := test.stream.Valid(); got != (test.want != "") {
			t.Errorf("%q.Valid(): got %v", test.stream, got)
		}
	}
}

func TestClassOf(t *testing.T) {
	tests := []struct {
		id   string
		want ComponentClass
	}{
		{"worker-scanner01", ClassWorker},
		{"jobprocessor-a1b2", ClassJobProcessor},
		{"dataprocessor-host-with-dashes", ClassDataProcessor},
		{"worker", ""},
		{"parser-01", ""},
	}
	for _, test := range tests {
		if got := ClassOf(test.id); got != test.want {
			t.Errorf("ClassOf(%q): got %q, want %q", test.id, got, test.want)
		}
	}
}

func TestJobRequestWireShape(t *testing.T) {
	request := JobRequest{
		ExecutionID:    "0b6f",
		FunctionName:   "resolve_domain",
		ProgramID:      7,
		ProgramName:    "acme",
		Params:         JobParams{Target: "example.com"},
		TriggerNewJobs: true,
		SubmittedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	params, ok := decoded["params"].(map[string]any)
	if !ok {
		t.Fatalf("params missing or not an object: %s", data)
	}
	if params["target"] != "example.com" {
		t.Errorf("params.target: got %v", params["target"])
	}
	if _, present := params["extra_params"]; present {
		t.Errorf("empty extra_params should be omitted: %s", data)
	}
	if decoded["function_name"] != "resolve_domain" || decoded["force"] != false {
		t.Errorf("unexpected wire form: %s", data)
	}
}
