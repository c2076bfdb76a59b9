// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type echoParams struct {
	JSONOutput
	Severity string `flag:"severity" desc:"severity filter"`
	Limit    int    `flag:"limit,l" desc:"row limit" default:"20"`
}

func testTree(ran *[]string, params *echoParams) *Command {
	return &Command{
		Name:       "h3xrecon",
		HelpOutput: &bytes.Buffer{},
		Subcommands: []*Command{
			{
				Name:    "system",
				Summary: "System maintenance",
				Subcommands: []*Command{
					{
						Name:    "queue",
						Summary: "Inspect queues",
						Params:  func() any { return params },
						Run: func(_ context.Context, args []string, _ *slog.Logger) error {
							*ran = append(*ran, "queue:"+strings.Join(args, ","))
							return nil
						},
					},
				},
			},
		},
	}
}

func TestExecute_Dispatch(t *testing.T) {
	var ran []string
	var params echoParams
	root := testTree(&ran, &params)

	err := root.Execute(context.Background(), []string{"system", "queue", "--severity", "high", "-l", "5", "show", "worker"}, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(ran) != 1 || ran[0] != "queue:show,worker" {
		t.Errorf("ran: got %v", ran)
	}
	if params.Severity != "high" || params.Limit != 5 {
		t.Errorf("params: got %+v", params)
	}

	// Flags are rebound on every run, so values from the previous run do
	// not leak into the next.
	if err := root.Execute(context.Background(), []string{"system", "queue"}, nil); err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if params.Severity != "" || params.Limit != 20 {
		t.Errorf("params after rerun: got %+v, want defaults", params)
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	var ran []string
	var params echoParams
	root := testTree(&ran, &params)

	err := root.Execute(context.Background(), []string{"sytem"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if Classify(err) != CategoryValidation {
		t.Errorf("category: got %s, want validation", Classify(err))
	}
	if !strings.Contains(err.Error(), `did you mean "system"`) {
		t.Errorf("missing suggestion: %v", err)
	}
}

func TestExecute_UnknownFlag(t *testing.T) {
	var ran []string
	var params echoParams
	root := testTree(&ran, &params)

	err := root.Execute(context.Background(), []string{"system", "queue", "--severty", "low"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "did you mean --severity") {
		t.Errorf("missing flag suggestion: %v", err)
	}
	if len(ran) != 0 {
		t.Errorf("Run should not be called, ran %v", ran)
	}
}

func TestExecute_SubcommandRequired(t *testing.T) {
	var ran []string
	var params echoParams
	root := testTree(&ran, &params)

	err := root.Execute(context.Background(), []string{"system"}, nil)
	var toolError *ToolError
	if !errors.As(err, &toolError) || toolError.Category != CategoryValidation {
		t.Fatalf("got %v, want validation error", err)
	}
	if !strings.Contains(err.Error(), "h3xrecon system: subcommand required") {
		t.Errorf("message: %v", err)
	}
}

func TestExecute_Help(t *testing.T) {
	var ran []string
	var params echoParams
	root := testTree(&ran, &params)
	help := root.HelpOutput.(*bytes.Buffer)

	if err := root.Execute(context.Background(), []string{"system", "queue", "--help"}, nil); err != nil {
		t.Fatalf("help should not fail: %v", err)
	}
	output := help.String()
	for _, want := range []string{"Usage:", "h3xrecon system queue", "--severity", "--json"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q:\n%s", want, output)
		}
	}
	if len(ran) != 0 {
		t.Errorf("help should not run the command, ran %v", ran)
	}
}

func TestFindAndWalk(t *testing.T) {
	var ran []string
	var params echoParams
	root := testTree(&ran, &params)

	command, rest := root.Find([]string{"system", "queue", "flush", "data"})
	if command.Name != "queue" {
		t.Errorf("Find: got %q, want queue", command.Name)
	}
	if strings.Join(rest, " ") != "flush data" {
		t.Errorf("Find rest: got %v", rest)
	}

	var paths []string
	root.Walk(func(path string, _ *Command) {
		paths = append(paths, path)
	})
	want := []string{"h3xrecon", "h3xrecon system", "h3xrecon system queue"}
	if strings.Join(paths, "|") != strings.Join(want, "|") {
		t.Errorf("Walk: got %v, want %v", paths, want)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"queue", "queue", 0},
		{"qeueu", "queue", 2},
		{"kitten", "sitting", 3},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
	if got := closest("zzzzzz", []string{"queue", "cache"}); got != "" {
		t.Errorf("closest with nothing near: got %q, want empty", got)
	}
}
