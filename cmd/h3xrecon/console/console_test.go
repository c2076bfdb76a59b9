// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package console_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli/clitest"
	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/commands"
	"github.com/h3xrecon/h3xrecon/lib/store"
)

func TestConsole_RunsScript(t *testing.T) {
	harness := clitest.New(t)
	root := commands.Root(harness.Env)

	harness.Stdin.WriteString(strings.Join([]string{
		"# set up a program",
		"program add acme",
		"use acme",
		`config add scope .*\.acme\.com`,
		"config list scope",
		"bogus",
		"",
		"exit",
		"program add never",
	}, "\n") + "\n")

	output := harness.MustRun(t, root, "console")

	for _, want := range []string{"Created program acme", "Using program acme", `.*\.acme\.com`} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if !strings.Contains(harness.Stderr.String(), `error: unknown command "bogus"`) {
		t.Errorf("stderr should report the unknown command:\n%s", harness.Stderr.String())
	}

	ctx := context.Background()
	if _, err := harness.Store.Program(ctx, "never"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("commands after exit must not run: got %v", err)
	}
	scopes, err := harness.Store.Scopes(ctx, "acme")
	if err != nil {
		t.Fatalf("Scopes: %v", err)
	}
	if len(scopes) != 1 || scopes[0] != `.*\.acme\.com` {
		t.Errorf("scopes: got %q", scopes)
	}
}

func TestConsole_ConfirmsDestructiveCommands(t *testing.T) {
	harness := clitest.New(t)
	root := commands.Root(harness.Env)
	ctx := context.Background()
	if _, err := harness.Store.AddProgram(ctx, "acme"); err != nil {
		t.Fatalf("AddProgram: %v", err)
	}

	harness.Stdin.WriteString("program del acme\nn\n")
	output := harness.MustRun(t, root, "console")
	if !strings.Contains(output, "Continue? [y/N]") || !strings.Contains(output, "Aborted.") {
		t.Errorf("declined deletion should be aborted:\n%s", output)
	}
	if _, err := harness.Store.Program(ctx, "acme"); err != nil {
		t.Fatalf("program should survive a declined deletion: %v", err)
	}

	harness.Stdin.WriteString("program del acme\nyes\n")
	output = harness.MustRun(t, root, "console")
	if !strings.Contains(output, "Deleted program acme") {
		t.Errorf("confirmed deletion output:\n%s", output)
	}
	if _, err := harness.Store.Program(ctx, "acme"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("program should be gone: got %v", err)
	}
}

func TestConsole_ErrorsDoNotEndSession(t *testing.T) {
	harness := clitest.New(t)
	root := commands.Root(harness.Env)

	harness.Stdin.WriteString("program del missing\ny\nsay \"unterminated\nconsole\nprogram add acme\n")
	output := harness.MustRun(t, root, "console")

	stderr := harness.Stderr.String()
	for _, want := range []string{"not found", "unterminated quote", "already in the console"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
	if !strings.Contains(output, "Created program acme") {
		t.Errorf("session should continue after errors:\n%s", output)
	}
}

func TestConsole_Help(t *testing.T) {
	harness := clitest.New(t)
	root := commands.Root(harness.Env)

	harness.Stdin.WriteString("help sendjob\nhelp nosuch\n")
	output := harness.MustRun(t, root, "console")
	if !strings.Contains(output, "sendjob") {
		t.Errorf("help output:\n%s", output)
	}
	if !strings.Contains(harness.Stderr.String(), `unknown command "nosuch"`) {
		t.Errorf("stderr:\n%s", harness.Stderr.String())
	}
}
