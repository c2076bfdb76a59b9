// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/h3xrecon/h3xrecon/lib/config"
	"github.com/h3xrecon/h3xrecon/lib/store"
	"github.com/h3xrecon/h3xrecon/lib/testutil"
)

func testEnvironment(t *testing.T) *Environment {
	t.Helper()
	directory := t.TempDir()
	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(directory, "h3xrecon.db")
	cfg.Database.PoolSize = 2
	cfg.Logging.Format = "json"

	env := NewEnvironment(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	env.SessionPath = filepath.Join(directory, "session.json")
	env.SetConfig(cfg)
	t.Cleanup(func() { env.Close() })
	return env
}

func TestEnvironment_ResolveProgram(t *testing.T) {
	env := testEnvironment(t)

	if _, err := env.ResolveProgram(""); !errors.Is(err, ErrNoActiveProgram) {
		t.Fatalf("empty session: got %v, want ErrNoActiveProgram", err)
	}

	if err := env.SaveSession(Session{ActiveProgram: "acme"}); err != nil {
		t.Fatal(err)
	}
	if got, _ := env.ResolveProgram(""); got != "acme" {
		t.Errorf("session program: got %q, want acme", got)
	}

	env.Globals.Program = "globex"
	if got, _ := env.ResolveProgram(""); got != "globex" {
		t.Errorf("--program should override the session: got %q", got)
	}
	if got, _ := env.ResolveProgram("initech"); got != "initech" {
		t.Errorf("explicit argument should win: got %q", got)
	}
}

func TestEnvironment_SQLiteStore(t *testing.T) {
	ctx := context.Background()
	env := testEnvironment(t)

	programs, err := env.Store(ctx)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	again, _ := env.Store(ctx)
	if again != programs {
		t.Error("Store should be opened once and reused")
	}
	if _, err := programs.AddProgram(ctx, "acme"); err != nil {
		t.Fatalf("AddProgram: %v", err)
	}
	if err := env.SaveSession(Session{ActiveProgram: "acme"}); err != nil {
		t.Fatal(err)
	}

	program, err := env.Program(ctx, "")
	if err != nil {
		t.Fatalf("Program: %v", err)
	}
	if program.Name != "acme" || program.ID == 0 {
		t.Errorf("program: got %+v", program)
	}

	if _, err := env.Program(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown program: got %v, want ErrNotFound", err)
	}

	if err := env.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestEnvironment_InvalidConfig(t *testing.T) {
	path := testutil.WriteFile(t, "config.yaml", "database:\n  driver: mysql\n")

	env := NewEnvironment(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	env.Globals.ConfigPath = path

	_, err := env.Config()
	if Classify(err) != CategoryValidation {
		t.Fatalf("got %v, want validation error", err)
	}
	if !strings.Contains(err.Error(), path) || !strings.Contains(err.Error(), "database.driver") {
		t.Errorf("error should name the file and the field: %v", err)
	}

	// The logger falls back to defaults instead of failing.
	if env.Logger() == nil {
		t.Error("Logger should never be nil")
	}
}

func TestEnvironment_Output(t *testing.T) {
	env := testEnvironment(t)

	env.Terminal = func() (bool, int) { return true, 40 }
	if output := env.Output(); !output.Paginate || output.Height != 40 {
		t.Errorf("terminal: got %+v, want paging at height 40", output)
	}

	env.Globals.NoPager = true
	if env.Output().Paginate {
		t.Error("--no-pager should disable paging")
	}

	env.Globals.NoPager = false
	env.Terminal = func() (bool, int) { return false, 0 }
	if env.Output().Paginate {
		t.Error("a pipe should never page")
	}
}

func TestEnvironment_CommandContext(t *testing.T) {
	env := testEnvironment(t)
	env.Globals.Timeout = time.Minute

	ctx, cancel := env.CommandContext(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) > time.Minute {
		t.Errorf("deadline: got %v, %v", deadline, ok)
	}
}
