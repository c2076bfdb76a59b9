// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package clitest builds a [cli.Environment] over in-process backends
// for command tests: the memory bus, memory cache stores, a SQLite
// store in a temporary directory and a fake clock.
package clitest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/bus"
	"github.com/h3xrecon/h3xrecon/lib/cache"
	"github.com/h3xrecon/h3xrecon/lib/clock"
	"github.com/h3xrecon/h3xrecon/lib/config"
	"github.com/h3xrecon/h3xrecon/lib/store/sqlitestore"
)

// Epoch is the initial time of the fake clock.
var Epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Harness is an environment with its backends exposed for assertions.
type Harness struct {
	Env    *cli.Environment
	Stdin  *bytes.Buffer
	Stdout *bytes.Buffer
	Stderr *bytes.Buffer

	Config *config.Config
	Bus    *bus.Memory
	Cache  *cache.Client
	Store  *sqlitestore.Store
	Clock  *clock.FakeClock
}

// New returns a Harness whose environment never touches the network or
// the user's configuration. The session file lives in t.TempDir().
func New(t *testing.T) *Harness {
	t.Helper()
	directory := t.TempDir()

	cfg := config.Default()
	cfg.Bus.Prefix = "h3x"
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(directory, "h3xrecon.db")
	cfg.Redis.Addresses = []string{"localhost:6379"}
	cfg.Logging.Format = "text"

	programs, err := sqlitestore.Open(context.Background(), cfg.Database.Path, 2, nil)
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}

	harness := &Harness{
		Stdin:  &bytes.Buffer{},
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		Config: cfg,
		Bus:    bus.NewMemory(),
		Cache: &cache.Client{
			Results: cache.NewMemoryStore(),
			Status:  cache.NewMemoryStore(),
		},
		Store: programs,
		Clock: clock.Fake(Epoch),
	}

	env := cli.NewEnvironment(harness.Stdin, harness.Stdout, harness.Stderr)
	env.Clock = harness.Clock
	env.SessionPath = filepath.Join(directory, "session.json")
	env.Terminal = func() (bool, int) { return false, 0 }
	env.SetConfig(cfg)
	env.SetLogger(slog.New(slog.NewTextHandler(harness.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	env.SetBackends(cli.Backends{Bus: harness.Bus, Cache: harness.Cache, Store: programs})
	harness.Env = env

	t.Cleanup(func() {
		env.Close()
		harness.Bus.Close()
		programs.Close()
	})
	return harness
}

// Run executes one command line against root and returns its stdout.
// The output buffers are reset first.
func (h *Harness) Run(t *testing.T, root *cli.Command, args ...string) (string, error) {
	t.Helper()
	return h.RunContext(context.Background(), t, root, args...)
}

// RunContext is Run under ctx.
func (h *Harness) RunContext(ctx context.Context, t *testing.T, root *cli.Command, args ...string) (string, error) {
	t.Helper()
	h.Stdout.Reset()
	h.Stderr.Reset()
	root.HelpOutput = io.Discard
	err := root.Execute(ctx, args, h.Env.Logger())
	return h.Stdout.String(), err
}

// MustRun is Run that fails the test on error.
func (h *Harness) MustRun(t *testing.T, root *cli.Command, args ...string) string {
	t.Helper()
	output, err := h.Run(t, root, args...)
	if err != nil {
		t.Fatalf("%s: %v\nstderr:\n%s", strings.Join(args, " "), err, h.Stderr.String())
	}
	return output
}

// Select makes program the active program of the session.
func (h *Harness) Select(t *testing.T, program string) {
	t.Helper()
	if err := h.Env.SaveSession(cli.Session{ActiveProgram: program}); err != nil {
		t.Fatalf("saving session: %v", err)
	}
}
