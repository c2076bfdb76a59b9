// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/h3xrecon/h3xrecon/lib/bus"
	"github.com/h3xrecon/h3xrecon/lib/cache"
	"github.com/h3xrecon/h3xrecon/lib/clock"
	"github.com/h3xrecon/h3xrecon/lib/config"
	"github.com/h3xrecon/h3xrecon/lib/dispatch"
	"github.com/h3xrecon/h3xrecon/lib/display"
	"github.com/h3xrecon/h3xrecon/lib/fleet"
	"github.com/h3xrecon/h3xrecon/lib/ingest"
	"github.com/h3xrecon/h3xrecon/lib/queue"
	"github.com/h3xrecon/h3xrecon/lib/redisclient"
	"github.com/h3xrecon/h3xrecon/lib/store"
	"github.com/h3xrecon/h3xrecon/lib/store/pgstore"
	"github.com/h3xrecon/h3xrecon/lib/store/sqlitestore"
)

// Environment is the state shared by every command of one process:
// global flags, standard streams, configuration, backends and the
// session file. Backends are opened on first use and closed by Close.
// Not safe for concurrent use; commands run one at a time.
type Environment struct {
	Globals Globals

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Clock clock.Clock

	// SessionPath is the session file. Defaults to SessionFilePath().
	SessionPath string

	// Terminal reports whether Stdout is an interactive terminal and,
	// if so, its height in lines.
	Terminal func() (interactive bool, height int)

	config     *config.Config
	configPath string
	logger     *slog.Logger
	bus        bus.Bus
	cache      *cache.Client
	store      store.Store
	closers    []io.Closer
}

// Backends replaces lazily opened backends, for tests and embedding.
// Nil fields are left to open on demand.
type Backends struct {
	Bus   bus.Bus
	Cache *cache.Client
	Store store.Store
}

// NewEnvironment returns an Environment over the given streams.
func NewEnvironment(stdin io.Reader, stdout, stderr io.Writer) *Environment {
	environment := &Environment{
		Stdin:       stdin,
		Stdout:      stdout,
		Stderr:      stderr,
		Clock:       clock.Real(),
		SessionPath: SessionFilePath(),
	}
	environment.Terminal = func() (bool, int) {
		file, ok := environment.Stdout.(*os.File)
		if !ok || !term.IsTerminal(int(file.Fd())) {
			return false, 0
		}
		_, height, err := term.GetSize(int(file.Fd()))
		if err != nil {
			return false, 0
		}
		return true, height
	}
	return environment
}

// Config returns the configuration, loading and validating it on first
// use from --config or the default locations.
func (e *Environment) Config() (*config.Config, error) {
	if e.config != nil {
		return e.config, nil
	}
	cfg, path, err := config.Load(e.Globals.ConfigPath)
	if err != nil {
		return nil, Validation("%w", err)
	}
	if err := cfg.Validate(); err != nil {
		if path == "" {
			path = "built-in defaults"
		}
		return nil, Validation("invalid configuration (%s):\n%w", path, err)
	}
	e.config = cfg
	e.configPath = path
	return cfg, nil
}

// ConfigPath returns the loaded configuration file, or "" for built-in
// defaults.
func (e *Environment) ConfigPath() string { return e.configPath }

// SetConfig installs cfg without loading a file.
func (e *Environment) SetConfig(cfg *config.Config) {
	e.config = cfg
}

// Logger returns the command logger. A configuration that cannot be
// loaded falls back to the default logging settings; the load error
// surfaces when a command needs the configuration.
func (e *Environment) Logger() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	logging := config.Default().Logging
	if cfg, err := e.Config(); err == nil {
		logging = cfg.Logging
	}
	logger, closer := NewLogger(logging, e.Globals, e.Stderr)
	e.logger = logger
	e.closers = append(e.closers, closer)
	return logger
}

// SetLogger installs logger.
func (e *Environment) SetLogger(logger *slog.Logger) {
	e.logger = logger
}

// SetBackends installs backends in place of the configured ones.
func (e *Environment) SetBackends(backends Backends) {
	if backends.Bus != nil {
		e.bus = backends.Bus
	}
	if backends.Cache != nil {
		e.cache = backends.Cache
	}
	if backends.Store != nil {
		e.store = backends.Store
	}
}

// Keyspace returns the bus keyspace of the configuration.
func (e *Environment) Keyspace() (bus.Keyspace, error) {
	cfg, err := e.Config()
	if err != nil {
		return bus.Keyspace{}, err
	}
	return bus.Keyspace{Prefix: cfg.Bus.Prefix}, nil
}

// Bus returns the message bus, connecting on first use.
func (e *Environment) Bus(ctx context.Context) (bus.Bus, error) {
	if e.bus != nil {
		return e.bus, nil
	}
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	client, err := redisclient.Open(ctx, cfg.Redis, cfg.Bus.DB)
	if err != nil {
		return nil, fmt.Errorf("%w: message bus: %w", ErrBackendUnavailable, err)
	}
	e.Logger().Debug("connected to message bus", "addresses", cfg.Redis.Addresses, "db", cfg.Bus.DB)
	redisBus := bus.NewRedis(client)
	e.bus = redisBus
	e.closers = append(e.closers, redisBus)
	return redisBus, nil
}

// Cache returns the cache client over the cache and status databases,
// connecting on first use.
func (e *Environment) Cache(ctx context.Context) (*cache.Client, error) {
	if e.cache != nil {
		return e.cache, nil
	}
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	results, err := redisclient.Open(ctx, cfg.Redis, cfg.Redis.CacheDB)
	if err != nil {
		return nil, fmt.Errorf("%w: cache database %d: %w", ErrBackendUnavailable, cfg.Redis.CacheDB, err)
	}
	status, err := redisclient.Open(ctx, cfg.Redis, cfg.Redis.StatusDB)
	if err != nil {
		results.Close()
		return nil, fmt.Errorf("%w: status database %d: %w", ErrBackendUnavailable, cfg.Redis.StatusDB, err)
	}
	e.closers = append(e.closers, results, status)
	e.cache = &cache.Client{
		Results: cache.NewRedisStore(results),
		Status:  cache.NewRedisStore(status),
	}
	return e.cache, nil
}

// Store returns the program store for the configured driver, opening
// it on first use.
func (e *Environment) Store(ctx context.Context) (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}

	var opened store.Store
	switch cfg.Database.Driver {
	case "sqlite":
		opened, err = sqlitestore.Open(ctx, cfg.Database.Path, cfg.Database.PoolSize, e.Logger())
	default:
		opened, err = pgstore.Open(ctx, cfg.Database, e.Logger())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s store: %w", ErrBackendUnavailable, cfg.Database.Driver, err)
	}
	e.store = opened
	e.closers = append(e.closers, opened)
	return opened, nil
}

// Dispatcher returns a job dispatcher over the bus and the cache, with
// the configured cooldown policy and ack timeout.
func (e *Environment) Dispatcher(ctx context.Context) (*dispatch.Dispatcher, error) {
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	keys, err := e.Keyspace()
	if err != nil {
		return nil, err
	}
	transport, err := e.Bus(ctx)
	if err != nil {
		return nil, err
	}
	cacheClient, err := e.Cache(ctx)
	if err != nil {
		return nil, err
	}
	return dispatch.New(dispatch.Config{
		Bus:        transport,
		Keyspace:   keys,
		Cache:      cacheClient,
		Policy:     cfg.Jobs,
		AckTimeout: cfg.Jobs.AckTimeout.Std(),
		Clock:      e.Clock,
		Logger:     e.Logger(),
	}), nil
}

// Fleet returns a fleet controller with the configured reply window.
func (e *Environment) Fleet(ctx context.Context) (*fleet.Controller, error) {
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	keys, err := e.Keyspace()
	if err != nil {
		return nil, err
	}
	transport, err := e.Bus(ctx)
	if err != nil {
		return nil, err
	}
	return fleet.New(fleet.Config{
		Bus:      transport,
		Keyspace: keys,
		Clock:    e.Clock,
		Logger:   e.Logger(),
		Timeout:  cfg.Fleet.Timeout.Std(),
	}), nil
}

// Queue returns a queue inspector.
func (e *Environment) Queue(ctx context.Context) (*queue.Inspector, error) {
	keys, err := e.Keyspace()
	if err != nil {
		return nil, err
	}
	transport, err := e.Bus(ctx)
	if err != nil {
		return nil, err
	}
	return queue.NewInspector(transport, keys, e.Logger()), nil
}

// Ingest returns a recon data submitter.
func (e *Environment) Ingest(ctx context.Context) (*ingest.Submitter, error) {
	keys, err := e.Keyspace()
	if err != nil {
		return nil, err
	}
	transport, err := e.Bus(ctx)
	if err != nil {
		return nil, err
	}
	return ingest.NewSubmitter(transport, keys, e.Logger()), nil
}

// Session reads the session file.
func (e *Environment) Session() (Session, error) {
	return LoadSessionFrom(e.SessionPath)
}

// SaveSession writes the session file.
func (e *Environment) SaveSession(session Session) error {
	return SaveSessionTo(session, e.SessionPath)
}

// ResolveProgram returns the program name a command operates on: the
// explicit argument, else --program, else the active session program.
func (e *Environment) ResolveProgram(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if e.Globals.Program != "" {
		return e.Globals.Program, nil
	}
	session, err := e.Session()
	if err != nil {
		return "", err
	}
	if session.ActiveProgram == "" {
		return "", ErrNoActiveProgram
	}
	return session.ActiveProgram, nil
}

// Program resolves the program name as ResolveProgram does and looks it
// up in the store.
func (e *Environment) Program(ctx context.Context, explicit string) (store.Program, error) {
	name, err := e.ResolveProgram(explicit)
	if err != nil {
		return store.Program{}, err
	}
	programs, err := e.Store(ctx)
	if err != nil {
		return store.Program{}, err
	}
	return programs.Program(ctx, name)
}

// Output returns the display output for Stdout. Paging is enabled only
// on an interactive terminal without --no-pager.
func (e *Environment) Output() display.Output {
	interactive, height := false, 0
	if e.Terminal != nil {
		interactive, height = e.Terminal()
	}
	return display.Output{
		In:       e.Stdin,
		Out:      e.Stdout,
		Paginate: interactive && !e.Globals.NoPager,
		Height:   height,
	}
}

// CommandContext bounds ctx by --timeout when one is set.
func (e *Environment) CommandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Globals.Timeout > 0 {
		return context.WithTimeout(ctx, e.Globals.Timeout)
	}
	return context.WithCancel(ctx)
}

// Close closes every backend opened by the environment, in reverse
// order of opening.
func (e *Environment) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	e.bus, e.cache, e.store = nil, nil, nil
	return errors.Join(errs...)
}
