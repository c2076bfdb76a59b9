// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/h3xrecon/h3xrecon/lib/config"
)

// NewLogger builds the command logger from the logging configuration
// and the global flags.
//
// Records go to stderr as text when stderr is a terminal and as JSON
// otherwise (logging.format overrides the choice). --debug forces the
// debug level and --quiet raises it to warn. When logging.file_path is
// set, records are also written as JSON to a rotating file, at the
// configured level regardless of --quiet. The returned closer closes
// the file; it is never nil.
func NewLogger(cfg config.LoggingConfig, globals Globals, stderr io.Writer) (*slog.Logger, io.Closer) {
	level := parseLevel(cfg.Level)
	stderrLevel := level
	switch {
	case globals.Debug:
		stderrLevel = slog.LevelDebug
	case globals.Quiet:
		stderrLevel = max(level, slog.LevelWarn)
	}

	options := &slog.HandlerOptions{Level: stderrLevel}
	var stderrHandler slog.Handler
	switch cfg.Format {
	case "text":
		stderrHandler = slog.NewTextHandler(stderr, options)
	case "json":
		stderrHandler = slog.NewJSONHandler(stderr, options)
	default:
		if isTerminal(stderr) {
			stderrHandler = slog.NewTextHandler(stderr, options)
		} else {
			stderrHandler = slog.NewJSONHandler(stderr, options)
		}
	}

	if cfg.FilePath == "" {
		return slog.New(stderrHandler), nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	fileLevel := level
	if globals.Debug {
		fileLevel = slog.LevelDebug
	}
	fileHandler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: fileLevel})
	return slog.New(fanoutHandler{stderrHandler, fileHandler}), rotator
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fanoutHandler sends each record to every handler enabled for its
// level.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithGroup(name)
	}
	return derived
}
