// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// gormLogger routes gorm's log calls to slog. Failed queries are errors,
// slow queries warnings, and every query is a debug record at the info
// gorm level.
type gormLogger struct {
	logger        *slog.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(logger *slog.Logger, level string, slowThreshold time.Duration) gormlogger.Interface {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if slowThreshold <= 0 {
		slowThreshold = defaultSlowThreshold
	}
	return &gormLogger{
		logger:        logger,
		level:         parseLogLevel(level),
		slowThreshold: slowThreshold,
	}
}

func parseLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	copied := *l
	copied.level = level
	return &copied
}

func (l *gormLogger) Info(ctx context.Context, message string, data ...any) {
	if l.level >= gormlogger.Info {
		l.logger.InfoContext(ctx, "gorm: "+fmt.Sprintf(message, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, message string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.WarnContext(ctx, "gorm: "+fmt.Sprintf(message, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, message string, data ...any) {
	if l.level >= gormlogger.Error {
		l.logger.ErrorContext(ctx, "gorm: "+fmt.Sprintf(message, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		query, rows := fc()
		l.logger.ErrorContext(ctx, "gorm query failed",
			"elapsed", elapsed, "rows", rows, "sql", query, "error", err)
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		query, rows := fc()
		l.logger.WarnContext(ctx, "gorm slow query",
			"elapsed", elapsed, "threshold", l.slowThreshold, "rows", rows, "sql", query)
	case l.level >= gormlogger.Info:
		query, rows := fc()
		l.logger.DebugContext(ctx, "gorm query", "elapsed", elapsed, "rows", rows, "sql", query)
	}
}
