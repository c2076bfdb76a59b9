// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/h3xrecon/h3xrecon/lib/config"
)

func TestNewLogger_FileFanout(t *testing.T) {
	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "h3xrecon.log")
	cfg := config.LoggingConfig{Level: "info", Format: "json", FilePath: path, MaxSizeMB: 1}

	logger, closer := NewLogger(cfg, Globals{Quiet: true}, &stderr)
	logger.Info("dispatched job", "function", "resolve_domain")
	logger.Warn("cache write failed", "key", "resolve_domain:example.com")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// --quiet raises only the stderr level.
	if strings.Contains(stderr.String(), "dispatched job") {
		t.Errorf("info record reached stderr with --quiet:\n%s", stderr.String())
	}
	if !strings.Contains(stderr.String(), "cache write failed") {
		t.Errorf("warn record missing from stderr:\n%s", stderr.String())
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	for _, want := range []string{`"msg":"dispatched job"`, `"function":"resolve_domain"`, `"msg":"cache write failed"`} {
		if !strings.Contains(string(contents), want) {
			t.Errorf("log file missing %s:\n%s", want, contents)
		}
	}
}

func TestNewLogger_Debug(t *testing.T) {
	var stderr bytes.Buffer
	logger, closer := NewLogger(config.LoggingConfig{Level: "warn", Format: "text"}, Globals{Debug: true}, &stderr)
	defer closer.Close()

	logger.Debug("subscribed", "channel", "h3x:control:reply:r1")
	if !strings.Contains(stderr.String(), "level=DEBUG") {
		t.Errorf("--debug should force debug level, got:\n%s", stderr.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{"debug": "DEBUG", "WARNING": "WARN", "error": "ERROR", "": "INFO", "bogus": "INFO"}
	for input, want := range tests {
		if got := parseLevel(input).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}
