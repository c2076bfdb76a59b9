// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the h3xrecon client configuration.
//
// The file is YAML. [Resolve] picks the path: an explicit --config
// value, then the H3XRECON_CONFIG environment variable, then
// $XDG_CONFIG_HOME/h3xrecon/config.yaml, then the legacy
// ~/.h3xrecon/config.json written by older clients. When none exists
// the built-in [Default] is used unchanged.
//
// Legacy JSON files may carry comments and trailing commas; they are
// normalized with jsonc before decoding, and since JSON is a subset of
// YAML the same decoder handles both.
//
// After decoding, ${VAR} and ${VAR:-default} references in secrets and
// paths are expanded from the environment. No other environment
// variable overrides a configured value.
//
// Key exports:
//
//   - [Config] with Redis, Bus, Database, Fleet, Jobs, Queue, Logging
//   - [Default], [Resolve], [LoadFile], [Load]
//   - [Duration], a time.Duration that decodes from "3s"-style strings
package config
