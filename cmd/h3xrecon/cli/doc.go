// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework of the h3xrecon binary.
//
// A [Command] tree is dispatched by name. Leaf commands declare their
// flags with a params struct (see [BindFlags]) and run with a context
// and a logger. [Environment] carries what every command shares: the
// global flags, standard streams, the loaded configuration, lazily
// opened backends, and the persisted session holding the active
// program.
//
// Errors returned by commands are mapped to exit codes in one place,
// [ExitCode]. Library sentinels keep their meaning; the CLI never
// inspects error text.
package cli
