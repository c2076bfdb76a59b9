// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens the local SQLite database used by the
// standalone store backend.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool with fixed pragmas and
// a versioned schema. Callers either [Pool.Take] and [Pool.Put] a
// connection directly, or run a function on a borrowed connection with
// [Pool.Do] and inside an immediate transaction with [Pool.Write].
// Connections are not safe for concurrent use.
//
// # Pragmas
//
//   - journal_mode=WAL: readers never block the writer.
//   - synchronous=NORMAL: commits survive a process crash.
//   - busy_timeout=5000: wait for the write lock instead of failing with
//     SQLITE_BUSY when two CLI invocations overlap.
//   - foreign_keys=OFF: callers delete dependent rows explicitly.
//   - temp_store=MEMORY
//
// # Schema versions
//
// [Config.Migrations] is an ordered list of scripts. The database's
// user_version records how many have been applied; [Open] applies the
// rest in one transaction on the first connection.
package sqlitepool
