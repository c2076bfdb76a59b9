// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch submits function execution requests to the worker
// stream, gated by the shared rate-limit cache.
//
// Before publishing, the dispatcher reads the cache entry for the
// (function, target) pair. When the entry is younger than the
// function's cooldown the request is skipped with [OutcomeRateLimited].
// Force skips the read, never the write: every successful publish
// refreshes the entry. The read and the write are separate calls, so two
// clients racing on one pair may both dispatch; workers tolerate that.
package dispatch
