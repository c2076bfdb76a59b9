// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// safety valve so tests never block forever on a channel that a broken
// implementation never feeds. [RequireNoReceive] asserts silence for a
// short grace period. These are the only helpers that use wall-clock
// timeouts; everything else in the suite runs on clock.Fake.
//
// [UniqueID] generates monotonically increasing identifiers, and
// [WriteFile] drops a fixture file into the test's temporary directory.
//
// All helpers call t.Fatalf on failure.
package testutil
