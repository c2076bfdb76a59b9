// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package cache is the typed accessor over the shared key-value store.
//
// Two namespaces live in separate databases. The results namespace holds
// rate-limit entries keyed "<function>:<target>", written by the
// dispatcher after each successful publish and read before the next.
// The status namespace holds one entry per running component, keyed by
// component id and written by the components themselves; the client only
// lists and flushes it.
//
// [Store] is the raw key-value surface. [NewRedisStore] backs it with one
// Redis database and [NewMemoryStore] with a map. [Client] layers the
// entry encoding and the status-class operations on top.
package cache
