// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package display renders ordered record sequences for the terminal.
//
// Two renderers share one input, a slice of [Record]: the list view
// prints each record's key on its own line, and the detail view prints
// every field as a table built with lipgloss. Output that does not fit
// on one screen is handed to [Pager], a bubbletea program that walks
// fixed-size pages. [Paginator] holds the page arithmetic on its own so
// it can be tested without a terminal.
package display
