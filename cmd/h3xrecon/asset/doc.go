// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package asset implements the asset commands: "list" and "show" query
// the assets recorded for a program, "add" and "del" submit manual
// changes to the recon data stream for the data processors to apply.
package asset
