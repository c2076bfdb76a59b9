// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package store defines the program, scope and asset store used by the
// CLI and the two backends that implement it.
//
// A program is a named, isolated target scope. Its scope patterns are
// regular expressions matched against discovered hostnames; its CIDR
// entries bound the address space. Both are sets: adding an existing
// entry reports added=false and changes nothing, deleting a missing
// entry reports removed=false.
//
// Asset rows (domains, ips, urls, services, nuclei findings,
// certificates) are written by the platform's data processors. The
// store only reads them, and removes them wholesale with
// [Store.DropAssets] or when their program is deleted.
//
// Every operation names its program explicitly. The package never
// consults session state.
//
// Backends:
//   - pgstore queries the platform's Postgres database through gorm.
//   - sqlitestore keeps a local SQLite database with the same tables,
//     for standalone use and for tests.
//
// The storetest package holds the conformance suite. sqlitestore runs
// it; pgstore needs a platform database, so only its helpers are unit
// tested.
package store
