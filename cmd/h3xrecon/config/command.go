// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package config implements the "config" command group: the scope
// patterns and CIDR ranges of a program, and dropping its asset data.
package config

import (
	"context"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/store"
)

// Command returns the "config" command group.
func Command(env *cli.Environment) *cli.Command {
	return &cli.Command{
		Name:    "config",
		Summary: "Manage program scope, CIDRs and data",
		Description: `Manage what belongs to a program.

Scope entries are regular expressions matched against discovered
hostnames; CIDR entries are address ranges. Commands taking [program]
use the active program (see "h3xrecon use") when it is omitted.`,
		Subcommands: []*cli.Command{
			entryCommand(env, "add", scopeKind, cidrKind),
			entryCommand(env, "del", scopeKind, cidrKind),
			entryCommand(env, "list", scopeKind, cidrKind),
			databaseCommand(env),
		},
		Examples: []cli.Example{
			{
				Description: "Add a scope pattern to acme",
				Command:     `h3xrecon config add scope acme '.*\.acme\.com'`,
			},
			{
				Description: "Add CIDRs to the active program from a file",
				Command:     "h3xrecon config add cidr - < ranges.txt",
			},
			{
				Description: "List the active program's CIDRs",
				Command:     "h3xrecon config list cidr",
			},
		},
	}
}

// entryKind binds the store operations of one kind of scope entry.
type entryKind struct {
	name   string
	plural string
	list   func(s store.Store, ctx context.Context, program string) ([]string, error)
	add    func(s store.Store, ctx context.Context, program, value string) (bool, error)
	del    func(s store.Store, ctx context.Context, program, value string) (bool, error)
}

var scopeKind = entryKind{
	name:   "scope",
	plural: "scope patterns",
	list:   store.Store.Scopes,
	add:    store.Store.AddScope,
	del:    store.Store.DeleteScope,
}

var cidrKind = entryKind{
	name:   "cidr",
	plural: "CIDRs",
	list:   store.Store.CIDRs,
	add:    store.Store.AddCIDR,
	del:    store.Store.DeleteCIDR,
}
