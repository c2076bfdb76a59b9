// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/lib/store"
)

type queryParams struct {
	cli.JSONOutput
	Resolved   bool   `flag:"resolved" desc:"only domains with addresses, or IPs with a PTR record"`
	Unresolved bool   `flag:"unresolved" desc:"only domains without addresses, or IPs without a PTR record"`
	Severity   string `flag:"severity" desc:"only nuclei findings of this severity (e.g. critical, high)"`
	Domain     string `flag:"domain,d" desc:"only dns records of this zone"`
}

// ListCommand returns "list", which prints one identifying value per
// asset.
func ListCommand(env *cli.Environment) *cli.Command {
	return queryGroup(env, "list", "List a program's assets, one per line", false)
}

// ShowCommand returns "show", which prints every attribute of each
// asset as a table.
func ShowCommand(env *cli.Environment) *cli.Command {
	return queryGroup(env, "show", "Show a program's assets with every attribute", true)
}

func queryGroup(env *cli.Environment, name, summary string, detail bool) *cli.Command {
	group := &cli.Command{
		Name:    name,
		Summary: summary,
		Description: summary + `.

The program is the [program] argument, else --program, else the active
program. Tabular output pages on a terminal; --no-pager or a pipe
writes every row.`,
	}
	names := make([]string, 0, len(assetKinds))
	for _, kind := range assetKinds {
		names = append(names, kind.name)
		group.Subcommands = append(group.Subcommands, queryCommand(env, name, kind, detail))
	}
	group.Usage = fmt.Sprintf("h3xrecon %s {%s} [program] [flags]", name, strings.Join(names, ","))
	group.Examples = []cli.Example{
		{
			Description: "Domains of the active program that resolved",
			Command:     fmt.Sprintf("h3xrecon %s domains --resolved", name),
		},
		{
			Description: "Critical nuclei findings of acme",
			Command:     fmt.Sprintf("h3xrecon %s nuclei acme --severity critical", name),
		},
		{
			Description: "DNS records of one zone",
			Command:     fmt.Sprintf("h3xrecon %s dns -d acme.com", name),
		},
	}
	return group
}

func queryCommand(env *cli.Environment, verb string, kind assetKind, detail bool) *cli.Command {
	var params queryParams

	return &cli.Command{
		Name:        kind.name,
		Summary:     fmt.Sprintf("%s %s", strings.ToUpper(verb[:1])+verb[1:], kind.name),
		Usage:       fmt.Sprintf("h3xrecon %s %s [program] [flags]", verb, kind.name),
		Params:      func() any { return &params },
		Annotations: cli.ReadOnly(),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("usage: h3xrecon %s %s [program]", verb, kind.name)
			}
			q, err := params.query(kind)
			if err != nil {
				return err
			}
			var explicit string
			if len(args) == 1 {
				explicit = args[0]
			}
			if q.program, err = env.ResolveProgram(explicit); err != nil {
				return err
			}

			programs, err := env.Store(ctx)
			if err != nil {
				return err
			}
			records, value, err := kind.fetch(ctx, programs, q)
			if err != nil {
				return err
			}
			logger.Debug("assets fetched", "kind", kind.name, "program", q.program, "rows", len(records))

			if done, err := params.EmitJSON(env.Stdout, value); done {
				return err
			}
			empty := fmt.Sprintf("No %s for %s.", kind.name, q.program)
			title := fmt.Sprintf("%s: %d %s", q.program, len(records), kind.name)
			if detail && kind.write != nil {
				if len(records) == 0 {
					_, err := fmt.Fprintln(env.Stdout, empty)
					return err
				}
				return kind.write(env.Stdout, value)
			}
			if detail {
				return env.ShowTable(ctx, title, empty, records)
			}
			return env.ShowList(ctx, "", empty, records)
		},
	}
}

// query validates the filter flags against the kind.
func (p *queryParams) query(kind assetKind) (query, error) {
	var q query
	switch {
	case p.Resolved && p.Unresolved:
		return q, cli.Validation("--resolved and --unresolved are mutually exclusive")
	case (p.Resolved || p.Unresolved) && !kind.resolution:
		return q, cli.Validation("--resolved and --unresolved apply to domains and ips, not %s", kind.name)
	case p.Severity != "" && !kind.severity:
		return q, cli.Validation("--severity applies to nuclei, not %s", kind.name)
	case p.Domain != "" && !kind.domain:
		return q, cli.Validation("--domain applies to dns, not %s", kind.name)
	case p.Resolved:
		q.resolution = store.Resolved
	case p.Unresolved:
		q.resolution = store.Unresolved
	}
	q.severity = strings.ToLower(strings.TrimSpace(p.Severity))
	q.domain = strings.TrimSuffix(strings.TrimSpace(p.Domain), ".")
	return q, nil
}
