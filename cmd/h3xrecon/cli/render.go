// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"

	"github.com/h3xrecon/h3xrecon/lib/display"
)

// ShowList renders records one key per line, paging when the output
// allows. An empty sequence prints empty instead.
func (e *Environment) ShowList(ctx context.Context, title, empty string, records []display.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(e.Stdout, empty)
		return err
	}
	return e.Output().Show(ctx, title, nil, display.ListLines(records))
}

// ShowTable renders records as a table with every field, paging when
// the output allows. The column header repeats on every page.
func (e *Environment) ShowTable(ctx context.Context, title, empty string, records []display.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(e.Stdout, empty)
		return err
	}
	header, rows := display.TableLines(records)
	return e.Output().Show(ctx, title, header, rows)
}

// Records converts a slice of a concrete record type.
func Records[T display.Record](values []T) []display.Record {
	records := make([]display.Record, len(values))
	for i, value := range values {
		records[i] = value
	}
	return records
}
