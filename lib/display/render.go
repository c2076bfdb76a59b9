// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// ListLines renders one line per record: its key.
func ListLines(records []Record) []string {
	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, sanitize(record.Key()))
	}
	return lines
}

// TableLines renders records as a table with one column per field. The
// header lines (column names and the rule under them) are returned
// separately from the row lines so a pager can repeat them on every
// page. Field names are taken from the first record.
func TableLines(records []Record) (header, rows []string) {
	if len(records) == 0 {
		return nil, nil
	}

	first := records[0].Fields()
	names := make([]string, len(first))
	for i, field := range first {
		names[i] = strings.ToUpper(field.Name)
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	rendered := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(true).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(names...)

	for _, record := range records {
		fields := record.Fields()
		cells := make([]string, len(names))
		for i := range names {
			if i < len(fields) {
				cells[i] = sanitize(fields[i].Value)
			}
		}
		rendered.Row(cells...)
	}

	lines := strings.Split(rendered.Render(), "\n")
	// Each record renders to exactly one line because cell values carry
	// no newlines; everything above them is header.
	split := max(0, len(lines)-len(records))
	return lines[:split], lines[split:]
}

// DetailLines renders a single record vertically, one "name: value"
// line per field, for records too wide to read as a table row.
func DetailLines(record Record) []string {
	fields := record.Fields()
	width := 0
	for _, field := range fields {
		width = max(width, len(field.Name))
	}
	label := lipgloss.NewStyle().Bold(true)
	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		lines = append(lines, fmt.Sprintf("%s %s", label.Render(fmt.Sprintf("%-*s", width+1, field.Name+":")), sanitize(field.Value)))
	}
	return lines
}

// WriteLines writes lines to w, one per line.
func WriteLines(w io.Writer, lines ...[]string) error {
	for _, group := range lines {
		for _, line := range group {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func sanitize(value string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(value)
}
