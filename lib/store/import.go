// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ImportDocument is the bulk import file:
//
//	programs:
//	  - name: acme
//	    scope: ['.*\.acme\.com']
//	    cidr: [10.0.0.0/24]
type ImportDocument struct {
	Programs []ImportProgram `yaml:"programs"`
}

// ImportProgram is one program entry of an [ImportDocument].
type ImportProgram struct {
	Name  string   `yaml:"name"`
	Scope []string `yaml:"scope"`
	CIDR  []string `yaml:"cidr"`
}

// ImportReport is the outcome of importing one program.
type ImportReport struct {
	Program string `json:"program"`

	// Created is true when the program did not exist before the import.
	Created bool `json:"created"`

	ScopesAdded int `json:"scopes_added"`
	CIDRsAdded  int `json:"cidrs_added"`

	// Invalid lists the entries that failed validation and were skipped.
	Invalid []string `json:"invalid,omitempty"`
}

// ParseImport decodes an import document and checks that every entry
// names a valid program exactly once.
func ParseImport(reader io.Reader) (ImportDocument, error) {
	var document ImportDocument
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(&document); err != nil {
		if errors.Is(err, io.EOF) {
			return ImportDocument{}, fmt.Errorf("%w: import document is empty", ErrInvalid)
		}
		return ImportDocument{}, fmt.Errorf("%w: parsing import document: %v", ErrInvalid, err)
	}

	seen := make(map[string]bool, len(document.Programs))
	for index, program := range document.Programs {
		if err := ValidateProgramName(program.Name); err != nil {
			return ImportDocument{}, fmt.Errorf("programs[%d]: %w", index, err)
		}
		if seen[program.Name] {
			return ImportDocument{}, fmt.Errorf("%w: program %q listed more than once", ErrInvalid, program.Name)
		}
		seen[program.Name] = true
	}
	return document, nil
}

// Import applies document to s as a set union: missing programs are
// created and missing entries added. Nothing is ever removed, and
// existing programs and entries are not errors, so importing the same
// document twice is a no-op the second time. Entries that fail
// validation are reported per program and skipped. Any other store
// error aborts the import and is returned with the reports gathered so
// far.
func Import(ctx context.Context, s Store, document ImportDocument) ([]ImportReport, error) {
	reports := make([]ImportReport, 0, len(document.Programs))
	for _, entry := range document.Programs {
		report := ImportReport{Program: entry.Name}

		_, err := s.AddProgram(ctx, entry.Name)
		switch {
		case err == nil:
			report.Created = true
		case errors.Is(err, ErrAlreadyExists):
		default:
			return reports, fmt.Errorf("importing program %q: %w", entry.Name, err)
		}

		for _, pattern := range entry.Scope {
			added, err := s.AddScope(ctx, entry.Name, pattern)
			if errors.Is(err, ErrInvalid) {
				report.Invalid = append(report.Invalid, pattern)
				continue
			}
			if err != nil {
				return append(reports, report), fmt.Errorf("importing scope for %q: %w", entry.Name, err)
			}
			if added {
				report.ScopesAdded++
			}
		}

		for _, cidr := range entry.CIDR {
			added, err := s.AddCIDR(ctx, entry.Name, cidr)
			if errors.Is(err, ErrInvalid) {
				report.Invalid = append(report.Invalid, cidr)
				continue
			}
			if err != nil {
				return append(reports, report), fmt.Errorf("importing cidr for %q: %w", entry.Name, err)
			}
			if added {
				report.CIDRsAdded++
			}
		}

		reports = append(reports, report)
	}
	return reports, nil
}
