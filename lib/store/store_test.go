// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateProgramName(t *testing.T) {
	for _, name := range []string{"acme", "acme-corp_2", "bug.bounty"} {
		if err := ValidateProgramName(name); err != nil {
			t.Errorf("ValidateProgramName(%q): %v", name, err)
		}
	}
	for _, name := range []string{"", "acme corp", "tab\there", "line\nbreak"} {
		if err := ValidateProgramName(name); !errors.Is(err, ErrInvalid) {
			t.Errorf("ValidateProgramName(%q): got %v, want ErrInvalid", name, err)
		}
	}
}

func TestValidateScope(t *testing.T) {
	got, err := ValidateScope(`  .*\.acme\.com  `)
	if err != nil {
		t.Fatalf("ValidateScope: %v", err)
	}
	if got != `.*\.acme\.com` {
		t.Errorf("pattern not trimmed: %q", got)
	}

	for _, pattern := range []string{"", "   ", "(unclosed", "a{2,1}"} {
		if _, err := ValidateScope(pattern); !errors.Is(err, ErrInvalid) {
			t.Errorf("ValidateScope(%q): got %v, want ErrInvalid", pattern, err)
		}
	}
}

func TestNormalizeCIDR(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"10.0.0.0/24", "10.0.0.0/24"},
		{"10.0.0.17/24", "10.0.0.0/24"},
		{"192.0.2.1", "192.0.2.1/32"},
		{"2001:db8::1", "2001:db8::1/128"},
		{" 2001:db8::/32 ", "2001:db8::/32"},
	}
	for _, test := range tests {
		got, err := NormalizeCIDR(test.input)
		if err != nil {
			t.Errorf("NormalizeCIDR(%q): %v", test.input, err)
			continue
		}
		if got != test.want {
			t.Errorf("NormalizeCIDR(%q) = %q, want %q", test.input, got, test.want)
		}
	}

	for _, input := range []string{"", "10.0.0.0/33", "example.com", "10.0.0/24"} {
		if _, err := NormalizeCIDR(input); !errors.Is(err, ErrInvalid) {
			t.Errorf("NormalizeCIDR(%q): got %v, want ErrInvalid", input, err)
		}
	}
}

func TestParseImport(t *testing.T) {
	document, err := ParseImport(strings.NewReader(`
programs:
  - name: acme
    scope:
      - '.*\.acme\.com'
    cidr: [10.0.0.0/24]
  - name: globex
`))
	if err != nil {
		t.Fatalf("ParseImport: %v", err)
	}
	if len(document.Programs) != 2 {
		t.Fatalf("programs: got %d, want 2", len(document.Programs))
	}
	acme := document.Programs[0]
	if acme.Name != "acme" || len(acme.Scope) != 1 || acme.Scope[0] != `.*\.acme\.com` || acme.CIDR[0] != "10.0.0.0/24" {
		t.Errorf("acme: %+v", acme)
	}
}

func TestParseImport_Errors(t *testing.T) {
	tests := []struct {
		name     string
		document string
	}{
		{"empty", ""},
		{"not yaml", "programs: [unclosed"},
		{"unknown field", "programs:\n  - name: acme\n    scopes: [x]\n"},
		{"missing name", "programs:\n  - scope: [x]\n"},
		{"duplicate name", "programs:\n  - name: acme\n  - name: acme\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := ParseImport(strings.NewReader(test.document)); !errors.Is(err, ErrInvalid) {
				t.Errorf("got %v, want ErrInvalid", err)
			}
		})
	}
}

func TestDropReportTotal(t *testing.T) {
	report := DropReport{"domains": 3, "ips": 2, "urls": 0}
	if got := report.Total(); got != 5 {
		t.Errorf("Total() = %d, want 5", got)
	}
}
