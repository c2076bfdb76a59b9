// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"slices"
	"testing"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"program list", []string{"program", "list"}},
		{"  sendjob\tresolve_domain   www.acme.com ", []string{"sendjob", "resolve_domain", "www.acme.com"}},
		{`config add scope .*\.acme\.com`, []string{"config", "add", "scope", `.*\.acme\.com`}},
		{`config add scope '.*\.acme\.com'`, []string{"config", "add", "scope", `.*\.acme\.com`}},
		{`config add scope ".*\.acme\.com"`, []string{"config", "add", "scope", `.*\.acme\.com`}},
		{`sendjob nmap host "-p 80,443"`, []string{"sendjob", "nmap", "host", "-p 80,443"}},
		{`say "a \"quoted\" word"`, []string{"say", `a "quoted" word`}},
		{`path a\ b`, []string{"path", "a b"}},
		{`empty ''`, []string{"empty", ""}},
		{`joined'a b'"c"`, []string{"joineda bc"}},
	}
	for _, test := range tests {
		got, err := splitLine(test.line)
		if err != nil {
			t.Errorf("splitLine(%q): %v", test.line, err)
			continue
		}
		if !slices.Equal(got, test.want) {
			t.Errorf("splitLine(%q) = %q, want %q", test.line, got, test.want)
		}
	}
}

func TestSplitLine_Unterminated(t *testing.T) {
	for _, line := range []string{`say "hello`, `say 'hello`} {
		if _, err := splitLine(line); err == nil {
			t.Errorf("splitLine(%q): expected an error", line)
		}
	}
}
