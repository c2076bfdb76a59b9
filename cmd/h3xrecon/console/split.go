// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"strings"
	"unicode"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
)

// splitLine splits a console line into arguments with shell-like
// quoting. Single quotes are literal. Inside double quotes a backslash
// escapes only '"' and '\'. Outside quotes it escapes whitespace,
// quotes and itself. Any other backslash is kept, so regular
// expressions such as .*\.acme\.com need no extra escaping.
func splitLine(line string) ([]string, error) {
	var (
		args     []string
		current  strings.Builder
		inWord   bool
		inSingle bool
		inDouble bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inSingle:
			if r == '\'' {
				inSingle = false
			} else {
				current.WriteRune(r)
			}
		case inDouble:
			switch {
			case r == '"':
				inDouble = false
			case r == '\\' && i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\\'):
				i++
				current.WriteRune(runes[i])
			default:
				current.WriteRune(r)
			}
		case r == '\'':
			inSingle, inWord = true, true
		case r == '"':
			inDouble, inWord = true, true
		case r == '\\' && i+1 < len(runes) && escapable(runes[i+1]):
			i++
			current.WriteRune(runes[i])
			inWord = true
		case unicode.IsSpace(r):
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if inSingle || inDouble {
		return nil, cli.Validation("unterminated quote in %q", line)
	}
	if inWord {
		args = append(args, current.String())
	}
	return args, nil
}

func escapable(r rune) bool {
	return r == '\\' || r == '\'' || r == '"' || unicode.IsSpace(r)
}
