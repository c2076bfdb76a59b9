// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"net/netip"
	"regexp"
	"strings"
	"unicode"
)

// ValidateProgramName rejects empty names and names containing
// whitespace or control characters, which could not be typed back as a
// single CLI argument.
func ValidateProgramName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: program name is empty", ErrInvalid)
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: program name %q contains whitespace", ErrInvalid, name)
		}
	}
	return nil
}

// ValidateScope trims pattern and checks that it compiles as a regular
// expression.
func ValidateScope(pattern string) (string, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return "", fmt.Errorf("%w: scope pattern is empty", ErrInvalid)
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return "", fmt.Errorf("%w: scope pattern %q: %v", ErrInvalid, pattern, err)
	}
	return pattern, nil
}

// NormalizeCIDR parses cidr as an IP prefix and returns its canonical
// form with host bits cleared. A bare address becomes a /32 or /128.
func NormalizeCIDR(cidr string) (string, error) {
	cidr = strings.TrimSpace(cidr)
	if cidr == "" {
		return "", fmt.Errorf("%w: cidr is empty", ErrInvalid)
	}
	if !strings.Contains(cidr, "/") {
		address, err := netip.ParseAddr(cidr)
		if err != nil {
			return "", fmt.Errorf("%w: cidr %q: %v", ErrInvalid, cidr, err)
		}
		return netip.PrefixFrom(address, address.BitLen()).String(), nil
	}
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return "", fmt.Errorf("%w: cidr %q: %v", ErrInvalid, cidr, err)
	}
	return prefix.Masked().String(), nil
}

// NotFound wraps [ErrNotFound] with the program name.
func NotFound(program string) error {
	return fmt.Errorf("program %q: %w", program, ErrNotFound)
}
