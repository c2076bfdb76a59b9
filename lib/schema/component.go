// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "strings"

// ComponentClass is the role of a running platform component.
type ComponentClass string

const (
	ClassWorker        ComponentClass = "worker"
	ClassJobProcessor  ComponentClass = "jobprocessor"
	ClassDataProcessor ComponentClass = "dataprocessor"
)

// Classes returns every component class.
func Classes() []ComponentClass {
	return []ComponentClass{ClassWorker, ClassJobProcessor, ClassDataProcessor}
}

// ParseClass returns the class named by s.
func ParseClass(s string) (ComponentClass, bool) {
	for _, class := range Classes() {
		if string(class) == s {
			return class, true
		}
	}
	return "", false
}

// ClassOf derives the class from a component id of the form
// "<class>-<instance>". Returns "" when the prefix is not a class.
func ClassOf(componentID string) ComponentClass {
	prefix, _, found := strings.Cut(componentID, "-")
	if !found {
		return ""
	}
	class, _ := ParseClass(prefix)
	return class
}
