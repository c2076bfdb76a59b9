// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package display

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the pager key bindings.
type KeyMap struct {
	Next key.Binding
	Prev key.Binding
	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Next: key.NewBinding(
		key.WithKeys("n", "right", " ", "pgdown"),
		key.WithHelp("n/→/space", "next"),
	),
	Prev: key.NewBinding(
		key.WithKeys("p", "left", "pgup"),
		key.WithHelp("p/←", "prev"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
