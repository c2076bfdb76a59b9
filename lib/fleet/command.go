// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/h3xrecon/h3xrecon/lib/schema"
)

// ErrInvalidRequest is returned for unknown commands, malformed
// selectors, and commands a selected class does not support.
var ErrInvalidRequest = errors.New("fleet: invalid request")

// Command is an administrative command name.
type Command string

const (
	CommandList    Command = "list"
	CommandStatus  Command = "status"
	CommandPing    Command = "ping"
	CommandPause   Command = "pause"
	CommandUnpause Command = "unpause"
	CommandKillJob Command = "killjob"
	CommandReport  Command = "report"
)

// Kind separates read-only queries from commands that change component
// state.
type Kind int

const (
	KindQuery Kind = iota
	KindControl
)

type capability struct {
	kind    Kind
	classes []schema.ComponentClass
}

var capabilities = map[Command]capability{
	CommandList:    {KindQuery, schema.Classes()},
	CommandStatus:  {KindQuery, schema.Classes()},
	CommandPing:    {KindQuery, schema.Classes()},
	CommandReport:  {KindQuery, schema.Classes()},
	CommandPause:   {KindControl, schema.Classes()},
	CommandUnpause: {KindControl, schema.Classes()},
	CommandKillJob: {KindControl, []schema.ComponentClass{schema.ClassWorker}},
}

// Commands returns every command in display order.
func Commands() []Command {
	return []Command{CommandList, CommandStatus, CommandPing, CommandReport, CommandPause, CommandUnpause, CommandKillJob}
}

// ParseCommand returns the command named s.
func ParseCommand(s string) (Command, error) {
	command := Command(strings.ToLower(s))
	if _, ok := capabilities[command]; !ok {
		return "", fmt.Errorf("%w: unknown command %q", ErrInvalidRequest, s)
	}
	return command, nil
}

// Kind reports whether the command is a query or a control command.
// Control commands are never retried.
func (c Command) Kind() Kind {
	return capabilities[c].kind
}

// Supports reports whether class accepts the command.
func (c Command) Supports(class schema.ComponentClass) bool {
	return slices.Contains(capabilities[c].classes, class)
}

// Selector addresses the components of a round: every component, one
// class, or explicit component ids. Exactly one form is set.
type Selector struct {
	All   bool
	Class schema.ComponentClass
	IDs   []string
}

// ParseSelector parses command-line arguments. No arguments or "all"
// selects every component; a single class name selects that class;
// anything else is a list of component ids.
func ParseSelector(args []string) (Selector, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "all") {
		return Selector{All: true}, nil
	}
	if len(args) == 1 {
		if class, ok := schema.ParseClass(args[0]); ok {
			return Selector{Class: class}, nil
		}
	}

	seen := make(map[string]bool, len(args))
	ids := make([]string, 0, len(args))
	for _, id := range args {
		if id == "" || strings.ContainsAny(id, " \t:") {
			return Selector{}, fmt.Errorf("%w: malformed component id %q", ErrInvalidRequest, id)
		}
		if id == "all" {
			return Selector{}, fmt.Errorf("%w: \"all\" cannot be combined with component ids", ErrInvalidRequest)
		}
		if _, isClass := schema.ParseClass(id); isClass {
			return Selector{}, fmt.Errorf("%w: class %q cannot be combined with other selectors", ErrInvalidRequest, id)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return Selector{IDs: ids}, nil
}

func (s Selector) String() string {
	switch {
	case s.All:
		return "all"
	case s.Class != "":
		return string(s.Class)
	default:
		return strings.Join(s.IDs, ",")
	}
}

// scopes returns the control channel scopes to publish on.
func (s Selector) scopes() []string {
	switch {
	case s.All:
		return []string{"all"}
	case s.Class != "":
		return []string{string(s.Class)}
	default:
		return s.IDs
	}
}

// resolve applies the capability table to selector for command. A
// broadcast to every component narrows to the classes that support the
// command when that is not all of them.
func resolve(command Command, selector Selector) (Selector, error) {
	supported := capabilities[command].classes
	switch {
	case selector.All:
		if len(supported) == 1 {
			return Selector{Class: supported[0]}, nil
		}
		return selector, nil
	case selector.Class != "":
		if !command.Supports(selector.Class) {
			return Selector{}, fmt.Errorf("%w: %s is not supported by %s components", ErrInvalidRequest, command, selector.Class)
		}
		return selector, nil
	case len(selector.IDs) > 0:
		for _, id := range selector.IDs {
			// Ids without a class prefix are addressed as given; the
			// component rejects commands it does not support.
			if class := schema.ClassOf(id); class != "" && !command.Supports(class) {
				return Selector{}, fmt.Errorf("%w: %s is not supported by %s (%s)", ErrInvalidRequest, command, id, class)
			}
		}
		return selector, nil
	default:
		return Selector{}, fmt.Errorf("%w: empty selector", ErrInvalidRequest)
	}
}
