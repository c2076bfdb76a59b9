// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"io"
	"time"

	"github.com/spf13/pflag"
)

// Globals are the flags accepted before the subcommand.
type Globals struct {
	ConfigPath string
	Program    string
	NoPager    bool
	Quiet      bool
	Debug      bool
	Timeout    time.Duration
}

// AddFlags registers the global flags.
func (g *Globals) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&g.ConfigPath, "config", "", "configuration file (default: $H3XRECON_CONFIG, then $XDG_CONFIG_HOME/h3xrecon/config.yaml)")
	flagSet.StringVarP(&g.Program, "program", "p", "", "program to operate on, overriding the active program")
	flagSet.BoolVar(&g.NoPager, "no-pager", false, "write all rows without paging")
	flagSet.BoolVar(&g.Quiet, "quiet", false, "only log warnings and errors")
	flagSet.BoolVar(&g.Debug, "debug", false, "log at debug level")
	flagSet.DurationVar(&g.Timeout, "timeout", 0, "bound each command's run time (0: no limit)")
}

// ParseGlobals parses the global flags at the front of args and returns
// the remaining arguments, starting at the subcommand.
func ParseGlobals(args []string) (Globals, []string, error) {
	var globals Globals
	flagSet := pflag.NewFlagSet("h3xrecon", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.SetInterspersed(false)
	globals.AddFlags(flagSet)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return globals, []string{"--help"}, nil
		}
		return globals, nil, Validation("%v\n\nRun 'h3xrecon --help' for usage.", err)
	}
	return globals, flagSet.Args(), nil
}
