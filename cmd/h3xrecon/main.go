// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/commands"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := cli.NewEnvironment(os.Stdin, os.Stdout, os.Stderr)
	defer env.Close()

	err := commands.Execute(ctx, env, os.Args[1:])
	if err != nil && !cli.Silent(err) {
		// Commands that print their own output return an ExitError or
		// ErrNoResponders; everything else gets one error line.
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return cli.ExitCode(err)
}
