// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package console implements the interactive h3xrecon shell. Each line
// is split into arguments and dispatched through the same command tree
// as the one-shot CLI, so every command behaves identically in both.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/h3xrecon/h3xrecon/cmd/h3xrecon/cli"
)

const banner = `h3xrecon console. Type "help" for commands, "exit" to leave.`

type consoleParams struct{}

// Command returns the "console" command. root is the finished command
// tree the console dispatches into.
func Command(env *cli.Environment, root *cli.Command) *cli.Command {
	var params consoleParams

	return &cli.Command{
		Name:    "console",
		Summary: "Start an interactive session",
		Description: `Read commands from the terminal and run them against the command tree.

The prompt shows the active program. Quoting follows the shell: single
quotes are literal, double quotes group words, and a backslash escapes
a quote or space. Other backslashes are kept, so scope patterns such as
.*\.acme\.com can be typed as they are.

Destructive commands ask for confirmation. "help [command]" prints
help, "exit" or "quit" (or end of input) leaves the console. When
standard input is not a terminal, lines are read without a prompt.`,
		Usage: "h3xrecon console",
		Examples: []cli.Example{
			{
				Description: "Start the console",
				Command:     "h3xrecon console",
			},
			{
				Description: "Run a script of commands",
				Command:     "h3xrecon console < setup.txt",
			},
		},
		Params:      func() any { return &params },
		Annotations: cli.Create(),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			session := &console{env: env, root: root, logger: logger}
			reader, err := session.openReader()
			if err != nil {
				return err
			}
			session.reader = reader
			return session.loop(ctx)
		},
	}
}

// lineReader reads console input. prompt is shown only on a terminal.
type lineReader interface {
	ReadLine(prompt string) (string, error)
}

type console struct {
	env    *cli.Environment
	root   *cli.Command
	logger *slog.Logger
	reader lineReader
}

func (c *console) openReader() (lineReader, error) {
	if file, ok := c.env.Stdin.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		output := c.env.Stdout
		terminal := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{file, output}, "")
		fmt.Fprintln(output, banner)
		return &terminalReader{fd: int(file.Fd()), terminal: terminal}, nil
	}
	scanner := bufio.NewScanner(c.env.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &scannerReader{scanner: scanner}, nil
}

func (c *console) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := c.reader.ReadLine(c.prompt())
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading console input: %w", err)
		}

		args, err := splitLine(line)
		if err != nil {
			c.report(err)
			continue
		}
		if len(args) == 0 || strings.HasPrefix(args[0], "#") {
			continue
		}

		switch args[0] {
		case "exit", "quit":
			return nil
		case "help":
			c.help(args[1:])
			continue
		case "console":
			c.report(cli.Validation("already in the console"))
			continue
		}

		if err := c.run(ctx, args); err != nil {
			c.report(err)
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

func (c *console) run(ctx context.Context, args []string) error {
	command, _ := c.root.Find(args)
	if command.Annotations.IsDestructive() && !c.confirm(command) {
		fmt.Fprintln(c.env.Stdout, "Aborted.")
		return nil
	}

	commandCtx, cancel := c.env.CommandContext(ctx)
	defer cancel()
	c.logger.Debug("console command", "command", command.FullName())
	return c.root.Execute(commandCtx, args, c.logger)
}

func (c *console) confirm(command *cli.Command) bool {
	question := fmt.Sprintf("%s is destructive. Continue? [y/N] ", command.FullName())
	if _, ok := c.reader.(*scannerReader); ok {
		fmt.Fprint(c.env.Stdout, question)
		defer fmt.Fprintln(c.env.Stdout)
	}
	answer, err := c.reader.ReadLine(question)
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (c *console) help(args []string) {
	command, rest := c.root.Find(args)
	if len(rest) > 0 {
		c.report(cli.Validation("unknown command %q", strings.Join(args, " ")))
		return
	}
	command.PrintHelp(c.env.Stdout)
}

func (c *console) prompt() string {
	program, err := c.env.ResolveProgram("")
	if err != nil {
		return "h3xrecon> "
	}
	return "h3xrecon(" + program + ")> "
}

func (c *console) report(err error) {
	if cli.Silent(err) {
		return
	}
	fmt.Fprintf(c.env.Stderr, "error: %v\n", err)
}

// terminalReader reads lines with editing and history. The terminal is
// in raw mode only while a line is being read, so command output and
// the pager see a normal terminal.
type terminalReader struct {
	fd       int
	terminal *term.Terminal
}

func (r *terminalReader) ReadLine(prompt string) (string, error) {
	state, err := term.MakeRaw(r.fd)
	if err != nil {
		return "", fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(r.fd, state)

	r.terminal.SetPrompt(prompt)
	return r.terminal.ReadLine()
}

type scannerReader struct {
	scanner *bufio.Scanner
}

func (r *scannerReader) ReadLine(string) (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
