// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// h3xrecon is the operator client of the h3xrecon reconnaissance
// platform. It manages programs and their scope, submits jobs to the
// worker stream, inspects the platform queues and cache, and controls
// the fleet of workers and processors over the message bus.
//
// Global flags precede the subcommand:
//
//	h3xrecon [--config FILE] [-p PROGRAM] [--no-pager] [--quiet] [--debug] [--timeout D] <command> ...
//
// Run "h3xrecon --help" for the command list and "h3xrecon console"
// for an interactive session.
package main
