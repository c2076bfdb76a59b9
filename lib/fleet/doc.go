// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package fleet broadcasts administrative commands to running platform
// components and gathers their replies.
//
// The number of components is never known in advance. A round
// subscribes to its own reply channel, publishes the command on the
// control channel of every addressed scope, and then accumulates replies
// until the collection window closes. Each component replies once; the
// first reply per component id wins. A round that names explicit
// component ids ends as soon as all of them have replied and reports
// the ones that did not.
//
// Zero replies is a normal outcome, [Result.NoResponders], not an error.
// Only a failure to subscribe or publish aborts a round, with an error
// wrapping [bus.ErrDispatchFailed].
package fleet
