// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by the fleet
// collector and the rate-limit checks.
//
// Production code holds a Clock field initialized with Real(). Tests use
// Fake(), whose time moves only when Advance is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	controller := fleet.NewController(bus, fleet.Options{Clock: c})
//	go controller.Round(ctx, fleet.CommandPing, fleet.All(), nil)
//	c.WaitForTimers(1)         // the round has published and armed its window
//	c.Advance(3 * time.Second) // close the window
package clock
