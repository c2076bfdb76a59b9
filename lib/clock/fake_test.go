// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(5 * time.Second)
	want := epoch.Add(5 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockAfterFiresOnAdvance(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(3 * time.Second)

	clock.Advance(2 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before its deadline")
	default:
	}

	clock.Advance(time.Second)
	select {
	case fired := <-channel:
		if want := epoch.Add(3 * time.Second); !fired.Equal(want) {
			t.Errorf("fired at %v, want %v", fired, want)
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
	if pending := clock.PendingCount(); pending != 0 {
		t.Errorf("PendingCount() = %d after firing, want 0", pending)
	}
}

func TestFakeClockAfterNonPositive(t *testing.T) {
	clock := Fake(epoch)
	for _, duration := range []time.Duration{0, -time.Second} {
		select {
		case <-clock.After(duration):
		default:
			t.Errorf("After(%v) should be ready immediately", duration)
		}
	}
	if pending := clock.PendingCount(); pending != 0 {
		t.Errorf("PendingCount() = %d, want 0", pending)
	}
}

func TestFakeClockSetBackwardsFiresNothing(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(time.Minute)
	clock.Set(epoch.Add(-time.Hour))

	select {
	case <-channel:
		t.Fatal("moving the clock backwards fired a waiter")
	default:
	}
	if got := clock.Now(); !got.Equal(epoch.Add(-time.Hour)) {
		t.Errorf("Now() = %v after Set", got)
	}
}

func TestFakeClockWaitForTimers(t *testing.T) {
	clock := Fake(epoch)
	done := make(chan struct{})

	go func() {
		<-clock.After(time.Second)
		close(done)
	}()

	clock.WaitForTimers(1)
	clock.Advance(time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
		t.Fatal("goroutine was not released by Advance")
	}
}
