package session

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestTripRequiresArming(t *testing.T) {
	n := NewAuthFailureNotifier()

	var fired atomic.Int32
	n.SetHandler(func() { fired.Add(1) })

	if n.Trip() {
		t.Error("Trip before Arm must not fire")
	}

	n.Arm()
	if !n.Trip() {
		t.Error("Trip after Arm should fire")
	}
	if n.Trip() {
		t.Error("second Trip without re-arming must not fire")
	}
	if got := fired.Load(); got != 1 {
		t.Errorf("handler ran %d times, want 1", got)
	}
}

func TestConcurrentTripsFireOnce(t *testing.T) {
	n := NewAuthFailureNotifier()

	var fired atomic.Int32
	n.SetHandler(func() { fired.Add(1) })
	n.Arm()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Trip()
		}()
	}
	wg.Wait()

	if got := fired.Load(); got != 1 {
		t.Errorf("handler ran %d times under concurrent trips, want 1", got)
	}
}

func TestSetHandlerReplaces(t *testing.T) {
	n := NewAuthFailureNotifier()

	var first, second atomic.Int32
	n.SetHandler(func() { first.Add(1) })
	n.SetHandler(func() { second.Add(1) })
	n.Arm()
	n.Trip()

	if first.Load() != 0 {
		t.Error("replaced handler must not run")
	}
	if second.Load() != 1 {
		t.Error("current handler should run exactly once")
	}
}

func TestReArmingAllowsAnotherTrip(t *testing.T) {
	n := NewAuthFailureNotifier()

	var fired atomic.Int32
	n.SetHandler(func() { fired.Add(1) })

	n.Arm()
	n.Trip()
	n.Arm()
	n.Trip()

	if got := fired.Load(); got != 2 {
		t.Errorf("expected 2 fires across two sessions, got %d", got)
	}
}
