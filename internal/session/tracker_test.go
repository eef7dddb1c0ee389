package session

import (
	"testing"
	"time"
)

// fakeClock advances only when told to, so elapsed-time math is exact.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestTracker_PauseExcludedFromElapsed(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(clock.now)

	tr.Start()
	clock.advance(10 * time.Second)
	tr.Pause()
	clock.advance(5 * time.Second)
	tr.Resume()
	clock.advance(3 * time.Second)

	if got := tr.ElapsedSeconds(); got != 13 {
		t.Errorf("elapsed = %d, want 13 (10 + 3, paused time excluded)", got)
	}
}

func TestTracker_OpenPauseChargedToNow(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(clock.now)

	tr.Start()
	clock.advance(30 * time.Second)
	tr.Pause()
	clock.advance(2 * time.Minute)

	if got := tr.ElapsedSeconds(); got != 30 {
		t.Errorf("elapsed while paused = %d, want 30", got)
	}
}

func TestTracker_RedundantTransitionsAreNoOps(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(clock.now)

	tr.Start()
	clock.advance(4 * time.Second)

	tr.Resume() // not paused: no-op
	tr.Pause()
	tr.Pause() // already paused: no-op
	clock.advance(6 * time.Second)
	tr.Resume()
	clock.advance(2 * time.Second)

	if got := tr.ElapsedSeconds(); got != 6 {
		t.Errorf("elapsed = %d, want 6", got)
	}
	if pauses := tr.Pauses(); len(pauses) != 1 {
		t.Errorf("recorded %d pause intervals, want 1", len(pauses))
	}
}

func TestTracker_MultiplePauseIntervals(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(clock.now)

	tr.Start()
	clock.advance(10 * time.Second)
	tr.Pause()
	clock.advance(20 * time.Second)
	tr.Resume()
	clock.advance(5 * time.Second)
	tr.Pause()
	clock.advance(100 * time.Second)
	tr.Resume()
	clock.advance(1 * time.Second)

	if got := tr.ElapsedSeconds(); got != 16 {
		t.Errorf("elapsed = %d, want 16", got)
	}
}

func TestTracker_NotStarted(t *testing.T) {
	tr := NewTracker(newFakeClock().now)

	if got := tr.Elapsed(); got != 0 {
		t.Errorf("unstarted tracker elapsed = %v, want 0", got)
	}
	tr.Pause() // must not panic or record anything
	if len(tr.Pauses()) != 0 {
		t.Error("pause before start recorded an interval")
	}
}
