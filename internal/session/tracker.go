package session

import (
	"time"

	"gloqe-backend/internal/models"
)

// Tracker is a wall-clock stopwatch with pause/resume. Elapsed time is
// never accumulated by counting ticks; it is recomputed on every query as
// (now - startedAt) - sum(pausedDuration), which makes the result immune
// to timer drift, missed ticks and throttled schedulers.
type Tracker struct {
	now       func() time.Time
	startedAt time.Time
	pauses    []models.PauseInterval
	started   bool
}

// NewTracker builds a tracker on the given clock; a nil clock means
// time.Now.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now}
}

func (t *Tracker) Start() {
	t.startedAt = t.now()
	t.pauses = nil
	t.started = true
}

// Pause opens a new pause interval. Pausing while already paused is a
// no-op.
func (t *Tracker) Pause() {
	if !t.started || t.openPause() {
		return
	}
	t.pauses = append(t.pauses, models.PauseInterval{PausedAt: t.now()})
}

// Resume closes the most recent open pause interval. Resuming while not
// paused is a no-op.
func (t *Tracker) Resume() {
	if !t.started || !t.openPause() {
		return
	}
	now := t.now()
	t.pauses[len(t.pauses)-1].ResumedAt = &now
}

func (t *Tracker) Paused() bool {
	return t.openPause()
}

func (t *Tracker) StartedAt() time.Time {
	return t.startedAt
}

// Elapsed recomputes active time from absolute timestamps. An open pause
// interval is charged up to the current instant.
func (t *Tracker) Elapsed() time.Duration {
	if !t.started {
		return 0
	}
	now := t.now()
	elapsed := now.Sub(t.startedAt)
	for _, p := range t.pauses {
		end := now
		if p.ResumedAt != nil {
			end = *p.ResumedAt
		}
		elapsed -= end.Sub(p.PausedAt)
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

func (t *Tracker) ElapsedSeconds() int {
	return int(t.Elapsed() / time.Second)
}

// Pauses returns a copy of the recorded pause intervals.
func (t *Tracker) Pauses() []models.PauseInterval {
	out := make([]models.PauseInterval, len(t.pauses))
	copy(out, t.pauses)
	return out
}

func (t *Tracker) openPause() bool {
	return len(t.pauses) > 0 && t.pauses[len(t.pauses)-1].ResumedAt == nil
}
