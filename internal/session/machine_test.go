package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"gloqe-backend/internal/models"
)

func TestMachine_BeginPauseEnd(t *testing.T) {
	clock := newFakeClock()
	m := NewMachine(clock.now)
	docID := uuid.New()

	sessionID, err := m.Begin(docID)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if sessionID == uuid.Nil {
		t.Fatal("Begin returned a nil session ID")
	}
	if m.Status() != models.SessionActive {
		t.Errorf("status = %s, want active", m.Status())
	}

	clock.advance(90 * time.Second)
	if status, _ := m.TogglePause(); status != models.SessionPaused {
		t.Errorf("after pause status = %s, want paused", status)
	}
	clock.advance(30 * time.Second)
	if status, _ := m.TogglePause(); status != models.SessionActive {
		t.Errorf("after resume status = %s, want active", status)
	}
	clock.advance(60 * time.Second)

	summary := m.End()
	if summary.Zero() {
		t.Fatal("End returned a zero summary for a running session")
	}
	if summary.SessionID != sessionID || summary.DocumentID != docID {
		t.Error("summary identity does not match the started session")
	}
	if summary.TotalSeconds != 150 {
		t.Errorf("total seconds = %d, want 150 (paused 30s excluded)", summary.TotalSeconds)
	}
	if len(summary.Pauses) != 1 {
		t.Errorf("summary recorded %d pauses, want 1", len(summary.Pauses))
	}
}

func TestMachine_BeginSameDocumentReusesSession(t *testing.T) {
	m := NewMachine(newFakeClock().now)
	docID := uuid.New()

	first, _ := m.Begin(docID)
	second, err := m.Begin(docID)
	if err != nil {
		t.Fatalf("second Begin on same document failed: %v", err)
	}
	if first != second {
		t.Errorf("same-document Begin allocated a new session: %s vs %s", first, second)
	}
}

func TestMachine_BeginOtherDocumentFails(t *testing.T) {
	m := NewMachine(newFakeClock().now)

	if _, err := m.Begin(uuid.New()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	_, err := m.Begin(uuid.New())
	if !errors.Is(err, ErrAlreadyActive) {
		t.Errorf("expected ErrAlreadyActive, got %v", err)
	}
}

func TestMachine_EndIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	m := NewMachine(clock.now)

	m.Begin(uuid.New())
	clock.advance(5 * time.Minute)

	first := m.End()
	if first.Zero() {
		t.Fatal("first End returned a zero summary")
	}

	second := m.End()
	if !second.Zero() {
		t.Errorf("second End returned a non-zero summary: %+v", second)
	}
	if second.TotalSeconds != 0 || second.TotalMinutes != 0 {
		t.Errorf("second End reported duration %ds/%dm, want zero", second.TotalSeconds, second.TotalMinutes)
	}
}

func TestMachine_TogglePauseWhileIdle(t *testing.T) {
	m := NewMachine(newFakeClock().now)

	if _, err := m.TogglePause(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning, got %v", err)
	}
}

func TestMachine_DurationClamps(t *testing.T) {
	tests := []struct {
		name        string
		elapsed     time.Duration
		wantMinutes int
	}{
		{"short session floors at one minute", 20 * time.Second, 1},
		{"normal session", 45 * time.Minute, 45},
		{"marathon capped at twelve hours", 15 * time.Hour, 720},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clock := newFakeClock()
			m := NewMachine(clock.now)
			m.Begin(uuid.New())
			clock.advance(tc.elapsed)

			if got := m.End().TotalMinutes; got != tc.wantMinutes {
				t.Errorf("total minutes = %d, want %d", got, tc.wantMinutes)
			}
		})
	}
}

func TestMachine_NewSessionAfterEnd(t *testing.T) {
	m := NewMachine(newFakeClock().now)

	first, _ := m.Begin(uuid.New())
	m.End()

	second, err := m.Begin(uuid.New())
	if err != nil {
		t.Fatalf("Begin after End failed: %v", err)
	}
	if first == second {
		t.Error("new session reused the previous session ID")
	}
}

func TestManager_OneMachinePerUser(t *testing.T) {
	mgr := NewManager(newFakeClock().now)
	userA := uuid.New()
	userB := uuid.New()

	if mgr.ForUser(userA) != mgr.ForUser(userA) {
		t.Error("same user got two different machines")
	}
	if mgr.ForUser(userA) == mgr.ForUser(userB) {
		t.Error("different users share a machine")
	}

	mgr.Release(userA)
	fresh := mgr.ForUser(userA)
	if fresh.Status() != "" {
		t.Error("released user's machine kept state")
	}
}
