package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"gloqe-backend/internal/models"
)

// ErrAlreadyActive is returned by Begin when a session is already running
// on a different document. The caller decides whether to end it first.
var ErrAlreadyActive = errors.New("another study session is already active")

// ErrNotRunning is returned when pause/resume is requested with no
// active session.
var ErrNotRunning = errors.New("no study session is running")

const (
	// Completed sessions are clamped to a sane range so a forgotten tab
	// cannot inflate study totals.
	maxSessionMinutes = 720
	minSessionMinutes = 1
)

// Summary is the synchronous result of ending a session. The caller uses
// it to drive persistence and analytics before navigating away.
type Summary struct {
	SessionID    uuid.UUID
	DocumentID   uuid.UUID
	StartedAt    time.Time
	EndedAt      time.Time
	TotalSeconds int
	TotalMinutes int
	Pauses       []models.PauseInterval
}

// Zero reports whether this summary came from an idempotent End with no
// session running.
func (s Summary) Zero() bool {
	return s.SessionID == uuid.Nil
}

// Machine owns session identity and lifecycle for one user:
// idle -> active -> {paused <-> active} -> ended. Only an explicit End
// finalizes a session; disconnects and tab switches never do, because
// those are unreliable signals that would truncate legitimate study time.
type Machine struct {
	mu         sync.Mutex
	now        func() time.Time
	status     models.SessionStatus
	sessionID  uuid.UUID
	documentID uuid.UUID
	tracker    *Tracker
}

func NewMachine(now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{now: now}
}

// Begin starts a session on the given document. If a session is already
// running on the same document its ID is returned unchanged; a session on
// a different document yields ErrAlreadyActive.
func (m *Machine) Begin(documentID uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running() {
		if m.documentID == documentID {
			return m.sessionID, nil
		}
		return uuid.Nil, ErrAlreadyActive
	}

	m.sessionID = uuid.New()
	m.documentID = documentID
	m.tracker = NewTracker(m.now)
	m.tracker.Start()
	m.status = models.SessionActive
	return m.sessionID, nil
}

// TogglePause flips between active and paused. Only valid while a session
// is running.
func (m *Machine) TogglePause() (models.SessionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case models.SessionActive:
		m.tracker.Pause()
		m.status = models.SessionPaused
	case models.SessionPaused:
		m.tracker.Resume()
		m.status = models.SessionActive
	default:
		return m.status, ErrNotRunning
	}
	return m.status, nil
}

// End finalizes the running session and returns its summary. Calling End
// with no session running returns a zero summary rather than an error.
func (m *Machine) End() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running() {
		return Summary{}
	}

	seconds := m.tracker.ElapsedSeconds()
	minutes := seconds / 60
	if minutes > maxSessionMinutes {
		minutes = maxSessionMinutes
	}
	if minutes < minSessionMinutes {
		minutes = minSessionMinutes
	}

	summary := Summary{
		SessionID:    m.sessionID,
		DocumentID:   m.documentID,
		StartedAt:    m.tracker.StartedAt(),
		EndedAt:      m.now(),
		TotalSeconds: seconds,
		TotalMinutes: minutes,
		Pauses:       m.tracker.Pauses(),
	}

	m.status = ""
	m.sessionID = uuid.Nil
	m.documentID = uuid.Nil
	m.tracker = nil
	return summary
}

// Status returns the current lifecycle state, or empty when idle.
func (m *Machine) Status() models.SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// SessionID returns the running session's ID, or uuid.Nil when idle.
func (m *Machine) SessionID() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// DocumentID returns the running session's document, or uuid.Nil when
// idle.
func (m *Machine) DocumentID() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.documentID
}

// Elapsed returns the active study time of the running session.
func (m *Machine) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running() {
		return 0
	}
	return m.tracker.Elapsed()
}

// Pauses returns the pause intervals recorded so far.
func (m *Machine) Pauses() []models.PauseInterval {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tracker == nil {
		return nil
	}
	return m.tracker.Pauses()
}

func (m *Machine) running() bool {
	return m.status == models.SessionActive || m.status == models.SessionPaused
}
