package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// PauseInterval is one pause window inside a session. An open interval
// (session currently paused) has a nil ResumedAt.
type PauseInterval struct {
	PausedAt  time.Time  `json:"paused_at"`
	ResumedAt *time.Time `json:"resumed_at,omitempty"`
}

type StudySession struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	DocumentID      uuid.UUID       `json:"document_id"`
	Status          SessionStatus   `json:"status"`
	StartedAt       time.Time       `json:"started_at"`
	EndedAt         *time.Time      `json:"ended_at,omitempty"`
	TotalSeconds    int             `json:"total_seconds"`
	TotalMinutes    int             `json:"total_minutes"`
	PauseIntervals  []PauseInterval `json:"pause_intervals,omitempty"`
	LastHeartbeatAt time.Time       `json:"last_heartbeat_at"`
	CreatedAt       time.Time       `json:"created_at"`
}

// SessionReport is the one-shot analytics record produced when a session
// ends. Delivery is best-effort; a failed report never blocks the exit.
type SessionReport struct {
	SessionID     uuid.UUID `json:"session_id"`
	UserID        uuid.UUID `json:"user_id"`
	DocumentID    uuid.UUID `json:"document_id"`
	DocumentTitle string    `json:"document_title"`
	Subject       string    `json:"subject"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	TotalMinutes  int       `json:"total_minutes"`
	Status        string    `json:"status"`
}
