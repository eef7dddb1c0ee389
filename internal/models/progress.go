package models

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

// ProgressRecord is the remote copy of a user's reading position and
// accumulated study time for one document. It is the source of truth on
// reload (restores the scroll position).
type ProgressRecord struct {
	DocumentID              uuid.UUID `json:"document_id"`
	UserID                  uuid.UUID `json:"user_id"`
	ReadingProgressPercent  float64   `json:"reading_progress_percent"`
	AccumulatedStudySeconds int       `json:"accumulated_study_seconds"`
	UpdatedAt               time.Time `json:"updated_at"`
}
