package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gloqe-backend/internal/models"
	"gloqe-backend/internal/session"
)

type StudySessionRepo struct {
	pool *pgxpool.Pool
}

func NewStudySessionRepo(pool *pgxpool.Pool) *StudySessionRepo {
	return &StudySessionRepo{pool: pool}
}

func (r *StudySessionRepo) Start(ctx context.Context, s *models.StudySession) error {
	query := `
		INSERT INTO study_sessions (id, user_id, document_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING started_at, last_heartbeat_at, created_at
	`

	return r.pool.QueryRow(ctx, query, s.ID, s.UserID, s.DocumentID, models.SessionActive).Scan(
		&s.StartedAt,
		&s.LastHeartbeatAt,
		&s.CreatedAt,
	)
}

func (r *StudySessionRepo) Heartbeat(ctx context.Context, sessionID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET last_heartbeat_at = NOW()
		WHERE id = $1
		  AND user_id = $2
		  AND ended_at IS NULL
	`, sessionID, userID)
	return err
}

// SetPauseState mirrors the machine's pause/resume transitions so the
// remote row reflects the live state and pause history.
func (r *StudySessionRepo) SetPauseState(ctx context.Context, sessionID, userID uuid.UUID, status models.SessionStatus, pauses []models.PauseInterval) error {
	pausesJSON, err := json.Marshal(pauses)
	if err != nil {
		return fmt.Errorf("encode pause intervals: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET status = $3,
			pause_intervals_json = $4,
			last_heartbeat_at = NOW()
		WHERE id = $1
		  AND user_id = $2
		  AND ended_at IS NULL
	`, sessionID, userID, status, pausesJSON)
	return err
}

// Finish records the summary of an explicitly ended session.
func (r *StudySessionRepo) Finish(ctx context.Context, userID uuid.UUID, summary session.Summary) error {
	pausesJSON, err := json.Marshal(summary.Pauses)
	if err != nil {
		return fmt.Errorf("encode pause intervals: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET status = $3,
			ended_at = $4,
			total_seconds = $5,
			total_minutes = $6,
			pause_intervals_json = $7,
			last_heartbeat_at = NOW()
		WHERE id = $1
		  AND user_id = $2
		  AND ended_at IS NULL
	`, summary.SessionID, userID, models.SessionCompleted, summary.EndedAt,
		summary.TotalSeconds, summary.TotalMinutes, pausesJSON)
	return err
}

// CleanupOrphans closes sessions the client never ended. Rows older than
// 24 hours are abandoned with no credited time; younger orphans are
// completed with an estimated duration capped at two hours.
func (r *StudySessionRepo) CleanupOrphans(ctx context.Context, userID uuid.UUID) (int, error) {
	cutoff := time.Now().Add(-24 * time.Hour)

	abandoned, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET status = $2,
			ended_at = NOW(),
			total_seconds = 0,
			total_minutes = 0
		WHERE user_id = $1
		  AND ended_at IS NULL
		  AND started_at < $3
	`, userID, models.SessionAbandoned, cutoff)
	if err != nil {
		return 0, fmt.Errorf("abandon stale sessions: %w", err)
	}

	completed, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET status = $2,
			ended_at = NOW(),
			total_seconds = LEAST(7200, EXTRACT(EPOCH FROM (NOW() - started_at))::INT),
			total_minutes = LEAST(120, (EXTRACT(EPOCH FROM (NOW() - started_at)) / 60)::INT)
		WHERE user_id = $1
		  AND ended_at IS NULL
		  AND started_at >= $3
	`, userID, models.SessionCompleted, cutoff)
	if err != nil {
		return 0, fmt.Errorf("complete recent orphans: %w", err)
	}

	return int(abandoned.RowsAffected() + completed.RowsAffected()), nil
}

func (r *StudySessionRepo) GetByID(ctx context.Context, sessionID, userID uuid.UUID) (*models.StudySession, error) {
	s := &models.StudySession{}
	var pausesJSON []byte

	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, document_id, status, started_at, ended_at,
			total_seconds, total_minutes, pause_intervals_json, last_heartbeat_at, created_at
		FROM study_sessions
		WHERE id = $1 AND user_id = $2
	`, sessionID, userID).Scan(
		&s.ID, &s.UserID, &s.DocumentID, &s.Status, &s.StartedAt, &s.EndedAt,
		&s.TotalSeconds, &s.TotalMinutes, &pausesJSON, &s.LastHeartbeatAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(pausesJSON) > 0 {
		if err := json.Unmarshal(pausesJSON, &s.PauseIntervals); err != nil {
			return nil, fmt.Errorf("decode pause intervals: %w", err)
		}
	}
	return s, nil
}

// ListRecent returns the user's completed sessions from the last dateRange
// days, newest first.
func (r *StudySessionRepo) ListRecent(ctx context.Context, userID uuid.UUID, dateRange int) ([]models.StudySession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, document_id, status, started_at, ended_at,
			total_seconds, total_minutes, last_heartbeat_at, created_at
		FROM study_sessions
		WHERE user_id = $1
		  AND status = $2
		  AND ended_at >= NOW() - ($3 || ' days')::INTERVAL
		ORDER BY ended_at DESC
	`, userID, models.SessionCompleted, dateRange)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.StudySession
	for rows.Next() {
		var s models.StudySession
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.DocumentID, &s.Status, &s.StartedAt, &s.EndedAt,
			&s.TotalSeconds, &s.TotalMinutes, &s.LastHeartbeatAt, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
