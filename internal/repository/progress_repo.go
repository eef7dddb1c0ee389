package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gloqe-backend/internal/models"
	"gloqe-backend/internal/progress"
)

// ProgressRepo is the pgx-backed progress.Store. Writes are last-write-wins
// per (document, user); the study-time increment is applied at most once
// per attempt ID, so a retried delivery of the same write is a no-op.
type ProgressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

func (r *ProgressRepo) SaveProgress(ctx context.Context, w progress.Write) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin progress save: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO progress_save_attempts (attempt_id, user_id, document_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (attempt_id) DO NOTHING
	`, w.AttemptID, w.UserID, w.DocumentID)
	if err != nil {
		return fmt.Errorf("record save attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Duplicate delivery of an attempt that already landed.
		return tx.Commit(ctx)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO progress (user_id, document_id, reading_progress_percent, accumulated_study_seconds, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, document_id) DO UPDATE SET
			reading_progress_percent = CASE
				WHEN $5 THEN progress.reading_progress_percent
				ELSE EXCLUDED.reading_progress_percent
			END,
			accumulated_study_seconds = progress.accumulated_study_seconds + $4,
			updated_at = NOW()
	`, w.UserID, w.DocumentID, w.ProgressPercent, w.StudySecondsDelta, w.KeepPosition)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *ProgressRepo) Get(ctx context.Context, userID, documentID uuid.UUID) (*models.ProgressRecord, error) {
	rec := &models.ProgressRecord{}
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, document_id, reading_progress_percent, accumulated_study_seconds, updated_at
		FROM progress
		WHERE user_id = $1 AND document_id = $2
	`, userID, documentID).Scan(
		&rec.UserID,
		&rec.DocumentID,
		&rec.ReadingProgressPercent,
		&rec.AccumulatedStudySeconds,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
