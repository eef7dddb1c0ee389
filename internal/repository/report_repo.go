package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gloqe-backend/internal/models"
)

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Insert stores a session analytics report. Reports are keyed by session
// so a replayed queue message cannot double-count.
func (r *ReportRepo) Insert(ctx context.Context, report *models.SessionReport) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO session_reports
			(session_id, user_id, document_id, document_title, subject,
			 start_time, end_time, total_minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO NOTHING
	`, report.SessionID, report.UserID, report.DocumentID, report.DocumentTitle,
		report.Subject, report.StartTime, report.EndTime, report.TotalMinutes, report.Status)
	return err
}

func (r *ReportRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.SessionReport, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT session_id, user_id, document_id, document_title, subject,
			start_time, end_time, total_minutes, status
		FROM session_reports
		WHERE user_id = $1
		ORDER BY end_time DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.SessionReport
	for rows.Next() {
		var rep models.SessionReport
		if err := rows.Scan(&rep.SessionID, &rep.UserID, &rep.DocumentID, &rep.DocumentTitle,
			&rep.Subject, &rep.StartTime, &rep.EndTime, &rep.TotalMinutes, &rep.Status); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}
