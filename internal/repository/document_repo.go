package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gloqe-backend/internal/models"
)

type DocumentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

func (r *DocumentRepo) Get(ctx context.Context, userID, documentID uuid.UUID) (*models.Document, error) {
	doc := &models.Document{}
	query := `SELECT id, user_id, title, subject, created_at
		FROM documents WHERE id = $1 AND user_id = $2`

	err := r.pool.QueryRow(ctx, query, documentID, userID).Scan(
		&doc.ID, &doc.UserID, &doc.Title, &doc.Subject, &doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepo) List(ctx context.Context, userID uuid.UUID) ([]models.Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, subject, created_at
		FROM documents WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Title, &doc.Subject, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
