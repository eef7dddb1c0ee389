package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gloqe-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, email, full_name, avatar_url, xp, created_at, last_login_at
		FROM users WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.FullName, &user.AvatarURL,
		&user.XP, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetAggregate loads the gamification source of truth: total XP, total
// study time and the last 90 days of activity dates.
func (r *UserRepo) GetAggregate(ctx context.Context, userID uuid.UUID) (*models.UserAggregate, error) {
	agg := &models.UserAggregate{UserID: userID}

	err := r.pool.QueryRow(ctx, `
		SELECT xp, total_study_seconds FROM users WHERE id = $1
	`, userID).Scan(&agg.XP, &agg.TotalStudySeconds)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT day FROM activity_days
		WHERE user_id = $1
		  AND day >= CURRENT_DATE - INTERVAL '90 days'
		ORDER BY day DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		agg.ActivityDates = append(agg.ActivityDates, day)
	}
	return agg, rows.Err()
}

// AddXP applies an XP award and returns the new total.
func (r *UserRepo) AddXP(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	var xp int
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET xp = xp + $2 WHERE id = $1 RETURNING xp
	`, userID, amount).Scan(&xp)
	return xp, err
}

// AddStudyTime increments the user's lifetime study seconds.
func (r *UserRepo) AddStudyTime(ctx context.Context, userID uuid.UUID, seconds int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET total_study_seconds = total_study_seconds + $2 WHERE id = $1
	`, userID, seconds)
	return err
}

// RecordActivity marks the calendar day as having qualifying activity.
// Repeat activity within a day is a no-op.
func (r *UserRepo) RecordActivity(ctx context.Context, userID uuid.UUID, day time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_days (user_id, day)
		VALUES ($1, $2::DATE)
		ON CONFLICT (user_id, day) DO NOTHING
	`, userID, day)
	return err
}

// ListStreaksAtRisk returns users who were active yesterday but have no
// activity yet today, relative to the given reference day.
func (r *UserRepo) ListStreaksAtRisk(ctx context.Context, today time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM activity_days
		WHERE day = $1::DATE - 1
		  AND user_id NOT IN (
			SELECT user_id FROM activity_days WHERE day = $1::DATE
		  )
	`, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
