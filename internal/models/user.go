package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	AvatarURL   *string    `json:"avatar_url"`
	XP          int        `json:"xp"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// UserAggregate is the remote source of truth for gamification state:
// total XP plus the calendar days with qualifying activity. Level and
// streak are derived, never stored.
type UserAggregate struct {
	UserID            uuid.UUID   `json:"user_id"`
	XP                int         `json:"xp"`
	TotalStudySeconds int         `json:"total_study_seconds"`
	ActivityDates     []time.Time `json:"activity_dates"`
}
