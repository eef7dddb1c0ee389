package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gloqe-backend/internal/gamification"
	"gloqe-backend/internal/repository"
)

// GamificationStats is the derived view of a user's aggregate record.
// Level and streak are computed on read; only XP and activity days are
// stored.
type GamificationStats struct {
	XP                int     `json:"xp"`
	Level             int     `json:"level"`
	XPToNextLevel     int     `json:"xp_to_next_level"`
	LevelProgress     float64 `json:"level_progress"`
	Streak            int     `json:"streak"`
	StreakAtRisk      bool    `json:"streak_at_risk"`
	TotalStudySeconds int     `json:"total_study_seconds"`
}

type GamificationService struct {
	userRepo *repository.UserRepo
}

func NewGamificationService(userRepo *repository.UserRepo) *GamificationService {
	return &GamificationService{userRepo: userRepo}
}

func (s *GamificationService) Stats(ctx context.Context, userID uuid.UUID) (*GamificationStats, error) {
	agg, err := s.userRepo.GetAggregate(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "User not found"}
		}
		return nil, fmt.Errorf("failed to load aggregate: %w", err)
	}

	return &GamificationStats{
		XP:                agg.XP,
		Level:             gamification.LevelOf(agg.XP),
		XPToNextLevel:     gamification.XPToNextLevel(agg.XP),
		LevelProgress:     gamification.ProgressFraction(agg.XP),
		Streak:            gamification.StreakOf(agg.ActivityDates),
		StreakAtRisk:      gamification.AtRisk(agg.ActivityDates),
		TotalStudySeconds: agg.TotalStudySeconds,
	}, nil
}
