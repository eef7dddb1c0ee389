package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gloqe-backend/internal/gamification"
	"gloqe-backend/internal/repository"
)

// SnapshotPublisher pushes the user's full gamification aggregate over
// Redis pub/sub whenever it changes. Subscribers diff consecutive
// snapshots themselves, so publishing is stateless and a dropped message
// costs nothing: the next snapshot carries the complete state.
type SnapshotPublisher struct {
	userRepo *repository.UserRepo
	redis    *redis.Client
}

func NewSnapshotPublisher(userRepo *repository.UserRepo, redisClient *redis.Client) *SnapshotPublisher {
	return &SnapshotPublisher{userRepo: userRepo, redis: redisClient}
}

// Publish loads the current aggregate and broadcasts it on the user's
// update channel. Best-effort: failures are logged, never returned.
func (p *SnapshotPublisher) Publish(ctx context.Context, userID uuid.UUID) {
	agg, err := p.userRepo.GetAggregate(ctx, userID)
	if err != nil {
		log.Printf("snapshot publish: failed to load aggregate for user %s: %v", userID, err)
		return
	}

	snapshot := gamification.Snapshot{
		XP:                agg.XP,
		TotalStudySeconds: agg.TotalStudySeconds,
		ActivityDates:     agg.ActivityDates,
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("snapshot publish: failed to marshal snapshot for user %s: %v", userID, err)
		return
	}

	p.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", userID.String()), string(data))
}
