package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"gloqe-backend/internal/models"
)

const analyticsQueue = "queue:session-analytics"

// AnalyticsService enqueues session reports for the worker pool. The
// queue is fire-and-forget: a report that cannot be enqueued is logged
// and dropped, never surfaced to the user ending their session.
type AnalyticsService struct {
	redis *redis.Client
}

func NewAnalyticsService(redisClient *redis.Client) *AnalyticsService {
	return &AnalyticsService{redis: redisClient}
}

func (s *AnalyticsService) EnqueueReport(ctx context.Context, report *models.SessionReport) {
	data, err := json.Marshal(report)
	if err != nil {
		log.Printf("analytics: failed to marshal report for session %s: %v", report.SessionID, err)
		return
	}
	if err := s.redis.LPush(ctx, analyticsQueue, string(data)).Err(); err != nil {
		log.Printf("analytics: failed to enqueue report for session %s: %v", report.SessionID, err)
	}
}
