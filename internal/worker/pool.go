package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"gloqe-backend/internal/models"
	"gloqe-backend/internal/repository"
)

// Pool drains the session analytics queue and persists reports. Reports
// are keyed by session ID, so a message delivered twice (worker crash
// between pop and insert, queue replay) still lands exactly once.
type Pool struct {
	redis       *redis.Client
	reportRepo  *repository.ReportRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, reportRepo *repository.ReportRepo, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		reportRepo:  reportRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{
		"queue:session-analytics",
	}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var report models.SessionReport
		if err := json.Unmarshal([]byte(result[1]), &report); err != nil {
			log.Printf("Worker %d: failed to parse report: %v", id, err)
			continue
		}

		log.Printf("Worker %d: processing report for session %s", id, report.SessionID)

		if err := p.processReport(ctx, &report); err != nil {
			p.handleFailure(ctx, &report, err)
		}
	}
}

func (p *Pool) processReport(ctx context.Context, report *models.SessionReport) error {
	if err := p.reportRepo.Insert(ctx, report); err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}
	return nil
}

// handleFailure requeues the report for one more attempt. Retry state
// travels with the message so workers stay stateless.
func (p *Pool) handleFailure(ctx context.Context, report *models.SessionReport, processErr error) {
	log.Printf("Report for session %s failed: %v", report.SessionID, processErr)

	retryKey := fmt.Sprintf("report_retry:%s", report.SessionID.String())
	attempts, err := p.redis.Incr(ctx, retryKey).Result()
	if err != nil {
		return
	}
	p.redis.Expire(ctx, retryKey, time.Hour)

	if attempts > 3 {
		log.Printf("Report for session %s dropped after %d attempts", report.SessionID, attempts-1)
		p.redis.Del(ctx, retryKey)
		return
	}

	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	p.redis.LPush(ctx, "queue:session-analytics", string(data))
}
