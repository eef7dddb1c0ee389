package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gloqe-backend/internal/models"
	"gloqe-backend/internal/progress"
	"gloqe-backend/internal/repository"
	"gloqe-backend/internal/session"
)

const (
	// Sessions at least this long count as qualifying activity and earn XP.
	qualifyingSessionMinutes = 5
	xpPerSession             = 10
)

// StudyService orchestrates the session lifecycle: in-memory state
// machines own timing, the repositories mirror lifecycle transitions to
// Postgres, and ending a session fans out to progress flush, XP award,
// activity tracking, analytics and the live snapshot channel.
type StudyService struct {
	manager     *session.Manager
	registry    *progress.Registry
	sessionRepo *repository.StudySessionRepo
	docRepo     *repository.DocumentRepo
	userRepo    *repository.UserRepo
	analytics   *AnalyticsService
	publisher   *SnapshotPublisher
}

func NewStudyService(
	manager *session.Manager,
	registry *progress.Registry,
	sessionRepo *repository.StudySessionRepo,
	docRepo *repository.DocumentRepo,
	userRepo *repository.UserRepo,
	analytics *AnalyticsService,
	publisher *SnapshotPublisher,
) *StudyService {
	return &StudyService{
		manager:     manager,
		registry:    registry,
		sessionRepo: sessionRepo,
		docRepo:     docRepo,
		userRepo:    userRepo,
		analytics:   analytics,
		publisher:   publisher,
	}
}

// Begin starts a session on a document. Starting again on the same
// document returns the running session unchanged; a session on another
// document must be ended first.
func (s *StudyService) Begin(ctx context.Context, userID, documentID uuid.UUID) (*models.StudySession, error) {
	if _, err := s.docRepo.Get(ctx, userID, documentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Document not found"}
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	// Sessions orphaned by a crashed client would otherwise block Begin
	// forever.
	if cleaned, err := s.sessionRepo.CleanupOrphans(ctx, userID); err != nil {
		log.Printf("study: orphan cleanup failed for user %s: %v", userID, err)
	} else if cleaned > 0 {
		log.Printf("study: closed %d orphaned sessions for user %s", cleaned, userID)
	}

	machine := s.manager.ForUser(userID)
	alreadyRunning := machine.Status() != ""
	sessionID, err := machine.Begin(documentID)
	if err != nil {
		return nil, &ConflictError{Message: "Another study session is already active"}
	}

	record := &models.StudySession{
		ID:         sessionID,
		UserID:     userID,
		DocumentID: documentID,
		Status:     machine.Status(),
	}
	if !alreadyRunning {
		if err := s.sessionRepo.Start(ctx, record); err != nil {
			machine.End()
			return nil, fmt.Errorf("failed to persist session: %w", err)
		}
		return record, nil
	}

	return s.sessionRepo.GetByID(ctx, sessionID, userID)
}

// Pause suspends the running session's clock.
func (s *StudyService) Pause(ctx context.Context, userID uuid.UUID) (models.SessionStatus, error) {
	machine := s.manager.ForUser(userID)
	if machine.Status() != models.SessionActive {
		return machine.Status(), &ConflictError{Message: "No active session to pause"}
	}
	return s.togglePause(ctx, userID, machine)
}

// Resume restarts the clock of a paused session.
func (s *StudyService) Resume(ctx context.Context, userID uuid.UUID) (models.SessionStatus, error) {
	machine := s.manager.ForUser(userID)
	if machine.Status() != models.SessionPaused {
		return machine.Status(), &ConflictError{Message: "No paused session to resume"}
	}
	return s.togglePause(ctx, userID, machine)
}

func (s *StudyService) togglePause(ctx context.Context, userID uuid.UUID, machine *session.Machine) (models.SessionStatus, error) {
	status, err := machine.TogglePause()
	if err != nil {
		return status, &ConflictError{Message: "No study session is running"}
	}
	if err := s.sessionRepo.SetPauseState(ctx, machine.SessionID(), userID, status, machine.Pauses()); err != nil {
		log.Printf("study: failed to persist pause state for session %s: %v", machine.SessionID(), err)
	}
	return status, nil
}

// Heartbeat records liveness for orphan detection and reports the
// session's elapsed study time.
func (s *StudyService) Heartbeat(ctx context.Context, userID uuid.UUID) (elapsedSeconds int, status models.SessionStatus, err error) {
	machine := s.manager.ForUser(userID)
	status = machine.Status()
	if status == "" {
		return 0, status, &NotFoundError{Message: "No study session is running"}
	}
	if err := s.sessionRepo.Heartbeat(ctx, machine.SessionID(), userID); err != nil {
		log.Printf("study: heartbeat persist failed for session %s: %v", machine.SessionID(), err)
	}
	return int(machine.Elapsed().Seconds()), status, nil
}

// End finalizes the session. The progress flush and the session record
// must land; XP, activity, analytics and the snapshot broadcast are all
// best-effort so a flaky collaborator can never trap a user in a
// session. Ending with no session running is a no-op.
func (s *StudyService) End(ctx context.Context, userID uuid.UUID, finalProgressPercent *float64) (*session.Summary, error) {
	machine := s.manager.ForUser(userID)
	documentID := machine.DocumentID()

	summary := machine.End()
	if summary.Zero() {
		return &summary, nil
	}

	// Flush outstanding progress before the session row closes so the
	// remote store and the session agree on accumulated time. A final
	// reading position is optional; without one the last reported value
	// stands.
	pipeline := s.registry.For(userID, documentID)
	var flushErr error
	if finalProgressPercent != nil {
		flushErr = pipeline.Save(ctx, *finalProgressPercent, summary.TotalSeconds, true)
	} else {
		pipeline.ReportSeconds(summary.TotalSeconds)
		flushErr = pipeline.Flush(ctx)
	}
	if flushErr != nil {
		log.Printf("study: final progress flush failed for session %s: %v", summary.SessionID, flushErr)
	}
	s.registry.Drop(userID, documentID)

	if err := s.sessionRepo.Finish(ctx, userID, summary); err != nil {
		return nil, fmt.Errorf("failed to finalize session: %w", err)
	}

	s.settleRewards(ctx, userID, summary)
	s.reportSession(ctx, userID, summary)
	s.publisher.Publish(ctx, userID)

	return &summary, nil
}

// SaveProgress reports a reading position for the document being
// studied. Writes are debounced and gated by the pipeline; immediate
// forces a synchronous save.
func (s *StudyService) SaveProgress(ctx context.Context, userID, documentID uuid.UUID, progressPercent float64, immediate bool) error {
	machine := s.manager.ForUser(userID)
	studySeconds := 0
	if machine.DocumentID() == documentID {
		studySeconds = int(machine.Elapsed().Seconds())
	}
	return s.registry.For(userID, documentID).Save(ctx, progressPercent, studySeconds, immediate)
}

// Current returns the running session's persisted record, or NotFound
// when idle.
func (s *StudyService) Current(ctx context.Context, userID uuid.UUID) (*models.StudySession, error) {
	machine := s.manager.ForUser(userID)
	if machine.Status() == "" {
		return nil, &NotFoundError{Message: "No study session is running"}
	}
	record, err := s.sessionRepo.GetByID(ctx, machine.SessionID(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	record.Status = machine.Status()
	record.TotalSeconds = int(machine.Elapsed().Seconds())
	return record, nil
}

func (s *StudyService) settleRewards(ctx context.Context, userID uuid.UUID, summary session.Summary) {
	if err := s.userRepo.AddStudyTime(ctx, userID, summary.TotalSeconds); err != nil {
		log.Printf("study: failed to add study time for user %s: %v", userID, err)
	}

	if summary.TotalMinutes < qualifyingSessionMinutes {
		return
	}
	if _, err := s.userRepo.AddXP(ctx, userID, xpPerSession); err != nil {
		log.Printf("study: failed to award XP for user %s: %v", userID, err)
	}
	if err := s.userRepo.RecordActivity(ctx, userID, summary.EndedAt.In(time.Local)); err != nil {
		log.Printf("study: failed to record activity for user %s: %v", userID, err)
	}
}

func (s *StudyService) reportSession(ctx context.Context, userID uuid.UUID, summary session.Summary) {
	report := &models.SessionReport{
		SessionID:    summary.SessionID,
		UserID:       userID,
		DocumentID:   summary.DocumentID,
		StartTime:    summary.StartedAt,
		EndTime:      summary.EndedAt,
		TotalMinutes: summary.TotalMinutes,
		Status:       string(models.SessionCompleted),
	}
	if doc, err := s.docRepo.Get(ctx, userID, summary.DocumentID); err == nil {
		report.DocumentTitle = doc.Title
		report.Subject = doc.Subject
	}
	s.analytics.EnqueueReport(ctx, report)
}
