package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"gloqe-backend/internal/gamification"
	"gloqe-backend/internal/models"
	"gloqe-backend/internal/repository"
)

const (
	reminderPollInterval = 1 * time.Hour
	// Reminders only go out in the evening, when there is still time to
	// save the streak but the day is clearly slipping away.
	reminderEarliestHour = 18
)

type streakNotifier interface {
	SendToUser(userID uuid.UUID, msg interface{})
	Connected(userID uuid.UUID) bool
}

// NotificationScheduler nudges users whose streak is about to break:
// active yesterday, nothing yet today. Each user is reminded at most
// once per day, enforced through Redis so restarts do not re-send.
type NotificationScheduler struct {
	userRepo  *repository.UserRepo
	prefsRepo *repository.PrefsRepo
	notifier  streakNotifier
	stopChan  chan struct{}
}

func NewNotificationScheduler(userRepo *repository.UserRepo, prefsRepo *repository.PrefsRepo, notifier streakNotifier) *NotificationScheduler {
	return &NotificationScheduler{
		userRepo:  userRepo,
		prefsRepo: prefsRepo,
		notifier:  notifier,
		stopChan:  make(chan struct{}),
	}
}

func (s *NotificationScheduler) Start() {
	if s.userRepo == nil || s.notifier == nil {
		return
	}

	go s.loop()
	log.Printf("Notification scheduler started")
}

func (s *NotificationScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *NotificationScheduler) loop() {
	// Run on startup as well as by interval.
	s.sendStreakReminders(context.Background(), time.Now())

	ticker := time.NewTicker(reminderPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sendStreakReminders(context.Background(), time.Now())
		}
	}
}

func (s *NotificationScheduler) sendStreakReminders(ctx context.Context, now time.Time) {
	if now.Hour() < reminderEarliestHour {
		return
	}

	userIDs, err := s.userRepo.ListStreaksAtRisk(ctx, now)
	if err != nil {
		log.Printf("streak reminders: failed to list users at risk: %v", err)
		return
	}

	for _, userID := range userIDs {
		// Only push to users actually online; offline users find out
		// from the dashboard next time they open the app.
		if !s.notifier.Connected(userID) {
			continue
		}

		prefs, err := s.prefsRepo.GetPreferences(ctx, userID)
		if err != nil {
			log.Printf("streak reminders: failed to load prefs for user %s: %v", userID, err)
			continue
		}
		if prefs["streak_reminders"] == "off" {
			continue
		}

		first, err := s.prefsRepo.MarkStreakReminded(ctx, userID)
		if err != nil {
			log.Printf("streak reminders: failed to throttle user %s: %v", userID, err)
			continue
		}
		if !first {
			continue
		}

		agg, err := s.userRepo.GetAggregate(ctx, userID)
		if err != nil {
			log.Printf("streak reminders: failed to load aggregate for user %s: %v", userID, err)
			continue
		}

		s.notifier.SendToUser(userID, models.WSMessage{
			Type: "streak_reminder",
			Payload: map[string]interface{}{
				"streak": gamification.StreakOn(now, agg.ActivityDates),
			},
		})
	}
}
