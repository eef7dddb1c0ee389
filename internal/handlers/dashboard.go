package handlers

import (
	"net/http"
	"strconv"

	"gloqe-backend/internal/middleware"
	"gloqe-backend/internal/repository"
	"gloqe-backend/internal/services"
)

type DashboardHandler struct {
	gamification *services.GamificationService
	sessionRepo  *repository.StudySessionRepo
	reportRepo   *repository.ReportRepo
}

func NewDashboardHandler(gamification *services.GamificationService, sessionRepo *repository.StudySessionRepo, reportRepo *repository.ReportRepo) *DashboardHandler {
	return &DashboardHandler{gamification: gamification, sessionRepo: sessionRepo, reportRepo: reportRepo}
}

func (h *DashboardHandler) Streak(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, err := h.gamification.Stats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"streak":  stats.Streak,
		"at_risk": stats.StreakAtRisk,
	})
}

func (h *DashboardHandler) Recent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "days must be between 1 and 90", r))
			return
		}
		days = parsed
	}

	sessions, err := h.sessionRepo.ListRecent(r.Context(), userID, days)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load sessions", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
	})
}

func (h *DashboardHandler) Reports(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	reports, err := h.reportRepo.ListByUser(r.Context(), userID, 50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load reports", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
	})
}
