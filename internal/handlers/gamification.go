package handlers

import (
	"net/http"

	"gloqe-backend/internal/middleware"
	"gloqe-backend/internal/services"
)

type GamificationHandler struct {
	gamification *services.GamificationService
}

func NewGamificationHandler(gamification *services.GamificationService) *GamificationHandler {
	return &GamificationHandler{gamification: gamification}
}

func (h *GamificationHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, err := h.gamification.Stats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
