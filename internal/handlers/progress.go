package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gloqe-backend/internal/middleware"
	"gloqe-backend/internal/models"
	"gloqe-backend/internal/repository"
	"gloqe-backend/internal/services"
)

type ProgressHandler struct {
	study        *services.StudyService
	progressRepo *repository.ProgressRepo
}

func NewProgressHandler(study *services.StudyService, progressRepo *repository.ProgressRepo) *ProgressHandler {
	return &ProgressHandler{study: study, progressRepo: progressRepo}
}

// Save reports a reading position. The write is debounced server-side;
// immediate=true forces a synchronous save (used before navigation).
func (h *ProgressHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	documentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	var req struct {
		ProgressPercent float64 `json:"progress_percent"`
		Immediate       bool    `json:"immediate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.ProgressPercent < 0 || req.ProgressPercent > 100 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"progress_percent": "Must be between 0 and 100"}, r))
		return
	}

	if err := h.study.SaveProgress(r.Context(), userID, documentID, req.ProgressPercent, req.Immediate); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save progress", r))
		return
	}

	if req.Immediate {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Progress saved"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Progress queued"})
}

func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	documentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	record, err := h.progressRepo.Get(r.Context(), userID, documentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A document never opened simply has zero progress.
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"progress": models.ProgressRecord{UserID: userID, DocumentID: documentID},
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load progress", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"progress": record,
	})
}
