package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"gloqe-backend/internal/middleware"
	"gloqe-backend/internal/services"
)

type SessionHandler struct {
	study *services.StudyService
}

func NewSessionHandler(study *services.StudyService) *SessionHandler {
	return &SessionHandler{study: study}
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		DocumentID string `json:"document_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	documentID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document_id", r))
		return
	}

	session, err := h.study.Begin(r.Context(), userID, documentID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session": session,
	})
}

func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	status, err := h.study.Pause(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	status, err := h.study.Resume(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (h *SessionHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	elapsed, status, err := h.study.Heartbeat(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          status,
		"elapsed_seconds": elapsed,
	})
}

func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		ProgressPercent *float64 `json:"progress_percent"`
	}
	// An empty body is fine: the session ends with whatever progress was
	// last reported.
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	summary, err := h.study.End(r.Context(), userID, req.ProgressPercent)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if summary.Zero() {
		writeJSON(w, http.StatusOK, map[string]string{"message": "No study session is running"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":    summary.SessionID,
		"document_id":   summary.DocumentID,
		"started_at":    summary.StartedAt,
		"ended_at":      summary.EndedAt,
		"total_seconds": summary.TotalSeconds,
		"total_minutes": summary.TotalMinutes,
	})
}

func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	session, err := h.study.Current(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
	})
}
