package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gloqe-backend/internal/middleware"
	"gloqe-backend/internal/repository"
)

type UserHandler struct {
	userRepo  *repository.UserRepo
	prefsRepo *repository.PrefsRepo
}

func NewUserHandler(userRepo *repository.UserRepo, prefsRepo *repository.PrefsRepo) *UserHandler {
	return &UserHandler{userRepo: userRepo, prefsRepo: prefsRepo}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": user,
	})
}

func (h *UserHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	prefs, err := h.prefsRepo.GetPreferences(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load preferences", r))
		return
	}
	if prefs == nil {
		prefs = map[string]string{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"preferences": prefs,
	})
}

func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.prefsRepo.SetPreferences(r.Context(), userID, req); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update preferences", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Preferences updated"})
}

func (h *UserHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	favorites, err := h.prefsRepo.ListFavorites(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load favorites", r))
		return
	}
	if favorites == nil {
		favorites = []uuid.UUID{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"favorites": favorites,
	})
}

func (h *UserHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	documentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	if err := h.prefsRepo.AddFavorite(r.Context(), userID, documentID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to add favorite", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Favorite added"})
}

func (h *UserHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	documentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	if err := h.prefsRepo.RemoveFavorite(r.Context(), userID, documentID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to remove favorite", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Favorite removed"})
}
