package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/middleware"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/models"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/services"
)

type UserHandler struct {
	authService *services.AuthService
}

func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.authService.CurrentUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateSubscription changes the stored tier. Unknown tiers are ignored;
// the response always carries the current (possibly unchanged) user.
func (h *UserHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	user, err := h.authService.UpdateSubscription(r.Context(), userID, req.Tier)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Not authenticated", r))
		return
	}

	writeJSON(w, http.StatusOK, user)
}
