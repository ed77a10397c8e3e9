package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/middleware"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/models"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/services"
)

const maxUploadBytes = 100 * 1024 * 1024 // 100MB

type SessionHandler struct {
	sessions *services.SessionManager
}

func NewSessionHandler(sessions *services.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	writeJSON(w, http.StatusOK, h.sessions.Snapshot(userID))
}

func (h *SessionHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.SessionSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	snap, err := h.sessions.UpdateSettings(userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// Generate starts a video-generation cycle and returns its job id. Progress
// and the finished video arrive over the websocket channel or by polling
// the session snapshot.
func (h *SessionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	job, err := h.sessions.Generate(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// GenerateFrames runs the session-scoped frame cycle: on success the new
// frame list replaces the session's frames.
func (h *SessionHandler) GenerateFrames(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateFramesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	frames, err := h.sessions.GenerateFrames(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"frames": frames})
}

func (h *SessionHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("VALIDATION_ERROR", "File exceeds the 100MB limit", r))
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid multipart body", r))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Missing file field", r))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	userID := middleware.GetUserID(r.Context())

	snap, err := h.sessions.UploadMedia(r.Context(), userID, header.Filename, contentType, file)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (h *SessionHandler) ClearMedia(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	writeJSON(w, http.StatusOK, h.sessions.ClearMedia(userID))
}

func (h *SessionHandler) TogglePlayback(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	playing, changed := h.sessions.TogglePlayback(userID)
	writeJSON(w, http.StatusOK, map[string]bool{
		"is_playing": playing,
		"changed":    changed,
	})
}

func (h *SessionHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	info, err := h.sessions.Download(userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}
