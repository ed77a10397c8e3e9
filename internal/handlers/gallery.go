package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/middleware"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/repository"
)

type GalleryHandler struct {
	creations *repository.CreationRepo
}

func NewGalleryHandler(creations *repository.CreationRepo) *GalleryHandler {
	return &GalleryHandler{creations: creations}
}

func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	records, err := h.creations.ListByUser(r.Context(), userID, limit)
	if err != nil {
		log.Printf("Failed to list creations for user %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load creations", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"creations": records})
}

func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	deleted, err := h.creations.Delete(r.Context(), id, userID)
	if err != nil {
		log.Printf("Failed to delete creation %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete creation", r))
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Creation not found", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
