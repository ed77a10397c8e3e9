package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/models"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/services"
)

// FramesHandler is the stateless frame-generation proxy. Its wire contract
// predates the rest of the API and is kept as-is for existing frontends:
// flat {frames}, {status} and {error, details} bodies rather than the
// shared error envelope.
type FramesHandler struct {
	frames *services.FrameService
}

func NewFramesHandler(frames *services.FrameService) *FramesHandler {
	return &FramesHandler{frames: frames}
}

func (h *FramesHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateFramesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFlat(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid request body"})
		return
	}

	if req.CheckConfig {
		if err := h.frames.CheckConfig(); err != nil {
			writeFlat(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
			return
		}
		writeFlat(w, http.StatusOK, map[string]interface{}{"status": "Configuration valid"})
		return
	}

	if req.Prompt == "" || req.NumberOfFrames == 0 {
		writeFlat(w, http.StatusBadRequest, map[string]interface{}{
			"error": "Missing required parameters: prompt and numberOfFrames required",
		})
		return
	}

	frames, err := h.frames.Generate(r.Context(), req)
	if err != nil {
		switch e := err.(type) {
		case *services.ValidationError:
			writeFlat(w, http.StatusBadRequest, map[string]interface{}{"error": firstField(e.Fields)})
		case *services.ConfigError:
			writeFlat(w, http.StatusInternalServerError, map[string]interface{}{"error": e.Message})
		case *services.UpstreamError:
			body := map[string]interface{}{"error": e.Message}
			if e.Details != nil {
				body["details"] = e.Details
			}
			writeFlat(w, http.StatusInternalServerError, body)
		default:
			log.Printf("Frame generation failed: %v", err)
			writeFlat(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		}
		return
	}

	writeFlat(w, http.StatusOK, map[string]interface{}{"frames": frames})
}

func writeFlat(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func firstField(fields map[string]string) string {
	for _, msg := range fields {
		return msg
	}
	return "Validation failed"
}
