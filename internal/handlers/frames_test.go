package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/services"
)

func newFramesTestHandler(t *testing.T, upstream http.HandlerFunc, apiKey string) (*FramesHandler, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	provider := services.NewOpenAIProvider(apiKey, srv.URL)
	frameService := services.NewFrameService(provider, nil, services.StrategySingle)
	return NewFramesHandler(frameService), srv
}

func postFrames(t *testing.T, h *FramesHandler, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/frames/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Generate(rr, req)

	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return rr, resp
}

func TestFramesGenerate_Success(t *testing.T) {
	h, _ := newFramesTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"url": "https://img.example.com/f.png"}},
		})
	}, "key")

	rr, resp := postFrames(t, h, `{"prompt":"a sunset","numberOfFrames":3}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	frames, ok := resp["frames"].([]interface{})
	if !ok {
		t.Fatalf("Expected frames array, got %v", resp)
	}
	if len(frames) != 3 {
		t.Errorf("Expected 3 frames, got %d", len(frames))
	}
}

func TestFramesGenerate_MissingParams(t *testing.T) {
	h, _ := newFramesTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Upstream must not be called for invalid requests")
	}, "key")

	tests := []struct {
		name string
		body string
	}{
		{"no prompt", `{"numberOfFrames":3}`},
		{"no frame count", `{"prompt":"a sunset"}`},
		{"empty body", `{}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr, resp := postFrames(t, h, tc.body)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rr.Code)
			}
			want := "Missing required parameters: prompt and numberOfFrames required"
			if resp["error"] != want {
				t.Errorf("Expected error %q, got %v", want, resp["error"])
			}
		})
	}
}

func TestFramesGenerate_CheckConfig(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		h, _ := newFramesTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("Config check must not call upstream")
		}, "key")

		rr, resp := postFrames(t, h, `{"checkConfig":true}`)

		if rr.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rr.Code)
		}
		if resp["status"] != "Configuration valid" {
			t.Errorf("Expected status 'Configuration valid', got %v", resp["status"])
		}
	})

	t.Run("missing key", func(t *testing.T) {
		h, _ := newFramesTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("Config check must not call upstream")
		}, "")

		rr, resp := postFrames(t, h, `{"checkConfig":true}`)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d", rr.Code)
		}
		if resp["error"] != "API configuration error" {
			t.Errorf("Expected 'API configuration error', got %v", resp["error"])
		}
	})
}

func TestFramesGenerate_UpstreamFailure(t *testing.T) {
	h, _ := newFramesTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "rate limited"},
		})
	}, "key")

	rr, resp := postFrames(t, h, `{"prompt":"a sunset","numberOfFrames":2}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rr.Code)
	}
	if resp["error"] != "Error generating frames" {
		t.Errorf("Expected 'Error generating frames', got %v", resp["error"])
	}
	if resp["details"] == nil {
		t.Error("Expected upstream details to be forwarded")
	}
}

func TestFramesGenerate_FrameCountOutOfRange(t *testing.T) {
	h, _ := newFramesTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Upstream must not be called for invalid requests")
	}, "key")

	rr, resp := postFrames(t, h, `{"prompt":"a sunset","numberOfFrames":11}`)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
	if resp["error"] == nil {
		t.Error("Expected an error message")
	}
}

func TestFramesGenerate_InvalidJSON(t *testing.T) {
	h, _ := newFramesTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Upstream must not be called for invalid requests")
	}, "key")

	rr, resp := postFrames(t, h, `{not json`)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
	if resp["error"] != "Invalid request body" {
		t.Errorf("Expected 'Invalid request body', got %v", resp["error"])
	}
}
