package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/models"
)

// capturePublisher records events and signals completion types on a channel.
type capturePublisher struct {
	mu     sync.Mutex
	events []models.WSMessage
	done   chan string
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{done: make(chan string, 16)}
}

func (p *capturePublisher) Publish(_ context.Context, _ string, msg models.WSMessage) {
	p.mu.Lock()
	p.events = append(p.events, msg)
	p.mu.Unlock()
	p.done <- msg.Type
}

func (p *capturePublisher) waitFor(t *testing.T, msgType string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-p.done:
			if got == msgType {
				return
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for %q event", msgType)
		}
	}
}

type captureHistory struct {
	mu      sync.Mutex
	records []models.CreationRecord
}

func (h *captureHistory) Create(_ context.Context, rec *models.CreationRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, *rec)
	return nil
}

func newTestSessionManager(t *testing.T) (*SessionManager, *capturePublisher, *captureHistory) {
	t.Helper()
	return newFrameTestSessionManager(t, nil)
}

func newFrameTestSessionManager(t *testing.T, frames *FrameService) (*SessionManager, *capturePublisher, *captureHistory) {
	t.Helper()
	pub := newCapturePublisher()
	hist := &captureHistory{}

	m, err := NewSessionManager(frames, nil, pub, hist, t.TempDir(), 10*time.Millisecond, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m, pub, hist
}

func TestSession_Defaults(t *testing.T) {
	m, _, _ := newTestSessionManager(t)

	snap := m.Snapshot("u1")

	if snap.Duration != 15 {
		t.Errorf("Expected default duration 15, got %d", snap.Duration)
	}
	if snap.AspectRatio != "16:9" {
		t.Errorf("Expected default aspect ratio 16:9, got %q", snap.AspectRatio)
	}
	if snap.Style != "Vibrant" {
		t.Errorf("Expected default style Vibrant, got %q", snap.Style)
	}
	if snap.Transition != "fade" {
		t.Errorf("Expected default transition fade, got %q", snap.Transition)
	}
	if snap.MusicGenre != "Ambient" {
		t.Errorf("Expected default music genre Ambient, got %q", snap.MusicGenre)
	}
}

func TestUpdateSettings(t *testing.T) {
	m, _, _ := newTestSessionManager(t)

	prompt := "a calm lake at dawn"
	duration := 30
	snap, err := m.UpdateSettings("u1", models.SessionSettings{Prompt: &prompt, Duration: &duration})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	if snap.Prompt != prompt {
		t.Errorf("Prompt not applied: %q", snap.Prompt)
	}
	if snap.Duration != 30 {
		t.Errorf("Duration not applied: %d", snap.Duration)
	}
	// Untouched fields keep their defaults.
	if snap.Style != "Vibrant" {
		t.Errorf("Partial update must not reset style, got %q", snap.Style)
	}
}

func TestUpdateSettings_Validation(t *testing.T) {
	m, _, _ := newTestSessionManager(t)

	badDuration := 0
	badAspect := "3:2"
	badTransition := "spin"

	tests := []struct {
		name  string
		req   models.SessionSettings
		field string
	}{
		{"duration too small", models.SessionSettings{Duration: &badDuration}, "duration"},
		{"unsupported aspect ratio", models.SessionSettings{AspectRatio: &badAspect}, "aspect_ratio"},
		{"unsupported transition", models.SessionSettings{Transition: &badTransition}, "transition"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.UpdateSettings("u1", tc.req)
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if _, present := verr.Fields[tc.field]; !present {
				t.Errorf("Expected field error for %q, fields: %v", tc.field, verr.Fields)
			}
		})
	}
}

func TestGenerate_EmptySession(t *testing.T) {
	m, _, _ := newTestSessionManager(t)

	_, err := m.Generate(context.Background(), "u1")
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("Expected ValidationError for empty session, got %v", err)
	}

	snap := m.Snapshot("u1")
	if snap.IsGenerating {
		t.Error("Rejected generation must not leave the session generating")
	}
	if snap.VideoGenerated {
		t.Error("Rejected generation must not produce a video")
	}
}

func TestGenerate_FromPrompt(t *testing.T) {
	m, pub, hist := newTestSessionManager(t)

	prompt := "a city timelapse"
	if _, err := m.UpdateSettings("u1", models.SessionSettings{Prompt: &prompt}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	job, err := m.Generate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if job.Status != models.JobStatusQueued {
		t.Errorf("Expected queued job, got %q", job.Status)
	}

	pub.waitFor(t, "generation_completed")

	snap := m.Snapshot("u1")
	if !snap.VideoGenerated {
		t.Fatal("Expected a generated video")
	}
	if snap.IsGenerating {
		t.Error("Generation flag must clear on completion")
	}
	if snap.Video == nil || snap.Video.Source != models.SourcePrompt {
		t.Errorf("Expected prompt-sourced video, got %+v", snap.Video)
	}
	if !strings.HasPrefix(snap.Video.URL, "https://") {
		t.Errorf("Expected a sample video URL, got %q", snap.Video.URL)
	}

	hist.mu.Lock()
	defer hist.mu.Unlock()
	if len(hist.records) != 1 {
		t.Fatalf("Expected 1 recorded creation, got %d", len(hist.records))
	}
	if hist.records[0].Title != prompt {
		t.Errorf("Expected creation titled after the prompt, got %q", hist.records[0].Title)
	}
}

func TestGenerate_Reentrancy(t *testing.T) {
	m, pub, _ := newTestSessionManager(t)

	prompt := "busy street"
	if _, err := m.UpdateSettings("u1", models.SessionSettings{Prompt: &prompt}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	if _, err := m.Generate(context.Background(), "u1"); err != nil {
		t.Fatalf("First Generate failed: %v", err)
	}
	if _, err := m.Generate(context.Background(), "u1"); err == nil {
		t.Error("Expected second Generate to be rejected while one is in flight")
	} else if _, ok := err.(*ConflictError); !ok {
		t.Errorf("Expected ConflictError, got %v", err)
	}

	pub.waitFor(t, "generation_completed")

	// Once the cycle finishes a new one is allowed.
	if _, err := m.Generate(context.Background(), "u1"); err != nil {
		t.Errorf("Generate after completion failed: %v", err)
	}
	pub.waitFor(t, "generation_completed")
}

func TestUploadMedia_AnalysisCompletes(t *testing.T) {
	m, pub, _ := newTestSessionManager(t)

	snap, err := m.UploadMedia(context.Background(), "u1", "photo.jpg", "image/jpeg", strings.NewReader("fake-image"))
	if err != nil {
		t.Fatalf("UploadMedia failed: %v", err)
	}
	if !snap.IsAnalyzing {
		t.Error("Upload must start analysis")
	}
	if snap.MediaFilename != "photo.jpg" {
		t.Errorf("Expected original filename kept, got %q", snap.MediaFilename)
	}

	pub.waitFor(t, "analysis_complete")

	after := m.Snapshot("u1")
	if after.IsAnalyzing {
		t.Error("Analysis flag must clear on completion")
	}
	if len(after.AnalyzedTags) == 0 {
		t.Error("Expected analysis tags after completion")
	}
}

func TestUploadMedia_StaleAnalysisLeavesNewerUploadAlone(t *testing.T) {
	pub := newCapturePublisher()
	// Analysis delay long enough that the live run is still pending while
	// the stale run is exercised.
	m, err := NewSessionManager(nil, nil, pub, &captureHistory{}, t.TempDir(), 10*time.Millisecond, 300*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	t.Cleanup(m.Close)

	if _, err := m.UploadMedia(context.Background(), "u1", "clip.mp4", "video/mp4", strings.NewReader("vid")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	// A run cancelled after its delay fired but before it took the session
	// lock must not touch the in-flight analysis.
	s := m.lookup("u1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.finishAnalysis(ctx, s, "image")

	snap := m.Snapshot("u1")
	if !snap.IsAnalyzing {
		t.Error("Stale run must not clear the analysis flag")
	}
	if len(snap.AnalyzedTags) != 0 {
		t.Errorf("Stale run must not install tags, got %v", snap.AnalyzedTags)
	}

	pub.waitFor(t, "analysis_complete")

	after := m.Snapshot("u1")
	if after.IsAnalyzing {
		t.Error("Live analysis must still complete")
	}
	found := false
	for _, tag := range after.AnalyzedTags {
		if tag == "motion" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected video tags from the live analysis, got %v", after.AnalyzedTags)
	}
}

func TestUploadMedia_ReplacementRemovesOldFile(t *testing.T) {
	m, _, _ := newTestSessionManager(t)

	if _, err := m.UploadMedia(context.Background(), "u1", "first.jpg", "image/jpeg", strings.NewReader("one")); err != nil {
		t.Fatalf("First upload failed: %v", err)
	}
	firstPath := storedFilePath(t, m.storagePath)

	if _, err := m.UploadMedia(context.Background(), "u1", "second.jpg", "image/jpeg", strings.NewReader("two")); err != nil {
		t.Fatalf("Second upload failed: %v", err)
	}

	if _, err := os.Stat(firstPath); !os.IsNotExist(err) {
		t.Errorf("Expected first stored file to be removed, stat err: %v", err)
	}
	if got := storedFileCount(t, m.storagePath); got != 1 {
		t.Errorf("Expected exactly 1 stored file, got %d", got)
	}
}

func TestUploadMedia_RejectsUnknownType(t *testing.T) {
	m, _, _ := newTestSessionManager(t)

	_, err := m.UploadMedia(context.Background(), "u1", "doc.pdf", "application/pdf", strings.NewReader("x"))
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("Expected ValidationError for unsupported type, got %v", err)
	}
	if got := storedFileCount(t, m.storagePath); got != 0 {
		t.Errorf("Rejected upload must not leave files behind, got %d", got)
	}
}

func TestSessionGenerateFrames_ReplacesListOnlyOnSuccess(t *testing.T) {
	var fail int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&fail) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"message": "upstream boom"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"url": "https://img.example.com/frame.png"}},
		})
	}))
	defer srv.Close()

	fs := NewFrameService(NewOpenAIProvider("key", srv.URL), nil, StrategySingle)
	m, _, _ := newFrameTestSessionManager(t, fs)

	frames, err := m.GenerateFrames(context.Background(), "u1", models.GenerateFramesRequest{
		Prompt:         "a forest",
		NumberOfFrames: 2,
	})
	if err != nil {
		t.Fatalf("GenerateFrames failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(frames))
	}

	snap := m.Snapshot("u1")
	if len(snap.Frames) != 2 {
		t.Fatalf("Expected frames stored on the session, got %d", len(snap.Frames))
	}

	// A failed cycle must leave the stored list untouched.
	atomic.StoreInt32(&fail, 1)
	if _, err := m.GenerateFrames(context.Background(), "u1", models.GenerateFramesRequest{
		Prompt:         "a desert",
		NumberOfFrames: 3,
	}); err == nil {
		t.Fatal("Expected GenerateFrames to fail against a broken upstream")
	}

	after := m.Snapshot("u1")
	if len(after.Frames) != 2 {
		t.Errorf("Failed cycle must not replace frames, got %d", len(after.Frames))
	}
	for i := range after.Frames {
		if after.Frames[i] != snap.Frames[i] {
			t.Errorf("Frame %d changed after failed cycle: %q vs %q", i, after.Frames[i], snap.Frames[i])
		}
	}
	if after.IsGeneratingFrames {
		t.Error("Frame-cycle flag must clear after a failure")
	}
}

func TestSessionGenerateFrames_Reentrancy(t *testing.T) {
	entered := make(chan struct{}, 4)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"url": "https://img.example.com/frame.png"}},
		})
	}))
	defer srv.Close()

	fs := NewFrameService(NewOpenAIProvider("key", srv.URL), nil, StrategySingle)
	m, _, _ := newFrameTestSessionManager(t, fs)

	req := models.GenerateFramesRequest{Prompt: "a river", NumberOfFrames: 2}

	firstDone := make(chan error, 1)
	go func() {
		_, err := m.GenerateFrames(context.Background(), "u1", req)
		firstDone <- err
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the first cycle to reach the upstream")
	}

	// A second cycle while one is in flight is rejected.
	if _, err := m.GenerateFrames(context.Background(), "u1", req); err == nil {
		t.Error("Expected concurrent GenerateFrames to be rejected")
	} else if _, ok := err.(*ConflictError); !ok {
		t.Errorf("Expected ConflictError, got %v", err)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("First GenerateFrames failed: %v", err)
	}

	// The flag clears with the cycle, so a fresh one is allowed.
	if _, err := m.GenerateFrames(context.Background(), "u1", req); err != nil {
		t.Errorf("GenerateFrames after completion failed: %v", err)
	}
}

func TestGenerate_UsesUploadedVideoAndRebasesOnReplacement(t *testing.T) {
	m, pub, _ := newTestSessionManager(t)

	if _, err := m.UploadMedia(context.Background(), "u1", "clip.mp4", "video/mp4", strings.NewReader("vid-one")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if _, err := m.Generate(context.Background(), "u1"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	pub.waitFor(t, "generation_completed")

	snap := m.Snapshot("u1")
	if snap.Video == nil || snap.Video.Source != models.SourceUploadedMedia {
		t.Fatalf("Expected uploaded-media video, got %+v", snap.Video)
	}
	if !strings.HasPrefix(snap.Video.URL, "/media/") {
		t.Fatalf("Expected locally served video URL, got %q", snap.Video.URL)
	}
	firstPath := storedFilePath(t, m.storagePath)

	// Replacing the backing file moves the existing video onto the new one
	// and releases the old file.
	snap2, err := m.UploadMedia(context.Background(), "u1", "clip2.mp4", "video/mp4", strings.NewReader("vid-two"))
	if err != nil {
		t.Fatalf("Replacement upload failed: %v", err)
	}
	if snap2.Video == nil || snap2.Video.URL == snap.Video.URL {
		t.Errorf("Expected video rebased onto the new upload, got %+v", snap2.Video)
	}
	if _, err := os.Stat(firstPath); !os.IsNotExist(err) {
		t.Errorf("Expected superseded backing file removed, stat err: %v", err)
	}
	if got := storedFileCount(t, m.storagePath); got != 1 {
		t.Errorf("Expected exactly 1 stored file after replacement, got %d", got)
	}
}

func TestClearMedia_DropsLocallyBackedVideo(t *testing.T) {
	m, pub, _ := newTestSessionManager(t)

	if _, err := m.UploadMedia(context.Background(), "u1", "clip.mp4", "video/mp4", strings.NewReader("vid")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if _, err := m.Generate(context.Background(), "u1"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	pub.waitFor(t, "generation_completed")

	snap := m.ClearMedia("u1")

	if snap.Video != nil {
		t.Errorf("Video backed by removed media must be dropped, got %+v", snap.Video)
	}
	if snap.VideoGenerated {
		t.Error("VideoGenerated must clear with the backing file")
	}
	if got := storedFileCount(t, m.storagePath); got != 0 {
		t.Errorf("Expected no stored files after clear, got %d", got)
	}
}

func TestClearMedia_KeepsRemoteVideo(t *testing.T) {
	m, pub, _ := newTestSessionManager(t)

	prompt := "a remote-sourced video"
	if _, err := m.UpdateSettings("u1", models.SessionSettings{Prompt: &prompt}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if _, err := m.Generate(context.Background(), "u1"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	pub.waitFor(t, "generation_completed")

	if _, err := m.UploadMedia(context.Background(), "u1", "photo.jpg", "image/jpeg", strings.NewReader("img")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	snap := m.ClearMedia("u1")
	if snap.Video == nil {
		t.Error("Clearing media must not drop a video it does not back")
	}
}

func TestTogglePlayback(t *testing.T) {
	m, pub, _ := newTestSessionManager(t)

	if playing, changed := m.TogglePlayback("u1"); playing || changed {
		t.Errorf("Toggle without a video must be a no-op, got playing=%v changed=%v", playing, changed)
	}

	prompt := "toggle test"
	if _, err := m.UpdateSettings("u1", models.SessionSettings{Prompt: &prompt}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if _, err := m.Generate(context.Background(), "u1"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	pub.waitFor(t, "generation_completed")

	if playing, changed := m.TogglePlayback("u1"); !playing || !changed {
		t.Errorf("Expected first toggle to start playback, got playing=%v changed=%v", playing, changed)
	}
	if playing, _ := m.TogglePlayback("u1"); playing {
		t.Error("Expected second toggle to pause")
	}
}

func TestDownload(t *testing.T) {
	m, pub, _ := newTestSessionManager(t)

	if _, err := m.Download("u1"); err == nil {
		t.Error("Expected Download without a video to fail")
	} else if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("Expected NotFoundError, got %v", err)
	}

	prompt := "downloadable"
	if _, err := m.UpdateSettings("u1", models.SessionSettings{Prompt: &prompt}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if _, err := m.Generate(context.Background(), "u1"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	pub.waitFor(t, "generation_completed")

	info, err := m.Download("u1")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if !strings.HasPrefix(info.Filename, "AI-generated-video-") || !strings.HasSuffix(info.Filename, ".mp4") {
		t.Errorf("Unexpected download filename %q", info.Filename)
	}
	if info.URL == "" {
		t.Error("Expected a download URL")
	}
}

func TestCloseSession_RemovesStoredFiles(t *testing.T) {
	m, _, _ := newTestSessionManager(t)

	if _, err := m.UploadMedia(context.Background(), "u1", "photo.jpg", "image/jpeg", strings.NewReader("img")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	m.CloseSession("u1")

	if got := storedFileCount(t, m.storagePath); got != 0 {
		t.Errorf("Expected no stored files after session close, got %d", got)
	}

	// A fresh session comes back with defaults.
	snap := m.Snapshot("u1")
	if snap.MediaFilename != "" {
		t.Errorf("Expected a fresh session, got media %q", snap.MediaFilename)
	}
}

func TestSweepIdle(t *testing.T) {
	m, _, _ := newTestSessionManager(t)

	m.Session("u1")
	m.sweepIdle(0)

	m.mu.Lock()
	_, exists := m.sessions["u1"]
	m.mu.Unlock()
	if exists {
		t.Error("Expected idle session to be swept")
	}
}

func TestCreationTitle(t *testing.T) {
	tests := []struct {
		prompt string
		source string
		want   string
	}{
		{"a cat video", models.SourcePrompt, "a cat video"},
		{"", models.SourceUploadedMedia, "Uploaded media video"},
		{"", models.SourceAIFrames, "AI frame video"},
		{"", models.SourcePrompt, "Untitled video"},
		{strings.Repeat("x", 100), models.SourcePrompt, strings.Repeat("x", 80)},
	}

	for _, tc := range tests {
		if got := creationTitle(tc.prompt, tc.source); got != tc.want {
			t.Errorf("creationTitle(%q, %q) = %q, want %q", tc.prompt, tc.source, got, tc.want)
		}
	}
}

// Test helpers

func storedFileCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read storage dir: %v", err)
	}
	return len(entries)
}

func storedFilePath(t *testing.T, dir string) string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read storage dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected exactly 1 stored file, got %d", len(entries))
	}
	return filepath.Join(dir, entries[0].Name())
}
