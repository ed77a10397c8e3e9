package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/models"
)

const GenerationQueue = "queue:video-generation"

// Stand-in outputs for the simulated renderer.
var sampleVideos = []string{
	"https://storage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
	"https://storage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4",
	"https://storage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4",
}

// Canned analysis results per media class.
var analysisTags = map[string][]string{
	"image": {"person", "landscape", "nature", "outdoor", "daytime"},
	"video": {"motion", "urban", "people", "vehicle", "building"},
}

// CreationStore records finished generations for the gallery.
type CreationStore interface {
	Create(ctx context.Context, rec *models.CreationRecord) error
}

type storedMedia struct {
	path     string // absolute path under the storage dir
	stored   string // stored filename
	original string // filename as uploaded
	mimeType string
	class    string // "image" | "video" | ""
}

// CreatorSession is one user's in-progress video project: the form fields,
// the uploaded media reference, generated frames and the single generated
// video. It replaces ambient per-tab state with an owned object whose
// lifetime the manager controls; ctx cancellation stops any pending
// simulated work so nothing mutates a torn-down session.
type CreatorSession struct {
	mu     sync.Mutex
	userID string

	prompt      string
	duration    int
	aspectRatio string
	style       string
	transition  string
	musicGenre  string
	textOverlay models.TextOverlay

	media          *storedMedia
	analyzedTags   []string
	frames         []string
	video          *models.GeneratedVideo
	videoLocalPath string // set when the video is backed by a session-owned file

	isGenerating       bool
	isAnalyzing        bool
	isGeneratingFrames bool
	isPlaying          bool
	videoGenerated     bool

	analysisCancel context.CancelFunc
	lastActivity   time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*CreatorSession

	frames    *FrameService
	queue     *redis.Client // nil runs generation inline (dev/test mode)
	publisher EventPublisher
	history   CreationStore

	storagePath     string
	generationDelay time.Duration
	analysisDelay   time.Duration

	baseCtx  context.Context
	baseStop context.CancelFunc
	stopChan chan struct{}
}

func NewSessionManager(
	frames *FrameService,
	queue *redis.Client,
	publisher EventPublisher,
	history CreationStore,
	storagePath string,
	generationDelay, analysisDelay time.Duration,
) (*SessionManager, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &SessionManager{
		sessions:        make(map[string]*CreatorSession),
		frames:          frames,
		queue:           queue,
		publisher:       publisher,
		history:         history,
		storagePath:     storagePath,
		generationDelay: generationDelay,
		analysisDelay:   analysisDelay,
		baseCtx:         ctx,
		baseStop:        cancel,
		stopChan:        make(chan struct{}),
	}

	go m.sweepLoop()
	return m, nil
}

// Session returns the user's session, creating it on first use.
func (m *SessionManager) Session(userID string) *CreatorSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		ctx, cancel := context.WithCancel(m.baseCtx)
		s = &CreatorSession{
			userID:      userID,
			duration:    15,
			aspectRatio: "16:9",
			style:       "Vibrant",
			transition:  "fade",
			musicGenre:  "Ambient",
			ctx:         ctx,
			cancel:      cancel,
		}
		m.sessions[userID] = s
	}
	s.lastActivity = time.Now()
	return s
}

func (m *SessionManager) lookup(userID string) *CreatorSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID]
}

// Close tears down every session and stops the sweep loop.
func (m *SessionManager) Close() {
	select {
	case <-m.stopChan:
	default:
		close(m.stopChan)
	}
	m.baseStop()

	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, s := range m.sessions {
		m.teardown(s)
		delete(m.sessions, userID)
	}
}

// CloseSession removes a single user's session and its stored files.
func (m *SessionManager) CloseSession(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		m.teardown(s)
		delete(m.sessions, userID)
	}
}

func (m *SessionManager) teardown(s *CreatorSession) {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.media != nil {
		removeStoredFile(s.media.path)
		s.media = nil
	}
	s.videoLocalPath = ""
}

func (m *SessionManager) sweepLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.sweepIdle(24 * time.Hour)
		}
	}
}

func (m *SessionManager) sweepIdle(maxIdle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for userID, s := range m.sessions {
		if now.Sub(s.lastActivity) > maxIdle {
			m.teardown(s)
			delete(m.sessions, userID)
			log.Printf("Swept idle session for user %s", userID)
		}
	}
}

// UpdateSettings applies the editable form fields, validating enums and
// ranges. Fields not present in the request are left alone.
func (m *SessionManager) UpdateSettings(userID string, req models.SessionSettings) (*models.SessionSnapshot, error) {
	fieldErrors := make(map[string]string)
	if req.Duration != nil && (*req.Duration < models.MinDurationSeconds || *req.Duration > models.MaxDurationSeconds) {
		fieldErrors["duration"] = fmt.Sprintf("duration must be between %d and %d seconds", models.MinDurationSeconds, models.MaxDurationSeconds)
	}
	if req.AspectRatio != nil && !contains(models.AspectRatios, *req.AspectRatio) {
		fieldErrors["aspect_ratio"] = "unsupported aspect ratio"
	}
	if req.Transition != nil && !contains(models.Transitions, *req.Transition) {
		fieldErrors["transition"] = "unsupported transition effect"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	s := m.Session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Prompt != nil {
		s.prompt = *req.Prompt
	}
	if req.Duration != nil {
		s.duration = *req.Duration
	}
	if req.AspectRatio != nil {
		s.aspectRatio = *req.AspectRatio
	}
	if req.Style != nil {
		s.style = *req.Style
	}
	if req.Transition != nil {
		s.transition = *req.Transition
	}
	if req.MusicGenre != nil {
		s.musicGenre = *req.MusicGenre
	}
	if req.TextOverlay != nil {
		s.textOverlay = *req.TextOverlay
	}

	snap := s.snapshotLocked()
	return &snap, nil
}

// Generate starts one video-generation cycle. At most one cycle runs per
// session; a second call while one is in flight is rejected.
func (m *SessionManager) Generate(ctx context.Context, userID string) (*models.Job, error) {
	s := m.Session(userID)

	s.mu.Lock()
	if s.isGenerating {
		s.mu.Unlock()
		return nil, &ConflictError{Message: "A video generation is already in progress"}
	}
	if strings.TrimSpace(s.prompt) == "" && s.media == nil && len(s.frames) == 0 {
		s.mu.Unlock()
		return nil, &ValidationError{Fields: map[string]string{
			"prompt": "Enter a prompt, upload media, or generate frames first",
		}}
	}
	s.isGenerating = true
	s.isPlaying = false
	s.mu.Unlock()

	job := &models.Job{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      models.JobTypeVideoGeneration,
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now(),
	}

	if m.queue != nil {
		data, _ := json.Marshal(job)
		if err := m.queue.LPush(ctx, GenerationQueue, string(data)).Err(); err != nil {
			s.mu.Lock()
			s.isGenerating = false
			s.mu.Unlock()
			return nil, fmt.Errorf("failed to enqueue generation job: %w", err)
		}
	} else {
		go m.Process(m.baseCtx, *job)
	}

	m.publish(ctx, userID, models.WSMessage{
		Type:    "status_update",
		Payload: models.StatusUpdate{JobID: job.ID, Step: 1, StepName: "Queued"},
	})
	return job, nil
}

// Process runs one queued generation job: the simulated render delay, then
// output selection. Called by the worker pool, or inline when no queue is
// configured.
func (m *SessionManager) Process(ctx context.Context, job models.Job) {
	s := m.lookup(job.UserID)
	if s == nil {
		m.publish(ctx, job.UserID, models.WSMessage{
			Type:    "generation_failed",
			Payload: models.ErrorEvent{JobID: job.ID, Message: "Session no longer exists"},
		})
		return
	}

	m.publish(ctx, job.UserID, models.WSMessage{
		Type:    "status_update",
		Payload: models.StatusUpdate{JobID: job.ID, Step: 2, StepName: "Rendering video"},
	})

	select {
	case <-time.After(m.generationDelay):
	case <-s.ctx.Done():
		s.mu.Lock()
		s.isGenerating = false
		s.mu.Unlock()
		return
	case <-ctx.Done():
		s.mu.Lock()
		s.isGenerating = false
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	released := s.resolveVideoLocked()
	s.isGenerating = false
	s.videoGenerated = true
	video := *s.video
	rec := &models.CreationRecord{
		ID:              uuid.NewString(),
		UserID:          s.userID,
		Title:           creationTitle(s.prompt, video.Source),
		Source:          video.Source,
		Style:           s.style,
		VideoURL:        video.URL,
		DurationSeconds: s.duration,
	}
	s.mu.Unlock()

	if released != "" {
		removeStoredFile(released)
	}

	if m.history != nil {
		if err := m.history.Create(ctx, rec); err != nil {
			log.Printf("Failed to record creation for user %s: %v", s.userID, err)
		}
	}

	m.publish(ctx, job.UserID, models.WSMessage{
		Type:    "generation_completed",
		Payload: models.CompletedEvent{JobID: job.ID, URL: video.URL, Source: video.Source},
	})
}

// resolveVideoLocked picks the output of a finished cycle and installs it as
// the session's single generated video. Returns the path of a superseded
// session-owned backing file, released exactly once by the caller.
func (s *CreatorSession) resolveVideoLocked() string {
	prevLocal := s.videoLocalPath

	var url, source, localPath string
	switch {
	case s.media != nil && s.media.class == "video":
		url = mediaURL(s.media.stored)
		source = models.SourceUploadedMedia
		localPath = s.media.path
	case len(s.frames) > 0:
		url = sampleVideos[rand.Intn(len(sampleVideos))]
		source = models.SourceAIFrames
	case s.media != nil:
		url = sampleVideos[rand.Intn(len(sampleVideos))]
		source = models.SourceUploadedMedia
	default:
		url = sampleVideos[rand.Intn(len(sampleVideos))]
		source = models.SourcePrompt
	}

	s.video = &models.GeneratedVideo{URL: url, Source: source}
	s.videoLocalPath = localPath

	if prevLocal != "" && prevLocal != localPath {
		return prevLocal
	}
	return ""
}

// GenerateFrames runs one frame-generation cycle through the frame service.
// The in-flight flag is always cleared; the stored frame list is replaced
// only on success.
func (m *SessionManager) GenerateFrames(ctx context.Context, userID string, req models.GenerateFramesRequest) ([]string, error) {
	s := m.Session(userID)

	s.mu.Lock()
	if s.isGeneratingFrames {
		s.mu.Unlock()
		return nil, &ConflictError{Message: "Frame generation is already in progress"}
	}
	s.isGeneratingFrames = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isGeneratingFrames = false
		s.mu.Unlock()
	}()

	frames, err := m.frames.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.frames = frames
	s.mu.Unlock()
	return frames, nil
}

// UploadMedia stores the uploaded blob and replaces the session's media
// reference. The previous stored file is deleted; a generated video backed
// by it is released at the same time. A video upload while a video already
// exists rebases the generated video onto the new file immediately.
func (m *SessionManager) UploadMedia(ctx context.Context, userID, filename, contentType string, r io.Reader) (*models.SessionSnapshot, error) {
	class := mediaClass(contentType)
	if class == "" {
		return nil, &ValidationError{Fields: map[string]string{"file": "Only image or video uploads are supported"}}
	}

	stored := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(m.storagePath, stored)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	f.Close()

	s := m.Session(userID)
	s.mu.Lock()

	if s.analysisCancel != nil {
		s.analysisCancel()
		s.analysisCancel = nil
	}

	old := s.media
	s.media = &storedMedia{
		path:     path,
		stored:   stored,
		original: filename,
		mimeType: contentType,
		class:    class,
	}
	s.analyzedTags = nil

	if old != nil && s.videoLocalPath == old.path {
		// The old file backed the current video; its removal below is the
		// release.
		s.videoLocalPath = ""
	}

	if s.videoGenerated && class == "video" {
		s.video = &models.GeneratedVideo{URL: mediaURL(stored), Source: models.SourceUploadedMedia}
		s.videoLocalPath = path
	}

	actx, cancel := context.WithCancel(s.ctx)
	s.analysisCancel = cancel
	s.isAnalyzing = true

	snap := s.snapshotLocked()
	s.mu.Unlock()

	if old != nil {
		removeStoredFile(old.path)
	}

	go m.analyze(actx, s, class)
	return &snap, nil
}

// analyze fills in canned content tags after the analysis delay. A newer
// upload or session teardown cancels it; a cancelled run touches nothing.
func (m *SessionManager) analyze(ctx context.Context, s *CreatorSession, class string) {
	select {
	case <-time.After(m.analysisDelay):
	case <-ctx.Done():
		return
	}
	m.finishAnalysis(ctx, s, class)
}

func (m *SessionManager) finishAnalysis(ctx context.Context, s *CreatorSession, class string) {
	s.mu.Lock()
	// A newer upload may cancel this run between the delay firing and the
	// lock; its state must stand.
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}

	s.analyzedTags = append([]string(nil), analysisTags[class]...)
	s.isAnalyzing = false
	s.analysisCancel = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	m.publish(context.Background(), s.userID, models.WSMessage{
		Type:    "analysis_complete",
		Payload: snap.AnalyzedTags,
	})
}

// ClearMedia removes the uploaded media reference and its stored file. A
// generated video backed by that file is dropped with it.
func (m *SessionManager) ClearMedia(userID string) *models.SessionSnapshot {
	s := m.Session(userID)

	s.mu.Lock()
	if s.analysisCancel != nil {
		s.analysisCancel()
		s.analysisCancel = nil
	}
	s.isAnalyzing = false
	s.analyzedTags = nil

	var removed string
	if s.media != nil {
		removed = s.media.path
		if s.videoLocalPath == removed {
			s.video = nil
			s.videoGenerated = false
			s.isPlaying = false
			s.videoLocalPath = ""
		}
		s.media = nil
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if removed != "" {
		removeStoredFile(removed)
	}
	return &snap
}

// TogglePlayback flips the playing flag. Without a generated video it is a
// no-op and reports changed=false.
func (m *SessionManager) TogglePlayback(userID string) (playing bool, changed bool) {
	s := m.Session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.videoGenerated || s.video == nil {
		return false, false
	}
	s.isPlaying = !s.isPlaying
	return s.isPlaying, true
}

// Download describes a browser save action for the current video.
func (m *SessionManager) Download(userID string) (*models.DownloadInfo, error) {
	s := m.Session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.video == nil {
		return nil, &NotFoundError{Message: "No generated video to download"}
	}

	return &models.DownloadInfo{
		URL:      s.video.URL,
		Filename: fmt.Sprintf("AI-generated-video-%d.mp4", time.Now().UnixMilli()),
	}, nil
}

func (m *SessionManager) Snapshot(userID string) models.SessionSnapshot {
	s := m.Session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *CreatorSession) snapshotLocked() models.SessionSnapshot {
	snap := models.SessionSnapshot{
		Prompt:             s.prompt,
		Duration:           s.duration,
		AspectRatio:        s.aspectRatio,
		Style:              s.style,
		Transition:         s.transition,
		MusicGenre:         s.musicGenre,
		TextOverlay:        s.textOverlay,
		AnalyzedTags:       append([]string(nil), s.analyzedTags...),
		Frames:             append([]string(nil), s.frames...),
		IsGenerating:       s.isGenerating,
		IsAnalyzing:        s.isAnalyzing,
		IsGeneratingFrames: s.isGeneratingFrames,
		IsPlaying:          s.isPlaying,
		VideoGenerated:     s.videoGenerated,
	}
	if s.media != nil {
		snap.MediaFilename = s.media.original
		snap.MediaType = s.media.mimeType
	}
	if s.video != nil {
		v := *s.video
		snap.Video = &v
	}
	return snap
}

func (m *SessionManager) publish(ctx context.Context, userID string, msg models.WSMessage) {
	if m.publisher != nil {
		m.publisher.Publish(ctx, userID, msg)
	}
}

func mediaURL(stored string) string { return "/media/" + stored }

func mediaClass(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	}
	return ""
}

func removeStoredFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to remove stored file %s: %v", path, err)
	}
}

func creationTitle(prompt, source string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		switch source {
		case models.SourceUploadedMedia:
			return "Uploaded media video"
		case models.SourceAIFrames:
			return "AI frame video"
		}
		return "Untitled video"
	}
	if len(prompt) > 80 {
		return prompt[:80]
	}
	return prompt
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
