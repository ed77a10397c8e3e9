package models

import "time"

// Aspect ratios supported by the editor.
var AspectRatios = []string{"16:9", "9:16", "1:1", "4:5", "2.35:1"}

// Transition effects between frames.
var Transitions = []string{"fade", "slide", "zoom", "wipe", "dissolve", "none"}

const (
	MinDurationSeconds = 1
	MaxDurationSeconds = 600

	MinFrames = 1
	MaxFrames = 10
)

// Video sources, reported with the finished video.
const (
	SourcePrompt        = "prompt"
	SourceUploadedMedia = "uploaded-media"
	SourceAIFrames      = "ai-frames"
)

type TextOverlay struct {
	Enabled bool   `json:"enabled"`
	Text    string `json:"text"`
}

// SessionSettings carries the editable form fields of a creator session.
// Pointer fields distinguish "not sent" from zero values on partial updates.
type SessionSettings struct {
	Prompt      *string      `json:"prompt,omitempty"`
	Duration    *int         `json:"duration,omitempty"`
	AspectRatio *string      `json:"aspect_ratio,omitempty"`
	Style       *string      `json:"style,omitempty"`
	Transition  *string      `json:"transition,omitempty"`
	MusicGenre  *string      `json:"music_genre,omitempty"`
	TextOverlay *TextOverlay `json:"text_overlay,omitempty"`
}

type GeneratedVideo struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// SessionSnapshot is the wire view of a creator session.
type SessionSnapshot struct {
	Prompt             string          `json:"prompt"`
	Duration           int             `json:"duration"`
	AspectRatio        string          `json:"aspect_ratio"`
	Style              string          `json:"style"`
	Transition         string          `json:"transition"`
	MusicGenre         string          `json:"music_genre"`
	TextOverlay        TextOverlay     `json:"text_overlay"`
	MediaFilename      string          `json:"media_filename,omitempty"`
	MediaType          string          `json:"media_type,omitempty"`
	AnalyzedTags       []string        `json:"analyzed_tags"`
	Frames             []string        `json:"frames"`
	IsGenerating       bool            `json:"is_generating"`
	IsAnalyzing        bool            `json:"is_analyzing"`
	IsGeneratingFrames bool            `json:"is_generating_frames"`
	IsPlaying          bool            `json:"is_playing"`
	VideoGenerated     bool            `json:"video_generated"`
	Video              *GeneratedVideo `json:"video,omitempty"`
}

type GenerateFramesRequest struct {
	Prompt            string  `json:"prompt"`
	NumberOfFrames    int     `json:"numberOfFrames"`
	Style             string  `json:"style,omitempty"`
	VariationStrength float64 `json:"variationStrength,omitempty"`
	AutoImprove       bool    `json:"autoImprove,omitempty"`
	CheckConfig       bool    `json:"checkConfig,omitempty"`
}

type DownloadInfo struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// CreationRecord is one row of a user's gallery: metadata about a finished
// generation. Generated assets themselves are never stored.
type CreationRecord struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Title           string    `json:"title"`
	Source          string    `json:"source"`
	Style           string    `json:"style"`
	VideoURL        string    `json:"video_url"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}
