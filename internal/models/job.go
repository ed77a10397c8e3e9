package models

import (
	"time"

	"github.com/google/uuid"
)

const JobTypeVideoGeneration = "video-generation"

const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

type Job struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// WebSocket message types

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatusUpdate struct {
	JobID    uuid.UUID `json:"job_id"`
	Step     int       `json:"step"`
	StepName string    `json:"step_name"`
}

type CompletedEvent struct {
	JobID  uuid.UUID `json:"job_id"`
	URL    string    `json:"url"`
	Source string    `json:"source"`
}

type ErrorEvent struct {
	JobID   uuid.UUID `json:"job_id"`
	Message string    `json:"message"`
}
