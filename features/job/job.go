package job

import (
	"time"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Job tracks one async ingestion from enqueue to completion. The input text
// travels in the queue message, not the row; the row only records progress.
type Job struct {
	ID         string    `json:"id"`
	PersonaID  string    `json:"persona_id"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
