package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"
	"monksiq/backend/internal/middleware"
)

// ResultConsumer settles job rows from ingest.result messages. It is
// the only writer of terminal job states.
type ResultConsumer struct {
	jobs JobTracker
}

func NewResultConsumer(j JobTracker) *ResultConsumer {
	return &ResultConsumer{jobs: j}
}

func (h *ResultConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var result IngestResult
	if err := json.Unmarshal(m.Body, &result); err != nil {
		// Poison Pill: Invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	correlationID := result.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	ctx := context.Background()
	ctx = middleware.WithCorrelationID(ctx, correlationID)

	if result.JobID == "" {
		slog.ErrorContext(ctx, "missing job id, dropping", "persona_id", result.PersonaID)
		return nil
	}

	if result.Status == "failed" {
		slog.ErrorContext(ctx, "ingestion failed", "job_id", result.JobID, "persona_id", result.PersonaID, "error", result.Error)
		if err := h.jobs.Fail(ctx, result.JobID, result.Error); err != nil {
			slog.ErrorContext(ctx, "failed to record job failure", "job_id", result.JobID, "error", err)
			return err // Retry
		}
		return nil
	}

	if err := h.jobs.Complete(ctx, result.JobID, result.ChunkCount); err != nil {
		slog.ErrorContext(ctx, "failed to record job completion", "job_id", result.JobID, "error", err)
		return err // Retry
	}

	slog.InfoContext(ctx, "job completed", "job_id", result.JobID, "persona_id", result.PersonaID, "chunks", result.ChunkCount)
	return nil
}
