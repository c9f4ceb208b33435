package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"
	"monksiq/backend/internal/config"
	"monksiq/backend/internal/middleware"
)

// ingestTimeout bounds one pipeline run. Per-chunk embedding calls
// dominate it, so large documents need room.
const ingestTimeout = 10 * time.Minute

// TaskConsumer processes queued ingestions: it runs the pipeline and
// publishes the outcome on ingest.result. Pipeline failures are final
// for the task (the outcome is recorded instead of redelivered).
type TaskConsumer struct {
	pipeline  Pipeline
	jobs      JobTracker
	publisher TaskPublisher
}

func NewTaskConsumer(p Pipeline, j JobTracker, pub TaskPublisher) *TaskConsumer {
	return &TaskConsumer{
		pipeline:  p,
		jobs:      j,
		publisher: pub,
	}
}

func (h *TaskConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var task IngestTask
	if err := json.Unmarshal(m.Body, &task); err != nil {
		// Poison Pill: Invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	correlationID := task.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	ctx := context.Background()
	ctx = middleware.WithCorrelationID(ctx, correlationID)

	if task.JobID == "" {
		slog.ErrorContext(ctx, "missing job id, dropping", "persona_id", task.PersonaID)
		return nil
	}

	if err := h.jobs.MarkProcessing(ctx, task.JobID); err != nil {
		slog.WarnContext(ctx, "failed to mark job processing", "job_id", task.JobID, "error", err)
	}

	ingestCtx, cancel := context.WithTimeout(ctx, ingestTimeout)
	defer cancel()

	count, err := h.pipeline.Ingest(ingestCtx, task.Text, task.PersonaID, task.Metadata)

	result := IngestResult{
		JobID:         task.JobID,
		PersonaID:     task.PersonaID,
		Status:        "success",
		ChunkCount:    count,
		CorrelationID: correlationID,
	}
	if err != nil {
		slog.ErrorContext(ctx, "ingestion failed", "job_id", task.JobID, "persona_id", task.PersonaID, "error", err)
		result.Status = "failed"
		result.ChunkCount = 0
		result.Error = err.Error()
	}

	body, _ := json.Marshal(result)
	if err := h.publisher.Publish(config.TopicIngestResult, body); err != nil {
		slog.ErrorContext(ctx, "failed to publish result", "job_id", task.JobID, "error", err)
		return err // Durable: fail if publish fails
	}

	slog.InfoContext(ctx, "published ingest result", "job_id", task.JobID, "status", result.Status, "chunks", result.ChunkCount)
	return nil
}
