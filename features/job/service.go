package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"monksiq/backend/internal/config"
	"monksiq/backend/internal/middleware"
)

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo Repository
	pub  EventPublisher
}

func NewService(repo Repository, pub EventPublisher) *Service {
	return &Service{repo: repo, pub: pub}
}

// Enqueue records a queued job row and publishes the ingestion payload.
// A failed publish marks the job failed so it never sits queued forever.
func (s *Service) Enqueue(ctx context.Context, text, personaID string, metadata map[string]interface{}) (string, error) {
	j := &Job{PersonaID: personaID, Status: StatusQueued}
	if err := s.repo.Create(ctx, j); err != nil {
		return "", err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"job_id":         j.ID,
		"text":           text,
		"persona_id":     personaID,
		"metadata":       metadata,
		"correlation_id": middleware.GetCorrelationID(ctx),
	})
	if err != nil {
		return "", err
	}

	if err := s.pub.Publish(config.TopicIngestTask, payload); err != nil {
		if ferr := s.repo.Fail(ctx, j.ID, fmt.Sprintf("publish failed: %v", err)); ferr != nil {
			slog.ErrorContext(ctx, "failed to mark job failed", "error", ferr, "job_id", j.ID)
		}
		return "", err
	}

	slog.InfoContext(ctx, "published ingest.task event", "job_id", j.ID, "persona_id", personaID)
	return j.ID, nil
}

func (s *Service) List(ctx context.Context) ([]Job, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) MarkProcessing(ctx context.Context, id string) error {
	return s.repo.UpdateStatus(ctx, id, StatusProcessing)
}

func (s *Service) Complete(ctx context.Context, id string, chunkCount int) error {
	return s.repo.Complete(ctx, id, chunkCount)
}

func (s *Service) Fail(ctx context.Context, id, errMsg string) error {
	return s.repo.Fail(ctx, id, errMsg)
}
