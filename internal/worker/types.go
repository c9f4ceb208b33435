package worker

import (
	"context"
)

// Pipeline runs one ingestion end to end: chunk, embed, persist, index.
type Pipeline interface {
	Ingest(ctx context.Context, text, personaID string, metadata map[string]interface{}) (int, error)
}

// JobTracker records ingestion job progress from the queue side.
type JobTracker interface {
	MarkProcessing(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, chunkCount int) error
	Fail(ctx context.Context, id, errMsg string) error
}

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}
