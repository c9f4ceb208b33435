package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"monksiq/backend/internal/text"
)

// ChunkRecord is one embedded slice of persona source material. The same
// record is written to the row store and mirrored into the vector index
// under the same ID, so a nearest-neighbor hit can always be resolved back
// to its row.
type ChunkRecord struct {
	ID         string                 `json:"id"`
	Text       string                 `json:"text"`
	Embedding  []float32              `json:"-"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	PersonaID  string                 `json:"persona_id"`
	ChunkIndex int                    `json:"chunk_index"`
	CreatedAt  time.Time              `json:"created_at"`
}

type Repository interface {
	InsertAll(ctx context.Context, records []ChunkRecord) error
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorIndex interface {
	Upsert(ctx context.Context, rec ChunkRecord) error
}

type Service struct {
	repo     Repository
	embedder Embedder
	index    VectorIndex

	chunkSize    int
	chunkOverlap int
}

func NewService(repo Repository, embedder Embedder, index VectorIndex, chunkSize, chunkOverlap int) *Service {
	return &Service{
		repo:         repo,
		embedder:     embedder,
		index:        index,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Ingest chunks the input, embeds every chunk, persists all rows in one
// batch and mirrors each record into the vector index. Any failure aborts
// the whole call; rows already written are not rolled back, a retry simply
// appends fresh chunks.
func (s *Service) Ingest(ctx context.Context, input, personaID string, metadata map[string]interface{}) (int, error) {
	chunks := text.Chunk(input, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no chunks produced from input")
	}

	records := make([]ChunkRecord, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		records = append(records, ChunkRecord{
			ID:         uuid.New().String(),
			Text:       chunk,
			Embedding:  vec,
			Metadata:   metadata,
			PersonaID:  personaID,
			ChunkIndex: i,
		})
	}

	if err := s.repo.InsertAll(ctx, records); err != nil {
		return 0, fmt.Errorf("storing chunks: %w", err)
	}

	for _, rec := range records {
		if err := s.index.Upsert(ctx, rec); err != nil {
			return 0, fmt.Errorf("indexing chunk %d: %w", rec.ChunkIndex, err)
		}
	}

	slog.InfoContext(ctx, "ingestion complete", "persona_id", personaID, "chunks", len(records))
	return len(records), nil
}
