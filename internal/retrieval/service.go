// Package retrieval finds the stored chunks most relevant to a chat
// query. It is deliberately best-effort: a broken embedder or index
// degrades a chat to fewer (or no) contexts instead of failing it,
// which is why Retrieve returns no error.
package retrieval

import (
	"context"
	"log/slog"
	"time"

	"monksiq/backend/internal/middleware"
)

// Neighbor is one nearest-neighbor hit from the vector index. Text is
// the inline copy stored alongside the vector; when the index was
// populated without it, Text is empty and the row store is consulted.
type Neighbor struct {
	ID       string
	Distance float32
	Text     string
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorIndex interface {
	FindNeighbors(ctx context.Context, vector []float32, personaID string, topK int) ([]Neighbor, error)
}

// RowStore resolves a chunk id to its text when the index hit carries
// no inline text.
type RowStore interface {
	FindText(ctx context.Context, id string) (string, error)
}

type Service struct {
	embedder Embedder
	index    VectorIndex
	rows     RowStore
	logger   *QueryLogger
}

func NewService(e Embedder, idx VectorIndex, rows RowStore, l *QueryLogger) *Service {
	return &Service{embedder: e, index: idx, rows: rows, logger: l}
}

// Retrieve returns the texts of the chunks nearest to query within the
// given persona, best match first. Neighbors whose text cannot be
// resolved are skipped. Failures before that point return nil.
func (s *Service) Retrieve(ctx context.Context, query, personaID string, topK int) []string {
	if topK <= 0 {
		topK = 5
	}

	start := time.Now()
	var contexts []string

	defer func() {
		if s.logger != nil {
			s.logger.Log(QueryLogEntry{
				Query:         query,
				PersonaID:     personaID,
				NumResults:    len(contexts),
				Duration:      time.Since(start),
				CorrelationID: middleware.GetCorrelationID(ctx),
			})
		}
	}()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "query embedding failed", "persona_id", personaID, "error", err)
		return nil
	}

	neighbors, err := s.index.FindNeighbors(ctx, vec, personaID, topK)
	if err != nil {
		slog.ErrorContext(ctx, "vector search failed", "persona_id", personaID, "error", err)
		return nil
	}
	if len(neighbors) == 0 {
		slog.InfoContext(ctx, "no neighbors found", "persona_id", personaID)
		return nil
	}

	for _, n := range neighbors {
		if n.Text != "" {
			contexts = append(contexts, n.Text)
			continue
		}

		text, err := s.rows.FindText(ctx, n.ID)
		if err != nil {
			slog.WarnContext(ctx, "chunk text lookup failed", "chunk_id", n.ID, "error", err)
			continue
		}
		if text == "" {
			continue
		}
		contexts = append(contexts, text)
	}

	return contexts
}
