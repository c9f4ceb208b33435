package personas

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// ChunkRepository exposes the persona-level views of the chunk row store.
type ChunkRepository interface {
	PersonaCounts(ctx context.Context) (map[string]int, error)
	DeleteByPersona(ctx context.Context, personaID string) (int64, error)
}

// VectorIndex removes a persona's entries from the search index.
type VectorIndex interface {
	DeleteByPersona(ctx context.Context, personaID string) error
}

type Service struct {
	repo  ChunkRepository
	index VectorIndex
}

func NewService(repo ChunkRepository, index VectorIndex) *Service {
	return &Service{repo: repo, index: index}
}

// List returns every persona that owns at least one chunk, ordered by id.
func (s *Service) List(ctx context.Context) ([]Persona, error) {
	counts, err := s.repo.PersonaCounts(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	personas := make([]Persona, 0, len(ids))
	for _, id := range ids {
		personas = append(personas, Persona{ID: id, Chunks: counts[id]})
	}
	return personas, nil
}

// Delete removes a persona's chunks from the vector index and then from the
// row store. Returns ErrNotFound when the row store held nothing for it.
func (s *Service) Delete(ctx context.Context, personaID string) error {
	if err := s.index.DeleteByPersona(ctx, personaID); err != nil {
		return fmt.Errorf("deleting persona from index: %w", err)
	}

	deleted, err := s.repo.DeleteByPersona(ctx, personaID)
	if err != nil {
		return fmt.Errorf("deleting persona rows: %w", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "persona deleted", "persona_id", personaID, "chunks_deleted", deleted)
	return nil
}
