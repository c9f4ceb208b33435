package weaviate_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monksiq/backend/features/ingest"
	adapter "monksiq/backend/internal/adapter/weaviate"
	"monksiq/backend/internal/testutils"
	"monksiq/backend/internal/vector"
)

func TestIndex_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	ctx := context.Background()
	require.NoError(t, vector.EnsureSchema(ctx, vector.NewWeaviateClientAdapter(s.Weaviate)))

	idx := adapter.NewIndex(s.Weaviate)

	records := []ingest.ChunkRecord{
		{ID: uuid.New().String(), Text: "Doug hikes every weekend.", PersonaID: "doug", ChunkIndex: 0, Embedding: []float32{1, 0, 0}},
		{ID: uuid.New().String(), Text: "Doug brews his own coffee.", PersonaID: "doug", ChunkIndex: 1, Embedding: []float32{0.9, 0.1, 0}},
		{ID: uuid.New().String(), Text: "Ada studies mathematics.", PersonaID: "ada", ChunkIndex: 0, Embedding: []float32{1, 0, 0}},
	}
	for _, rec := range records {
		require.NoError(t, idx.Upsert(ctx, rec))
	}

	// Indexing is near-real-time.
	time.Sleep(1 * time.Second)

	count, err := idx.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Neighbors come back closest first, scoped to the persona.
	neighbors, err := idx.FindNeighbors(ctx, []float32{1, 0, 0}, "doug", 5)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, "Doug hikes every weekend.", neighbors[0].Text)
	assert.Equal(t, "Doug brews his own coffee.", neighbors[1].Text)
	assert.LessOrEqual(t, neighbors[0].Distance, neighbors[1].Distance)

	// topK bounds the result even when more chunks match.
	neighbors, err = idx.FindNeighbors(ctx, []float32{1, 0, 0}, "doug", 1)
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "Doug hikes every weekend.", neighbors[0].Text)

	// Dropping one persona leaves the other untouched.
	require.NoError(t, idx.DeleteByPersona(ctx, "doug"))
	time.Sleep(1 * time.Second)

	count, err = idx.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	neighbors, err = idx.FindNeighbors(ctx, []float32{1, 0, 0}, "ada", 5)
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "Ada studies mathematics.", neighbors[0].Text)
}
