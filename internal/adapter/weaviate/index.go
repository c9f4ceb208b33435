// Package weaviate implements the vector index on a Weaviate class.
// Chunks are indexed with their text inline so retrieval usually never
// has to touch Postgres.
package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"monksiq/backend/features/ingest"
	"monksiq/backend/internal/retrieval"
	"monksiq/backend/internal/vector"
)

type Index struct {
	client *weaviate.Client
}

func NewIndex(client *weaviate.Client) *Index {
	return &Index{client: client}
}

// Upsert indexes one chunk under its row id, so a neighbor hit can
// always be resolved back to the Postgres row.
func (s *Index) Upsert(ctx context.Context, rec ingest.ChunkRecord) error {
	_, err := s.client.Data().Creator().
		WithClassName(vector.ClassName).
		WithID(rec.ID).
		WithProperties(map[string]interface{}{
			"text":       rec.Text,
			"personaId":  rec.PersonaID,
			"chunkIndex": rec.ChunkIndex,
		}).
		WithVector(rec.Embedding).
		Do(ctx)
	return err
}

// FindNeighbors runs a nearVector search scoped to one persona and
// returns the hits closest first.
func (s *Index) FindNeighbors(ctx context.Context, vec []float32, personaID string, topK int) ([]retrieval.Neighbor, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vec)

	where := filters.Where().
		WithPath([]string{"personaId"}).
		WithOperator(filters.Equal).
		WithValueString(personaID)

	fields := []graphql.Field{
		{Name: "text"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "distance"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(nearVector).
		WithWhere(where).
		WithLimit(topK).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var neighbors []retrieval.Neighbor
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return neighbors, nil
	}
	hits, ok := data[vector.ClassName].([]interface{})
	if !ok {
		return neighbors, nil
	}

	for _, h := range hits {
		props, ok := h.(map[string]interface{})
		if !ok {
			continue
		}

		n := retrieval.Neighbor{}
		if text, ok := props["text"].(string); ok {
			n.Text = text
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if id, ok := additional["id"].(string); ok {
				n.ID = id
			}
			// distance usually decodes as a number, older server
			// versions returned additional fields as strings
			if d, ok := additional["distance"].(float64); ok {
				n.Distance = float32(d)
			} else if d, ok := additional["distance"].(string); ok {
				var f float64
				fmt.Sscanf(d, "%f", &f)
				n.Distance = float32(f)
			}
		}
		neighbors = append(neighbors, n)
	}

	return neighbors, nil
}

// DeleteByPersona removes every indexed chunk of one persona.
func (s *Index) DeleteByPersona(ctx context.Context, personaID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"personaId"}).
			WithOperator(filters.Equal).
			WithValueString(personaID)).
		Do(ctx)
	return err
}

// CountChunks reports how many chunks the index holds across all
// personas.
func (s *Index) CountChunks(ctx context.Context) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(vector.ClassName).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors)
	}

	data, ok := res.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	rows, ok := data[vector.ClassName].([]interface{})
	if !ok || len(rows) == 0 {
		return 0, nil
	}
	meta, ok := rows[0].(map[string]interface{})["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	count, _ := meta["count"].(float64)
	return int(count), nil
}
