package ingest

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// InsertAll writes all records in a single transaction. Either every chunk
// of an ingestion lands or none do.
func (r *PostgresRepo) InsertAll(ctx context.Context, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	query := `INSERT INTO chunks (id, text, embedding, metadata, persona_id, chunk_index) VALUES ($1, $2, $3, $4, $5, $6)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		var meta []byte
		if rec.Metadata != nil {
			meta, err = json.Marshal(rec.Metadata)
			if err != nil {
				return err
			}
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Text, pq.Array(toFloat64(rec.Embedding)), meta, rec.PersonaID, rec.ChunkIndex); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (*ChunkRecord, error) {
	rec := &ChunkRecord{}
	var embedding []float64
	var meta []byte
	query := `SELECT id, text, embedding, metadata, persona_id, chunk_index, created_at FROM chunks WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.Text, pq.Array(&embedding), &meta, &rec.PersonaID, &rec.ChunkIndex, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Embedding = toFloat32(embedding)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// FindText is the point lookup behind the retrieval fallback, when a
// nearest-neighbor hit comes back without inline text.
func (r *PostgresRepo) FindText(ctx context.Context, id string) (string, error) {
	var chunkText string
	query := `SELECT text FROM chunks WHERE id = $1 LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&chunkText)
	return chunkText, err
}

func (r *PostgresRepo) PersonaCounts(ctx context.Context) (map[string]int, error) {
	query := `SELECT persona_id, COUNT(*) FROM chunks GROUP BY persona_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (r *PostgresRepo) DeleteByPersona(ctx context.Context, personaID string) (int64, error) {
	query := `DELETE FROM chunks WHERE persona_id = $1`
	res, err := r.db.ExecContext(ctx, query, personaID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM chunks`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

// lib/pq has no float4 array support; embeddings travel as float8[].
func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
