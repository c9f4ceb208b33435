package job

import (
	"context"
	"database/sql"
)

type Repository interface {
	Create(ctx context.Context, job *Job) error
	List(ctx context.Context) ([]Job, error)
	Get(ctx context.Context, id string) (*Job, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Complete(ctx context.Context, id string, chunkCount int) error
	Fail(ctx context.Context, id, errMsg string) error
	CountByStatus(ctx context.Context, status string) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, job *Job) error {
	query := `INSERT INTO ingest_jobs (persona_id, status) VALUES ($1, $2) RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, job.PersonaID, job.Status).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Job, error) {
	query := `SELECT id, persona_id, status, chunk_count, COALESCE(error, ''), created_at, updated_at FROM ingest_jobs ORDER BY created_at DESC LIMIT 50`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.PersonaID, &j.Status, &j.ChunkCount, &j.Error, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Job, error) {
	j := &Job{}
	query := `SELECT id, persona_id, status, chunk_count, COALESCE(error, ''), created_at, updated_at FROM ingest_jobs WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&j.ID, &j.PersonaID, &j.Status, &j.ChunkCount, &j.Error, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE ingest_jobs SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *PostgresRepo) Complete(ctx context.Context, id string, chunkCount int) error {
	query := `UPDATE ingest_jobs SET status = 'completed', chunk_count = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, chunkCount, id)
	return err
}

func (r *PostgresRepo) Fail(ctx context.Context, id, errMsg string) error {
	query := `UPDATE ingest_jobs SET status = 'failed', error = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, errMsg, id)
	return err
}

func (r *PostgresRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM ingest_jobs WHERE status = $1`
	err := r.db.QueryRowContext(ctx, query, status).Scan(&count)
	return count, err
}
