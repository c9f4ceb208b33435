package job_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"monksiq/backend/features/job"
)

func TestPostgresRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO ingest_jobs (persona_id, status) VALUES ($1, $2) RETURNING id, created_at, updated_at")).
		WithArgs("doug", job.StatusQueued).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("job-1", now, now))

	j := &job.Job{PersonaID: "doug", Status: job.StatusQueued}
	err = repo.Create(context.Background(), j)
	assert.NoError(t, err)
	assert.Equal(t, "job-1", j.ID)
	assert.Equal(t, now, j.CreatedAt)
}

func TestPostgresRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "persona_id", "status", "chunk_count", "error", "created_at", "updated_at"}).
		AddRow("job-2", "doug", job.StatusCompleted, 12, "", now, now).
		AddRow("job-1", "default", job.StatusFailed, 0, "embed quota exceeded", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, persona_id, status, chunk_count, COALESCE(error, ''), created_at, updated_at FROM ingest_jobs ORDER BY created_at DESC LIMIT 50")).
		WillReturnRows(rows)

	jobs, err := repo.List(context.Background())
	assert.NoError(t, err)
	assert.Len(t, jobs, 2)
	assert.Equal(t, "job-2", jobs[0].ID)
	assert.Equal(t, 12, jobs[0].ChunkCount)
	assert.Equal(t, "embed quota exceeded", jobs[1].Error)
}

func TestPostgresRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "persona_id", "status", "chunk_count", "error", "created_at", "updated_at"}).
			AddRow("job-1", "doug", job.StatusProcessing, 0, "", now, now)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, persona_id, status, chunk_count, COALESCE(error, ''), created_at, updated_at FROM ingest_jobs WHERE id = $1")).
			WithArgs("job-1").
			WillReturnRows(rows)

		j, err := repo.Get(context.Background(), "job-1")
		assert.NoError(t, err)
		assert.Equal(t, job.StatusProcessing, j.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, persona_id, status, chunk_count, COALESCE(error, ''), created_at, updated_at FROM ingest_jobs WHERE id = $1")).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestPostgresRepo_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ingest_jobs SET status = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(job.StatusProcessing, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateStatus(context.Background(), "job-1", job.StatusProcessing)
	assert.NoError(t, err)
}

func TestPostgresRepo_Complete(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ingest_jobs SET status = 'completed', chunk_count = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(12, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Complete(context.Background(), "job-1", 12)
	assert.NoError(t, err)
}

func TestPostgresRepo_Fail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ingest_jobs SET status = 'failed', error = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs("embed quota exceeded", "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Fail(context.Background(), "job-1", "embed quota exceeded")
	assert.NoError(t, err)
}

func TestPostgresRepo_CountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM ingest_jobs WHERE status = $1")).
		WithArgs(job.StatusFailed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByStatus(context.Background(), job.StatusFailed)
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
}
