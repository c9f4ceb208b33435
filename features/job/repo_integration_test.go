package job_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"monksiq/backend/features/job"
	"monksiq/backend/internal/testutils"
)

func TestJobRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	repo := job.NewPostgresRepo(s.DB)
	ctx := context.Background()

	// 1. Create two jobs with a visible time gap
	j1 := &job.Job{PersonaID: "doug", Status: job.StatusQueued}
	require.NoError(t, repo.Create(ctx, j1))
	require.NotEmpty(t, j1.ID)

	time.Sleep(100 * time.Millisecond)

	j2 := &job.Job{PersonaID: "default", Status: job.StatusQueued}
	require.NoError(t, repo.Create(ctx, j2))

	// 2. List newest first
	jobs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, j2.ID, jobs[0].ID, "newest job should be first")
	assert.Equal(t, j1.ID, jobs[1].ID)

	// 3. Walk the queued -> processing -> completed transitions
	require.NoError(t, repo.UpdateStatus(ctx, j1.ID, job.StatusProcessing))
	got, err := repo.Get(ctx, j1.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusProcessing, got.Status)

	require.NoError(t, repo.Complete(ctx, j1.ID, 12))
	got, err = repo.Get(ctx, j1.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, got.Status)
	assert.Equal(t, 12, got.ChunkCount)

	// 4. Failure path records the error
	require.NoError(t, repo.Fail(ctx, j2.ID, "embed quota exceeded"))
	got, err = repo.Get(ctx, j2.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, got.Status)
	assert.Equal(t, "embed quota exceeded", got.Error)

	// 5. Failed count feeds the stats endpoint
	count, err := repo.CountByStatus(ctx, job.StatusFailed)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
