package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

func setupTestRepo(t *testing.T) (*SQLiteJobRepository, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "repo-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewSQLiteJobRepository(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}
	return repo, cleanup
}

func newRecord(jobID string) *domain.JobRecord {
	return domain.NewJobRecord(&domain.DownloadRequest{
		JobID:       jobID,
		URL:         "https://example.com/build.zip",
		Destination: "/tmp/build.zip",
	})
}

func TestFindByID_RoundTrip(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	rec := newRecord("job-1")
	require.NoError(t, repo.Create(rec))

	found, err := repo.FindByID(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "job-1", found.JobID)
	assert.Equal(t, domain.ModeSimple, found.Mode)
	assert.Equal(t, domain.StatusRunning, found.Status)
}

func TestFindLatestByJobID_ReturnsNilWhenNoMatch(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	found, err := repo.FindLatestByJobID("missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindLatestByJobID_ReturnsMostRecent(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	// A job id may be reused once the earlier job has finished
	old := newRecord("job-reused")
	old.CreatedAt = time.Now().Add(-time.Minute)
	old.MarkFailed(fmt.Errorf("%w: HTTP 404", domain.ErrRemote))
	require.NoError(t, repo.Create(old))

	newer := newRecord("job-reused")
	require.NoError(t, repo.Create(newer))

	found, err := repo.FindLatestByJobID("job-reused")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, newer.ID, found.ID)
}

func TestUpdate_PersistsTerminalState(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	rec := newRecord("job-2")
	require.NoError(t, repo.Create(rec))

	rec.MarkFailed(fmt.Errorf("%w: download cancelled by user", domain.ErrCancelled))
	require.NoError(t, repo.Update(rec))

	found, err := repo.FindByID(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, found.Status)
	assert.Equal(t, "cancelled", found.ErrorKind)
	assert.NotNil(t, found.CompletedAt)
}

func TestFindAll_FiltersOnStatus(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	done := newRecord("job-a")
	done.MarkCompleted(10, 10)
	require.NoError(t, repo.Create(done))
	require.NoError(t, repo.Create(newRecord("job-b")))

	records, err := repo.FindAll(map[string]interface{}{"status": domain.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "job-a", records[0].JobID)

	all, err := repo.FindAll(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFindAll_RejectsUnknownFilter(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	_, err := repo.FindAll(map[string]interface{}{"1=1; --": "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestMarkInterrupted(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.Create(newRecord("job-running")))
	done := newRecord("job-done")
	done.MarkCompleted(1, 1)
	require.NoError(t, repo.Create(done))

	n, err := repo.MarkInterrupted()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, err := repo.FindLatestByJobID("job-running")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, found.Status)
	assert.Equal(t, "interrupted", found.ErrorKind)
}

func TestGetStats(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.Create(newRecord("r1")))

	c := newRecord("c1")
	c.MarkCompleted(5, 5)
	require.NoError(t, repo.Create(c))

	f := newRecord("f1")
	f.MarkFailed(fmt.Errorf("%w: chunk 3", domain.ErrDecompression))
	require.NoError(t, repo.Create(f))

	x := newRecord("x1")
	x.MarkFailed(domain.ErrCancelled)
	require.NoError(t, repo.Create(x))

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(1), stats.Running)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Cancelled)
}
