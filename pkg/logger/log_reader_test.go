package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMultiLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	ml.LogJobEvent("job_started", zap.String("job_id", "abc"), zap.String("mode", "manifest"))
	ml.LogJobEvent("job_completed", zap.String("job_id", "abc"))
	ml.LogAppError("job_failed", zap.String("job_id", "def"))
	require.NoError(t, ml.Close())

	reader := NewLogReader(dir)

	jobs, err := reader.ReadTodayLogs(CategoryJobs, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "job_started", jobs[0].Message)
	assert.Equal(t, "info", jobs[0].Level)
	assert.Equal(t, "abc", jobs[0].Fields["job_id"])
	assert.NotEmpty(t, jobs[0].Timestamp)

	last, err := reader.ReadTodayLogs(CategoryJobs, 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "job_completed", last[0].Message)

	errs, err := reader.ReadTodayLogs(CategoryError, 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "error", errs[0].Level)
}

func TestSearchLogsMatchesFields(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	ml.LogJobEvent("job_started", zap.String("job_id", "needle"))
	ml.LogJobEvent("job_started", zap.String("job_id", "other"))
	require.NoError(t, ml.Close())

	reader := NewLogReader(dir)
	found, err := reader.SearchLogs(CategoryJobs, time.Now(), "NEEDLE", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "needle", found[0].Fields["job_id"])
}

func TestReadLogsMissingFile(t *testing.T) {
	entries, err := NewLogReader(t.TempDir()).ReadTodayLogs(CategoryJobs, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("jobs")
	require.NoError(t, err)
	assert.Equal(t, CategoryJobs, c)

	_, err = ParseCategory("../../etc")
	assert.Error(t, err)
}

func TestNilMultiLoggerIsNoop(t *testing.T) {
	var ml *MultiLogger
	ml.LogJobEvent("ignored")
	ml.LogAppError("ignored")
}

func TestDailyFileRollsOver(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 3, 1, 23, 59, 0, 0, time.Local)
	f := &dailyFile{dir: dir, category: CategoryJobs, now: func() time.Time { return day }}

	_, err := f.Write([]byte("{\"msg\":\"first\"}\n"))
	require.NoError(t, err)
	day = day.Add(2 * time.Minute)
	_, err = f.Write([]byte("{\"msg\":\"second\"}\n"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	reader := NewLogReader(dir)
	first, err := reader.ReadLogs(CategoryJobs, time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local), 0)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "first", first[0].Message)

	second, err := reader.ReadLogs(CategoryJobs, time.Date(2024, 3, 2, 0, 0, 0, 0, time.Local), 0)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "second", second[0].Message)
}
