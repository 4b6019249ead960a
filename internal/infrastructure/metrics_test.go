package infrastructure

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

func TestMetrics_JobLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.JobStarted("download")
	m.JobStarted("download")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.active.WithLabelValues("download")))

	m.JobFinished("download", "simple", nil)
	m.JobFinished("download", "manifest", fmt.Errorf("%w: HTTP 500", domain.ErrRemote))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.active.WithLabelValues("download")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("download", "simple", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("download", "manifest", "remote")))

	m.AddBytes(domain.ModeManifest, 512)
	assert.Equal(t, 512.0, testutil.ToFloat64(m.bytes.WithLabelValues("manifest")))

	m.ObserveChunk(20 * time.Millisecond)
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.JobStarted("download")
	m.JobFinished("download", "simple", nil)
	m.AddBytes(domain.ModeSimple, 1)
	m.ObserveChunk(time.Second)
}
