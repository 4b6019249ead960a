package infrastructure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// Metrics exposes job counters on a prometheus registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	jobs          *prometheus.CounterVec
	active        *prometheus.GaugeVec
	bytes         *prometheus.CounterVec
	chunkDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when non-nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildfetch",
			Name:      "jobs_total",
			Help:      "Finished jobs by kind, mode and result.",
		}, []string{"kind", "mode", "result"}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "buildfetch",
			Name:      "jobs_active",
			Help:      "Jobs currently running.",
		}, []string{"kind"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildfetch",
			Name:      "downloaded_bytes_total",
			Help:      "Bytes written to disk by downloads.",
		}, []string{"mode"}),
		chunkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "buildfetch",
			Name:      "chunk_fetch_seconds",
			Help:      "Time to fetch and decompress one manifest chunk.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.jobs, m.active, m.bytes, m.chunkDuration)
	}
	return m
}

// JobStarted increments the active gauge for kind ("download" or "extraction")
func (m *Metrics) JobStarted(kind string) {
	if m == nil {
		return
	}
	m.active.WithLabelValues(kind).Inc()
}

// JobFinished decrements the active gauge and counts the result
func (m *Metrics) JobFinished(kind, mode string, err error) {
	if m == nil {
		return
	}
	result := "completed"
	if err != nil {
		result = domain.ErrorKind(err)
	}
	m.active.WithLabelValues(kind).Dec()
	m.jobs.WithLabelValues(kind, mode, result).Inc()
}

// AddBytes counts bytes written by a download
func (m *Metrics) AddBytes(mode domain.DownloadMode, n int) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues(string(mode)).Add(float64(n))
}

// ObserveChunk records how long one chunk took
func (m *Metrics) ObserveChunk(d time.Duration) {
	if m == nil {
		return
	}
	m.chunkDuration.Observe(d.Seconds())
}
