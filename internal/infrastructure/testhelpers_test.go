package infrastructure

import (
	"bytes"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// activeFlag is an ActivityChecker the test can flip
type activeFlag struct {
	cancelled atomic.Bool
}

func (a *activeFlag) Active() bool { return !a.cancelled.Load() }
func (a *activeFlag) Cancel()      { a.cancelled.Store(true) }

func testHTTPConfig() *domain.HTTPConfig {
	return &domain.HTTPConfig{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     time.Second,
		RequestTimeout:      5 * time.Second,
		ConnectTimeout:      time.Second,
		UserAgent:           "build-fetch-test",
	}
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
