package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/internal/domain"
	"github.com/yourusername/build-fetch-go/pkg/progress"
)

// FetchStats summarises a finished or aborted download
type FetchStats struct {
	Path       string
	Downloaded int64
	Total      int64
}

// SimpleDownloader streams a single URL to a file
type SimpleDownloader struct {
	client     *http.Client
	userAgent  string
	bufferSize int
	metrics    *Metrics
	logger     *zap.Logger
}

// NewSimpleDownloader creates a downloader using client for requests
func NewSimpleDownloader(client *http.Client, userAgent string, bufferSize int, metrics *Metrics, logger *zap.Logger) *SimpleDownloader {
	if bufferSize <= 0 {
		bufferSize = 32 * 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimpleDownloader{
		client:     client,
		userAgent:  userAgent,
		bufferSize: bufferSize,
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch downloads url into destination. job is polled before the request and
// before every buffer is written; once it reports inactive the download stops with ErrCancelled. The
// caller owns cleanup of destination on error.
func (d *SimpleDownloader) Fetch(ctx context.Context, job domain.ActivityChecker, jobID, url, destination string, emitter *progress.Emitter) (*FetchStats, error) {
	stats := &FetchStats{Path: destination}

	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return stats, fmt.Errorf("%w: failed to create directory: %v", domain.ErrFilesystem, err)
	}

	req, err := newGetRequest(ctx, url, d.userAgent)
	if err != nil {
		return stats, err
	}

	if !job.Active() {
		return stats, fmt.Errorf("%w: download cancelled by user", domain.ErrCancelled)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return stats, fmt.Errorf("%w: failed to download file: %v", domain.ErrRemote, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return stats, fmt.Errorf("%w: failed to download file: HTTP %s", domain.ErrRemote, resp.Status)
	}

	declared := resp.ContentLength > 0
	if declared {
		stats.Total = resp.ContentLength
	}

	d.logger.Debug("Download stream opened",
		zap.String("job_id", jobID),
		zap.String("url", url),
		zap.Int64("content_length", resp.ContentLength))

	file, err := os.Create(destination)
	if err != nil {
		return stats, fmt.Errorf("%w: failed to create file: %v", domain.ErrFilesystem, err)
	}
	defer file.Close()

	buf := make([]byte, d.bufferSize)
	start := time.Now()
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if !job.Active() {
				return stats, fmt.Errorf("%w: download cancelled by user", domain.ErrCancelled)
			}
			if _, err := file.Write(buf[:n]); err != nil {
				return stats, fmt.Errorf("%w: failed to write to file: %v", domain.ErrFilesystem, err)
			}
			stats.Downloaded += int64(n)
			d.metrics.AddBytes(domain.ModeSimple, n)
			emitter.Download(progress.DownloadSnapshot(jobID, stats.Downloaded, stats.Total, time.Since(start)))
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil && ctx.Err() != nil {
			return stats, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
		}
		if errors.Is(readErr, io.ErrUnexpectedEOF) {
			// Short body: the size check below reports it.
			d.logger.Warn("Download stream ended early",
				zap.String("job_id", jobID),
				zap.Int64("downloaded", stats.Downloaded),
				zap.Int64("expected", stats.Total))
			break
		}
		if readErr != nil {
			return stats, fmt.Errorf("%w: failed to read response body: %v", domain.ErrRemote, readErr)
		}
	}

	if err := file.Sync(); err != nil {
		return stats, fmt.Errorf("%w: failed to flush file: %v", domain.ErrFilesystem, err)
	}

	info, err := os.Stat(destination)
	if err != nil {
		return stats, fmt.Errorf("%w: failed to get file metadata: %v", domain.ErrFilesystem, err)
	}

	if info.Size() == 0 {
		return stats, fmt.Errorf("%w: the URL may be invalid", domain.ErrEmptyFile)
	}
	if declared && info.Size() != stats.Total {
		return stats, fmt.Errorf("%w: downloaded file size (%d) doesn't match expected size (%d)",
			domain.ErrSizeMismatch, info.Size(), stats.Total)
	}

	emitter.FlushDownload(progress.Completed(jobID, info.Size()))
	return stats, nil
}
