package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/internal/domain"
	"github.com/yourusername/build-fetch-go/pkg/progress"
)

// ManifestDownloader rebuilds a versioned build from gzip-compressed chunks
type ManifestDownloader struct {
	manifests *ManifestClient
	metrics   *Metrics
	logger    *zap.Logger
}

// NewManifestDownloader creates a manifest downloader
func NewManifestDownloader(manifests *ManifestClient, metrics *Metrics, logger *zap.Logger) *ManifestDownloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManifestDownloader{
		manifests: manifests,
		metrics:   metrics,
		logger:    logger,
	}
}

// manifestRun holds the state of one manifest download
type manifestRun struct {
	jobID     string
	version   string
	root      string
	total     int64
	completed int64
	start     time.Time
	job       domain.ActivityChecker
	emitter   *progress.Emitter
}

// Fetch downloads every file of the manifest for label into installRoot. Files
// and chunks are processed in manifest order. Files already written are left in
// place when the job fails or is cancelled.
func (d *ManifestDownloader) Fetch(ctx context.Context, job domain.ActivityChecker, jobID, label, installRoot string, emitter *progress.Emitter) (*FetchStats, error) {
	root := filepath.Clean(installRoot)
	stats := &FetchStats{Path: root}

	version, err := domain.ExtractVersion(label)
	if err != nil {
		return stats, err
	}

	if !job.Active() {
		return stats, fmt.Errorf("%w: download cancelled by user", domain.ErrCancelled)
	}
	manifest, err := d.manifests.FetchManifest(ctx, version)
	if err != nil {
		return stats, err
	}
	stats.Total = manifest.Size

	if err := os.MkdirAll(root, 0755); err != nil {
		return stats, fmt.Errorf("%w: failed to create install directory: %v", domain.ErrFilesystem, err)
	}

	run := &manifestRun{
		jobID:   jobID,
		version: version,
		root:    root,
		total:   manifest.Size,
		start:   time.Now(),
		job:     job,
		emitter: emitter,
	}

	d.logger.Info("Manifest download started",
		zap.String("job_id", jobID),
		zap.String("version", version),
		zap.Int("files", len(manifest.Chunks)),
		zap.Int("chunks", manifest.ChunkCount()),
		zap.Int64("size", manifest.Size))

	for _, entry := range manifest.Chunks {
		written, err := d.fetchFile(ctx, run, entry)
		stats.Downloaded = run.completed
		if err != nil {
			return stats, err
		}
		if written != entry.FileSize {
			d.logger.Warn("File size differs from manifest",
				zap.String("job_id", jobID),
				zap.String("file", entry.File),
				zap.Int64("written", written),
				zap.Int64("expected", entry.FileSize))
		}
	}

	emitter.FlushDownload(progress.Completed(jobID, manifest.Size))
	return stats, nil
}

func (d *ManifestDownloader) fetchFile(ctx context.Context, run *manifestRun, entry domain.ChunkedFile) (int64, error) {
	path, err := safeJoin(run.root, entry.File)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("%w: failed to create directory for %s: %v", domain.ErrFilesystem, entry.File, err)
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create %s: %v", domain.ErrFilesystem, entry.File, err)
	}
	defer out.Close()

	var written int64
	for _, chunkID := range entry.ChunkIDs {
		if !run.job.Active() {
			return written, fmt.Errorf("%w: download cancelled by user", domain.ErrCancelled)
		}

		started := time.Now()
		data, err := d.fetchChunk(ctx, run.version, chunkID)
		if err != nil {
			return written, err
		}
		d.metrics.ObserveChunk(time.Since(started))

		if _, err := out.Write(data); err != nil {
			return written, fmt.Errorf("%w: failed to write %s: %v", domain.ErrFilesystem, entry.File, err)
		}

		written += int64(len(data))
		run.completed += int64(len(data))
		d.metrics.AddBytes(domain.ModeManifest, len(data))
		run.emitter.Download(progress.DownloadSnapshot(run.jobID, run.completed, run.total, time.Since(run.start)))
	}

	if err := out.Sync(); err != nil {
		return written, fmt.Errorf("%w: failed to flush %s: %v", domain.ErrFilesystem, entry.File, err)
	}
	return written, nil
}

// fetchChunk downloads and inflates one chunk
func (d *ManifestDownloader) fetchChunk(ctx context.Context, version string, chunkID int) ([]byte, error) {
	body, err := d.manifests.FetchChunk(ctx, version, chunkID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
		}
		return nil, err
	}

	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: chunk %d: %v", domain.ErrDecompression, chunkID, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk %d: %v", domain.ErrDecompression, chunkID, err)
	}
	return data, nil
}
