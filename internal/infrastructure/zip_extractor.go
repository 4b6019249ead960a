package infrastructure

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/internal/domain"
	"github.com/yourusername/build-fetch-go/pkg/progress"
)

// ExtractStats summarises a finished or aborted extraction
type ExtractStats struct {
	Destination string
	Files       int
	Bytes       int64
}

// ZipExtractor unpacks zip archives
type ZipExtractor struct {
	logger *zap.Logger
}

// NewZipExtractor creates a zip extractor
func NewZipExtractor(logger *zap.Logger) *ZipExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZipExtractor{logger: logger}
}

// Extract unpacks archive into destination, checking job before every entry.
// Entries whose names escape destination fail the extraction.
func (x *ZipExtractor) Extract(ctx context.Context, job domain.ActivityChecker, jobID, archive, destination string, emitter *progress.Emitter) (*ExtractStats, error) {
	destination = filepath.Clean(destination)
	stats := &ExtractStats{Destination: destination}

	reader, err := zip.OpenReader(archive)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return stats, fmt.Errorf("%w: %s is not a valid zip archive: %v", domain.ErrDecompression, archive, err)
		}
		return stats, fmt.Errorf("%w: failed to open archive: %v", domain.ErrFilesystem, err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destination, 0755); err != nil {
		return stats, fmt.Errorf("%w: failed to create destination: %v", domain.ErrFilesystem, err)
	}

	total := len(reader.File)
	start := time.Now()

	x.logger.Info("Extraction started",
		zap.String("job_id", jobID),
		zap.String("archive", archive),
		zap.Int("entries", total))

	for i, entry := range reader.File {
		if !job.Active() {
			return stats, fmt.Errorf("%w: extraction cancelled by user", domain.ErrCancelled)
		}
		if ctx.Err() != nil {
			return stats, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
		}

		emitter.Extraction(extractionSnapshot(jobID, entry.Name, i, total, time.Since(start)))

		path, err := safeJoin(destination, entry.Name)
		if err != nil {
			return stats, err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0755); err != nil {
				return stats, fmt.Errorf("%w: failed to create %s: %v", domain.ErrFilesystem, entry.Name, err)
			}
			continue
		}

		n, err := extractEntry(entry, path)
		if err != nil {
			return stats, err
		}
		stats.Files++
		stats.Bytes += n
	}

	emitter.FlushExtraction(extractionSnapshot(jobID, "", total, total, time.Since(start)))
	return stats, nil
}

func extractEntry(entry *zip.File, path string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("%w: failed to create directory for %s: %v", domain.ErrFilesystem, entry.Name, err)
	}

	rc, err := entry.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to open %s: %v", domain.ErrDecompression, entry.Name, err)
	}
	defer rc.Close()

	perm := entry.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create %s: %v", domain.ErrFilesystem, entry.Name, err)
	}
	defer out.Close()

	n, err := io.Copy(out, rc)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return n, fmt.Errorf("%w: failed to write %s: %v", domain.ErrFilesystem, entry.Name, err)
		}
		return n, fmt.Errorf("%w: failed to extract %s: %v", domain.ErrDecompression, entry.Name, err)
	}
	return n, nil
}

func extractionSnapshot(jobID, current string, processed, total int, elapsed time.Duration) domain.ExtractionProgress {
	p := domain.ExtractionProgress{
		JobID:          jobID,
		CurrentFile:    current,
		TotalFiles:     total,
		ProcessedFiles: processed,
		ETA:            progress.Calculating,
	}
	if total == 0 {
		p.Percentage = 100
		p.ETA = "0s"
		return p
	}
	p.Percentage = float64(processed) / float64(total) * 100
	if processed == total {
		p.ETA = "0s"
	} else if processed > 0 {
		perEntry := elapsed.Seconds() / float64(processed)
		p.ETA = progress.FormatTime(perEntry * float64(total-processed))
	}
	return p
}
