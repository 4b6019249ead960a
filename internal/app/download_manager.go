package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/internal/domain"
	"github.com/yourusername/build-fetch-go/internal/infrastructure"
	"github.com/yourusername/build-fetch-go/pkg/logger"
	"github.com/yourusername/build-fetch-go/pkg/progress"
)

// Fetcher downloads one job's source into destination, polling job for
// cancellation. SimpleDownloader and ManifestDownloader implement it.
type Fetcher interface {
	Fetch(ctx context.Context, job domain.ActivityChecker, jobID, source, destination string, emitter *progress.Emitter) (*infrastructure.FetchStats, error)
}

// DownloadManager admits and runs download jobs
type DownloadManager struct {
	registry    *JobRegistry
	fetchers    map[domain.DownloadMode]Fetcher
	extractions *ExtractionManager
	repo        domain.JobRepository
	sink        domain.EventSink
	metrics     *infrastructure.Metrics
	interval    time.Duration
	logger      *zap.Logger
	multiLogger *logger.MultiLogger
}

// NewDownloadManager creates a new download manager. repo, sink, metrics,
// extractions and multiLogger may be nil.
func NewDownloadManager(
	registry *JobRegistry,
	simple Fetcher,
	manifest Fetcher,
	extractions *ExtractionManager,
	repo domain.JobRepository,
	sink domain.EventSink,
	metrics *infrastructure.Metrics,
	interval time.Duration,
	log *zap.Logger,
	multiLogger *logger.MultiLogger,
) *DownloadManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &DownloadManager{
		registry: registry,
		fetchers: map[domain.DownloadMode]Fetcher{
			domain.ModeSimple:   simple,
			domain.ModeManifest: manifest,
		},
		extractions: extractions,
		repo:        repo,
		sink:        sink,
		metrics:     metrics,
		interval:    interval,
		logger:      log,
		multiLogger: multiLogger,
	}
}

// Admit validates req and registers its job id. The returned lease must be
// passed to Execute, which releases it.
func (dm *DownloadManager) Admit(req *domain.DownloadRequest) (*Lease, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	lease, ok := dm.registry.Acquire(req.JobID)
	if !ok {
		return nil, fmt.Errorf("%w: download %s", domain.ErrAlreadyInProgress, req.JobID)
	}
	return lease, nil
}

// Download admits and runs req synchronously
func (dm *DownloadManager) Download(ctx context.Context, req *domain.DownloadRequest) (*domain.DownloadResult, error) {
	lease, err := dm.Admit(req)
	if err != nil {
		return &domain.DownloadResult{Success: false, Message: err.Error()}, err
	}
	return dm.Execute(ctx, lease, req)
}

// Execute runs an admitted job to completion. Exactly one terminal event is
// published on every path, after the job id has been released.
func (dm *DownloadManager) Execute(ctx context.Context, lease *Lease, req *domain.DownloadRequest) (*domain.DownloadResult, error) {
	defer lease.Release()

	mode := req.Mode()
	dm.metrics.JobStarted("download")
	record := domain.NewJobRecord(req)
	dm.createRecord(record)

	dm.logger.Info("Processing download",
		zap.String("job_id", req.JobID),
		zap.String("mode", string(mode)),
		zap.String("source", req.Source()),
		zap.String("destination", req.Destination))
	dm.multiLogger.LogJobEvent("download_started",
		zap.String("job_id", req.JobID),
		zap.String("mode", string(mode)),
		zap.String("source", req.Source()))

	fetcher := dm.fetchers[mode]
	if fetcher == nil {
		err := fmt.Errorf("%w: no downloader for mode %s", domain.ErrInvalidRequest, mode)
		return dm.fail(lease, record, req, nil, err)
	}

	emitter := progress.NewEmitter(dm.sink, dm.interval)
	stats, err := fetcher.Fetch(ctx, lease, req.JobID, req.Source(), req.Destination, emitter)
	if err != nil {
		dm.removePartial(req)
		return dm.fail(lease, record, req, stats, err)
	}

	result := &domain.DownloadResult{
		Success: true,
		Message: "Download completed successfully",
		Path:    stats.Path,
	}

	if req.Extract {
		if mode == domain.ModeManifest || dm.extractions == nil {
			dm.logger.Warn("Extraction skipped",
				zap.String("job_id", req.JobID),
				zap.String("mode", string(mode)))
		} else {
			extracted, err := dm.extractions.RunWithin(ctx, lease, &domain.ExtractRequest{
				JobID:         req.JobID,
				Archive:       req.Destination,
				DeleteArchive: req.DeleteAfterExtract,
			})
			if err != nil {
				return dm.fail(lease, record, req, stats, err)
			}
			result.ExtractedPath = extracted.Destination
			result.Message = "Download and extraction completed successfully"
		}
	}

	dm.metrics.JobFinished("download", string(mode), nil)
	record.MarkCompleted(stats.Downloaded, stats.Total)
	record.ExtractedPath = result.ExtractedPath
	dm.updateRecord(record)
	lease.Release()
	dm.publish(domain.NewTerminalEvent(domain.EventDownloadCompleted, req.JobID, nil))

	dm.logger.Info("Download completed",
		zap.String("job_id", req.JobID),
		zap.String("path", result.Path),
		zap.Int64("bytes", stats.Downloaded))
	dm.multiLogger.LogJobEvent("download_finished",
		zap.String("job_id", req.JobID),
		zap.String("status", string(record.Status)),
		zap.Int64("bytes", stats.Downloaded))

	return result, nil
}

func (dm *DownloadManager) fail(lease *Lease, record *domain.JobRecord, req *domain.DownloadRequest, stats *infrastructure.FetchStats, err error) (*domain.DownloadResult, error) {
	dm.metrics.JobFinished("download", string(req.Mode()), err)
	record.MarkFailed(err)
	if stats != nil {
		record.DownloadedBytes = stats.Downloaded
		record.TotalBytes = stats.Total
	}
	dm.updateRecord(record)
	lease.Release()
	dm.publish(domain.NewTerminalEvent(domain.EventDownloadFailed, req.JobID, err))

	if errors.Is(err, domain.ErrCancelled) {
		dm.logger.Info("Download cancelled", zap.String("job_id", req.JobID))
	} else {
		dm.logger.Error("Download failed", zap.String("job_id", req.JobID), zap.Error(err))
		dm.multiLogger.LogAppError("download_failed",
			zap.String("job_id", req.JobID),
			zap.String("kind", domain.ErrorKind(err)),
			zap.Error(err))
	}
	dm.multiLogger.LogJobEvent("download_finished",
		zap.String("job_id", req.JobID),
		zap.String("status", string(record.Status)))

	return &domain.DownloadResult{Success: false, Message: err.Error()}, err
}

// removePartial deletes the destination of a failed simple download. Manifest
// downloads leave already written files in place.
func (dm *DownloadManager) removePartial(req *domain.DownloadRequest) {
	if req.Mode() != domain.ModeSimple {
		return
	}
	if err := os.Remove(req.Destination); err != nil && !os.IsNotExist(err) {
		dm.logger.Debug("Failed to remove partial download",
			zap.String("job_id", req.JobID),
			zap.String("path", req.Destination),
			zap.Error(err))
	}
}

// Cancel removes jobID from the download registry. The running job observes
// it before its next network round-trip.
func (dm *DownloadManager) Cancel(jobID string) bool {
	cancelled := dm.registry.Cancel(jobID)
	if cancelled {
		dm.logger.Info("Download cancellation requested", zap.String("job_id", jobID))
		dm.multiLogger.LogJobEvent("download_cancel_requested", zap.String("job_id", jobID))
	}
	return cancelled
}

// IsActive reports whether jobID is a running download
func (dm *DownloadManager) IsActive(jobID string) bool {
	return dm.registry.IsActive(jobID)
}

// Active lists the running download ids
func (dm *DownloadManager) Active() []string {
	return dm.registry.List()
}

func (dm *DownloadManager) publish(event domain.Event) {
	if dm.sink != nil {
		dm.sink.Publish(event)
	}
}

func (dm *DownloadManager) createRecord(record *domain.JobRecord) {
	if dm.repo == nil {
		return
	}
	if err := dm.repo.Create(record); err != nil {
		dm.logger.Error("Failed to record job", zap.String("job_id", record.JobID), zap.Error(err))
	}
}

func (dm *DownloadManager) updateRecord(record *domain.JobRecord) {
	if dm.repo == nil {
		return
	}
	if err := dm.repo.Update(record); err != nil {
		dm.logger.Error("Failed to update job record", zap.String("job_id", record.JobID), zap.Error(err))
	}
}
