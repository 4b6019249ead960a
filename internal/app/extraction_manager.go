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

// Extractor unpacks an archive, polling job before every entry
type Extractor interface {
	Extract(ctx context.Context, job domain.ActivityChecker, jobID, archive, destination string, emitter *progress.Emitter) (*infrastructure.ExtractStats, error)
}

// ExtractionManager admits and runs extraction jobs against its own registry
type ExtractionManager struct {
	registry    *JobRegistry
	extractor   Extractor
	sink        domain.EventSink
	metrics     *infrastructure.Metrics
	interval    time.Duration
	logger      *zap.Logger
	multiLogger *logger.MultiLogger
}

// NewExtractionManager creates a new extraction manager
func NewExtractionManager(
	registry *JobRegistry,
	extractor Extractor,
	sink domain.EventSink,
	metrics *infrastructure.Metrics,
	interval time.Duration,
	log *zap.Logger,
	multiLogger *logger.MultiLogger,
) *ExtractionManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExtractionManager{
		registry:    registry,
		extractor:   extractor,
		sink:        sink,
		metrics:     metrics,
		interval:    interval,
		logger:      log,
		multiLogger: multiLogger,
	}
}

// Admit validates req and registers its job id in the extraction registry
func (em *ExtractionManager) Admit(req *domain.ExtractRequest) (*Lease, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	lease, ok := em.registry.Acquire(req.JobID)
	if !ok {
		return nil, fmt.Errorf("%w: extraction %s", domain.ErrAlreadyInProgress, req.JobID)
	}
	return lease, nil
}

// Extract admits and runs req synchronously
func (em *ExtractionManager) Extract(ctx context.Context, req *domain.ExtractRequest) (*infrastructure.ExtractStats, error) {
	lease, err := em.Admit(req)
	if err != nil {
		return nil, err
	}
	return em.Execute(ctx, lease, req)
}

// Execute runs an admitted extraction and publishes its terminal event once
// the job id has been released.
func (em *ExtractionManager) Execute(ctx context.Context, lease *Lease, req *domain.ExtractRequest) (*infrastructure.ExtractStats, error) {
	defer lease.Release()

	stats, err := em.run(ctx, lease, req)
	lease.Release()
	if err != nil {
		em.publish(domain.NewTerminalEvent(domain.EventExtractionFailed, req.JobID, err))
		return stats, err
	}
	em.publish(domain.NewTerminalEvent(domain.EventExtractionCompleted, req.JobID, nil))
	return stats, nil
}

// RunWithin extracts as part of a parent job. The extraction is registered
// under the same id and stops when either the parent or the extraction is
// cancelled. No terminal event is published; the parent reports the outcome.
func (em *ExtractionManager) RunWithin(ctx context.Context, parent domain.ActivityChecker, req *domain.ExtractRequest) (*infrastructure.ExtractStats, error) {
	lease, err := em.Admit(req)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	return em.run(ctx, allActive{parent, lease}, req)
}

func (em *ExtractionManager) run(ctx context.Context, job domain.ActivityChecker, req *domain.ExtractRequest) (*infrastructure.ExtractStats, error) {
	target := req.Target()
	em.metrics.JobStarted("extraction")
	em.logger.Info("Processing extraction",
		zap.String("job_id", req.JobID),
		zap.String("archive", req.Archive),
		zap.String("destination", target))
	em.multiLogger.LogJobEvent("extraction_started",
		zap.String("job_id", req.JobID),
		zap.String("archive", req.Archive))

	emitter := progress.NewEmitter(em.sink, em.interval)
	stats, err := em.extractor.Extract(ctx, job, req.JobID, req.Archive, target, emitter)
	em.metrics.JobFinished("extraction", "zip", err)

	if err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			em.logger.Info("Extraction cancelled", zap.String("job_id", req.JobID))
		} else {
			em.logger.Error("Extraction failed", zap.String("job_id", req.JobID), zap.Error(err))
			em.multiLogger.LogAppError("extraction_failed",
				zap.String("job_id", req.JobID),
				zap.String("kind", domain.ErrorKind(err)),
				zap.Error(err))
		}
		em.multiLogger.LogJobEvent("extraction_finished",
			zap.String("job_id", req.JobID),
			zap.String("status", string(domain.StatusFailed)))
		return stats, err
	}

	if req.DeleteArchive {
		if err := os.Remove(req.Archive); err != nil {
			em.logger.Warn("Failed to delete archive",
				zap.String("job_id", req.JobID),
				zap.String("archive", req.Archive),
				zap.Error(err))
		}
	}

	em.logger.Info("Extraction completed",
		zap.String("job_id", req.JobID),
		zap.Int("files", stats.Files),
		zap.Int64("bytes", stats.Bytes))
	em.multiLogger.LogJobEvent("extraction_finished",
		zap.String("job_id", req.JobID),
		zap.String("status", string(domain.StatusCompleted)),
		zap.Int("files", stats.Files))
	return stats, nil
}

// Cancel removes jobID from the extraction registry
func (em *ExtractionManager) Cancel(jobID string) bool {
	cancelled := em.registry.Cancel(jobID)
	if cancelled {
		em.logger.Info("Extraction cancellation requested", zap.String("job_id", jobID))
	}
	return cancelled
}

// IsActive reports whether jobID is a running extraction
func (em *ExtractionManager) IsActive(jobID string) bool {
	return em.registry.IsActive(jobID)
}

// Active lists the running extraction ids
func (em *ExtractionManager) Active() []string {
	return em.registry.List()
}

func (em *ExtractionManager) publish(event domain.Event) {
	if em.sink != nil {
		em.sink.Publish(event)
	}
}

// allActive is active while every checker is
type allActive []domain.ActivityChecker

func (a allActive) Active() bool {
	for _, c := range a {
		if !c.Active() {
			return false
		}
	}
	return true
}
