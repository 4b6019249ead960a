package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/internal/domain"
	"github.com/yourusername/build-fetch-go/pkg/logger"
)

// JobRunner runs admitted jobs in the background. Submission admits the job
// synchronously so duplicates are rejected before the caller returns.
type JobRunner struct {
	downloads   *DownloadManager
	extractions *ExtractionManager
	repo        domain.JobRepository
	multiLogger *logger.MultiLogger
	mu          sync.RWMutex
	running     bool
	ctx         context.Context
	cancel      context.CancelFunc
	workerWg    sync.WaitGroup
}

// NewJobRunner creates a new job runner
func NewJobRunner(
	downloads *DownloadManager,
	extractions *ExtractionManager,
	repo domain.JobRepository,
	multiLogger *logger.MultiLogger,
) *JobRunner {
	return &JobRunner{
		downloads:   downloads,
		extractions: extractions,
		repo:        repo,
		multiLogger: multiLogger,
	}
}

// Start enables submissions. Jobs run until they finish or ctx is cancelled.
func (jr *JobRunner) Start(ctx context.Context) error {
	jr.mu.Lock()
	defer jr.mu.Unlock()
	if jr.running {
		return fmt.Errorf("job runner already running")
	}

	if jr.repo != nil {
		if n, err := jr.repo.MarkInterrupted(); err != nil {
			jr.multiLogger.LogAppError("Failed to mark interrupted jobs", zap.Error(err))
		} else if n > 0 {
			jr.multiLogger.LogJobEvent("jobs_interrupted", zap.Int64("count", n))
		}
	}

	jr.ctx, jr.cancel = context.WithCancel(ctx)
	jr.running = true
	jr.multiLogger.LogJobEvent("runner_started")
	return nil
}

// Stop cancels running jobs and waits for them to finish
func (jr *JobRunner) Stop() error {
	jr.mu.Lock()
	if !jr.running {
		jr.mu.Unlock()
		return fmt.Errorf("job runner not running")
	}
	jr.running = false
	jr.cancel()
	jr.mu.Unlock()

	jr.workerWg.Wait()
	jr.multiLogger.LogJobEvent("runner_stopped")
	return nil
}

// IsRunning returns whether the runner accepts jobs
func (jr *JobRunner) IsRunning() bool {
	jr.mu.RLock()
	defer jr.mu.RUnlock()
	return jr.running
}

// Wait blocks until every submitted job has finished
func (jr *JobRunner) Wait() {
	jr.workerWg.Wait()
}

// SubmitDownload admits req and runs it in the background, returning its job id
func (jr *JobRunner) SubmitDownload(req *domain.DownloadRequest) (string, error) {
	jr.mu.RLock()
	defer jr.mu.RUnlock()
	if !jr.running {
		return "", fmt.Errorf("job runner not running")
	}

	lease, err := jr.downloads.Admit(req)
	if err != nil {
		return "", err
	}

	jr.workerWg.Add(1)
	go func() {
		defer jr.workerWg.Done()
		jr.downloads.Execute(jr.ctx, lease, req)
	}()
	return req.JobID, nil
}

// SubmitExtraction admits req and runs it in the background, returning its job id
func (jr *JobRunner) SubmitExtraction(req *domain.ExtractRequest) (string, error) {
	jr.mu.RLock()
	defer jr.mu.RUnlock()
	if !jr.running {
		return "", fmt.Errorf("job runner not running")
	}

	lease, err := jr.extractions.Admit(req)
	if err != nil {
		return "", err
	}

	jr.workerWg.Add(1)
	go func() {
		defer jr.workerWg.Done()
		jr.extractions.Execute(jr.ctx, lease, req)
	}()
	return req.JobID, nil
}

// ListJobs lists job history with optional filters
func (jr *JobRunner) ListJobs(filters map[string]interface{}) ([]*domain.JobRecord, error) {
	if jr.repo == nil {
		return []*domain.JobRecord{}, nil
	}
	return jr.repo.FindAll(filters)
}

// GetStats returns job history statistics
func (jr *JobRunner) GetStats() (*domain.JobStats, error) {
	if jr.repo == nil {
		return &domain.JobStats{}, nil
	}
	return jr.repo.GetStats()
}
