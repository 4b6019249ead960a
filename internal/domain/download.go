package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DownloadMode selects the downloader used for a request
type DownloadMode string

const (
	ModeSimple   DownloadMode = "simple"   // single HTTP stream
	ModeManifest DownloadMode = "manifest" // chunked manifest download
)

// DownloadRequest asks for one artifact to be fetched
type DownloadRequest struct {
	JobID              string `json:"job_id"`
	URL                string `json:"url,omitempty"`
	Version            string `json:"version,omitempty"`
	Destination        string `json:"destination"`
	Extract            bool   `json:"extract"`
	DeleteAfterExtract bool   `json:"delete_after_extract"`
	UseManifest        bool   `json:"use_manifest"`
}

// Mode returns the downloader mode requested
func (r *DownloadRequest) Mode() DownloadMode {
	if r.UseManifest {
		return ModeManifest
	}
	return ModeSimple
}

// Source returns the URL or version label the request downloads from
func (r *DownloadRequest) Source() string {
	if r.UseManifest {
		return r.Version
	}
	return r.URL
}

// Validate checks the request is well formed. A missing job id is filled in.
func (r *DownloadRequest) Validate() error {
	if r.JobID == "" {
		r.JobID = uuid.New().String()
	}
	if r.Destination == "" {
		return fmt.Errorf("%w: destination is required", ErrInvalidRequest)
	}
	if r.UseManifest {
		if r.Version == "" {
			return fmt.Errorf("%w: version is required for manifest-based download", ErrInvalidRequest)
		}
		return nil
	}
	if r.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	return nil
}

// DownloadResult is returned to the caller of a finished job
type DownloadResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Path          string `json:"path,omitempty"`
	ExtractedPath string `json:"extracted_path,omitempty"`
}

// DownloadProgress is a point-in-time snapshot of a running download
type DownloadProgress struct {
	JobID           string  `json:"job_id"`
	Percentage      float64 `json:"percentage"`
	DownloadedBytes int64   `json:"downloaded_bytes"`
	TotalBytes      int64   `json:"total_bytes"`
	Speed           float64 `json:"speed"` // bytes per second since job start
	ETA             string  `json:"eta"`
}

// ExtractionProgress is a point-in-time snapshot of a running extraction
type ExtractionProgress struct {
	JobID          string  `json:"job_id"`
	Percentage     float64 `json:"percentage"`
	CurrentFile    string  `json:"current_file"`
	TotalFiles     int     `json:"total_files"`
	ProcessedFiles int     `json:"processed_files"`
	ETA            string  `json:"eta"`
}

// ExtractRequest asks for an archive to be unpacked
type ExtractRequest struct {
	JobID         string `json:"job_id"`
	Archive       string `json:"archive"`
	Destination   string `json:"destination,omitempty"`
	DeleteArchive bool   `json:"delete_archive"`
}

// Validate checks the request is well formed. A missing job id is filled in.
func (r *ExtractRequest) Validate() error {
	if r.JobID == "" {
		r.JobID = uuid.New().String()
	}
	if r.Archive == "" {
		return fmt.Errorf("%w: archive is required", ErrInvalidRequest)
	}
	return nil
}

// Target returns the extraction directory, defaulting to the archive path
// without its extension
func (r *ExtractRequest) Target() string {
	if r.Destination != "" {
		return r.Destination
	}
	return strings.TrimSuffix(r.Archive, filepath.Ext(r.Archive))
}

// JobStatus represents the lifecycle state of a recorded job
type JobStatus string

const (
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// JobRecord is the persisted history entry of a download job
type JobRecord struct {
	ID              string       `json:"id" gorm:"primaryKey"`
	JobID           string       `json:"job_id" gorm:"not null;index"`
	Mode            DownloadMode `json:"mode" gorm:"not null"`
	Source          string       `json:"source" gorm:"not null"`
	Destination     string       `json:"destination"`
	Status          JobStatus    `json:"status" gorm:"not null;index"`
	ErrorKind       string       `json:"error_kind,omitempty"`
	ErrorMessage    string       `json:"error_message,omitempty"`
	DownloadedBytes int64        `json:"downloaded_bytes"`
	TotalBytes      int64        `json:"total_bytes"`
	ExtractedPath   string       `json:"extracted_path,omitempty"`
	CreatedAt       time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
}

// NewJobRecord creates a running history entry for req
func NewJobRecord(req *DownloadRequest) *JobRecord {
	now := time.Now()
	return &JobRecord{
		ID:          uuid.New().String(),
		JobID:       req.JobID,
		Mode:        req.Mode(),
		Source:      req.Source(),
		Destination: req.Destination,
		Status:      StatusRunning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkCompleted marks the job as completed
func (j *JobRecord) MarkCompleted(downloaded, total int64) {
	j.Status = StatusCompleted
	j.DownloadedBytes = downloaded
	j.TotalBytes = total
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkFailed marks the job as failed, or cancelled when err is ErrCancelled
func (j *JobRecord) MarkFailed(err error) {
	j.Status = StatusFailed
	j.ErrorKind = ErrorKind(err)
	if j.ErrorKind == "cancelled" {
		j.Status = StatusCancelled
	}
	j.ErrorMessage = err.Error()
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// IsTerminal checks if the job is in a terminal state
func (j *JobRecord) IsTerminal() bool {
	return j.Status != StatusRunning
}
