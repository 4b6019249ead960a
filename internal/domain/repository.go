package domain

// JobRepository defines the interface for job history persistence
type JobRepository interface {
	// Create creates a new job record
	Create(record *JobRecord) error

	// Update updates an existing job record
	Update(record *JobRecord) error

	// FindByID finds a record by its record ID
	FindByID(id string) (*JobRecord, error)

	// FindLatestByJobID finds the most recent record for a job id
	// Returns nil if not found
	FindLatestByJobID(jobID string) (*JobRecord, error)

	// FindAll finds all records with optional filters, newest first
	FindAll(filters map[string]interface{}) ([]*JobRecord, error)

	// MarkInterrupted fails records left running by a previous process
	MarkInterrupted() (int64, error)

	// GetStats returns job statistics
	GetStats() (*JobStats, error)
}

// JobStats represents job history statistics
type JobStats struct {
	Total     int64 `json:"total"`
	Running   int64 `json:"running"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`
}
