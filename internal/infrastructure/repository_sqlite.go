package infrastructure

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// filterColumns lists the columns FindAll accepts as filters
var filterColumns = map[string]bool{
	"job_id": true,
	"mode":   true,
	"status": true,
}

// SQLiteJobRepository implements JobRepository using SQLite
type SQLiteJobRepository struct {
	db *gorm.DB
}

// NewSQLiteJobRepository creates a new SQLite repository
func NewSQLiteJobRepository(dbPath string) (*SQLiteJobRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.JobRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteJobRepository{db: db}, nil
}

// Create creates a new job record
func (r *SQLiteJobRepository) Create(record *domain.JobRecord) error {
	return r.db.Create(record).Error
}

// Update updates an existing job record
func (r *SQLiteJobRepository) Update(record *domain.JobRecord) error {
	return r.db.Save(record).Error
}

// FindByID finds a record by ID
func (r *SQLiteJobRepository) FindByID(id string) (*domain.JobRecord, error) {
	var record domain.JobRecord
	err := r.db.First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindLatestByJobID finds the most recent record for jobID
// Returns nil if not found
func (r *SQLiteJobRepository) FindLatestByJobID(jobID string) (*domain.JobRecord, error) {
	var record domain.JobRecord
	err := r.db.Where("job_id = ?", jobID).Order("created_at DESC").First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindAll finds all records with optional filters
func (r *SQLiteJobRepository) FindAll(filters map[string]interface{}) ([]*domain.JobRecord, error) {
	var records []*domain.JobRecord
	query := r.db

	for key, value := range filters {
		if !filterColumns[key] {
			return nil, fmt.Errorf("%w: unknown filter %q", domain.ErrInvalidRequest, key)
		}
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}

	err := query.Order("created_at DESC").Find(&records).Error
	return records, err
}

// MarkInterrupted fails every record still running, left over from a process
// that exited before its jobs finished
func (r *SQLiteJobRepository) MarkInterrupted() (int64, error) {
	now := time.Now()
	result := r.db.Model(&domain.JobRecord{}).
		Where("status = ?", domain.StatusRunning).
		Updates(map[string]interface{}{
			"status":        domain.StatusFailed,
			"error_kind":    "interrupted",
			"error_message": "interrupted by restart",
			"completed_at":  now,
			"updated_at":    now,
		})
	return result.RowsAffected, result.Error
}

// GetStats returns job statistics
func (r *SQLiteJobRepository) GetStats() (*domain.JobStats, error) {
	stats := &domain.JobStats{}

	if err := r.db.Model(&domain.JobRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.JobStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.JobRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.StatusRunning:
			stats.Running = sc.Count
		case domain.StatusCompleted:
			stats.Completed = sc.Count
		case domain.StatusFailed:
			stats.Failed = sc.Count
		case domain.StatusCancelled:
			stats.Cancelled = sc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteJobRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
