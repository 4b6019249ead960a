package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory names one of the JSON log streams under the logs directory
type LogCategory string

const (
	CategoryJobs  LogCategory = "jobs"  // job lifecycle events
	CategoryError LogCategory = "error" // failed jobs, panics, 5xx responses
)

// logFileName is the on-disk name of a category's log for a given day
func logFileName(category LogCategory, day time.Time) string {
	return fmt.Sprintf("%s-%s.log", category, day.Format("20060102"))
}

// MultiLogger writes job lifecycle and error logs to separate files that
// roll over at midnight. A nil *MultiLogger discards everything.
type MultiLogger struct {
	jobs   *zap.Logger
	errors *zap.Logger
	files  []*dailyFile
	dir    string
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // minimum level of the jobs stream
	LogsDir string
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}
	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	ml := &MultiLogger{dir: config.LogsDir}
	ml.jobs = ml.newCategoryLogger(CategoryJobs, level)
	ml.errors = ml.newCategoryLogger(CategoryError, zapcore.ErrorLevel)
	return ml, nil
}

func (ml *MultiLogger) newCategoryLogger(category LogCategory, level zapcore.Level) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.CallerKey = ""

	file := &dailyFile{dir: ml.dir, category: category, now: time.Now}
	ml.files = append(ml.files, file)

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), file, level)
	return zap.New(core)
}

// LogsDir returns the directory the category files are written to
func (ml *MultiLogger) LogsDir() string {
	if ml == nil {
		return ""
	}
	return ml.dir
}

// Jobs returns the job lifecycle logger
func (ml *MultiLogger) Jobs() *zap.Logger {
	if ml == nil {
		return zap.NewNop()
	}
	return ml.jobs
}

// LogAppError records msg in the error stream
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	if ml == nil {
		return
	}
	ml.errors.Error(msg, fields...)
}

// LogJobEvent records a job lifecycle event
func (ml *MultiLogger) LogJobEvent(event string, fields ...zap.Field) {
	if ml == nil {
		return
	}
	ml.jobs.Info(event, fields...)
}

// Close flushes and closes every open log file
func (ml *MultiLogger) Close() error {
	if ml == nil {
		return nil
	}
	var errs []error
	for _, f := range ml.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// dailyFile is a zapcore.WriteSyncer that appends to <category>-<yyyymmdd>.log,
// switching files when the day changes
type dailyFile struct {
	dir      string
	category LogCategory
	now      func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if day := now.Format("20060102"); d.file == nil || day != d.day {
		if err := d.reopen(now); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

func (d *dailyFile) reopen(now time.Time) error {
	if d.file != nil {
		d.file.Close()
		d.file = nil
	}
	path := filepath.Join(d.dir, logFileName(d.category, now))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	d.file = file
	d.day = now.Format("20060102")
	return nil
}

func (d *dailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
