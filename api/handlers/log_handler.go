package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/build-fetch-go/internal/domain"
	"github.com/yourusername/build-fetch-go/pkg/logger"
)

const maxLogEntries = 1000

// LogHandler serves the jobs and error log categories
type LogHandler struct {
	reader *logger.LogReader
}

// NewLogHandler creates a new log handler
func NewLogHandler(logsDir string) *LogHandler {
	return &LogHandler{reader: logger.NewLogReader(logsDir)}
}

// logQuery holds the parsed parameters shared by the log endpoints
type logQuery struct {
	category logger.LogCategory
	date     time.Time
	search   string
	limit    int
}

func parseLogQuery(c *gin.Context, defaultLimit int) (*logQuery, error) {
	category, err := logger.ParseCategory(c.Param("category"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	q := &logQuery{category: category, date: time.Now(), search: c.Query("q"), limit: defaultLimit}
	if s := c.Query("date"); s != "" {
		if q.date, err = time.ParseInLocation("2006-01-02", s, time.Local); err != nil {
			return nil, fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD", domain.ErrInvalidRequest, s)
		}
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: invalid limit %q", domain.ErrInvalidRequest, s)
		}
		q.limit = n
	}
	if q.limit == 0 || q.limit > maxLogEntries {
		q.limit = maxLogEntries
	}
	return q, nil
}

func (h *LogHandler) read(q *logQuery) ([]logger.LogEntry, error) {
	if q.search != "" {
		return h.reader.SearchLogs(q.category, q.date, q.search, q.limit)
	}
	return h.reader.ReadLogs(q.category, q.date, q.limit)
}

// GetLogs handles GET /api/v1/logs/:category?date=&limit=&q=
func (h *LogHandler) GetLogs(c *gin.Context) {
	q, err := parseLogQuery(c, 100)
	if err != nil {
		abortWithError(c, err)
		return
	}

	entries, err := h.read(q)
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: failed to read logs: %v", domain.ErrFilesystem, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": q.category,
		"date":     q.date.Format("2006-01-02"),
		"count":    len(entries),
		"entries":  entries,
	})
}

// ExportLogs handles GET /api/v1/logs/:category/export as newline delimited JSON
func (h *LogHandler) ExportLogs(c *gin.Context) {
	q, err := parseLogQuery(c, maxLogEntries)
	if err != nil {
		abortWithError(c, err)
		return
	}

	entries, err := h.read(q)
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: failed to read logs: %v", domain.ErrFilesystem, err))
		return
	}

	filename := fmt.Sprintf("%s-%s.ndjson", q.category, q.date.Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return
		}
	}
}

// GetCategories handles GET /api/v1/logs/categories
func (h *LogHandler) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": []logger.LogCategory{logger.CategoryJobs, logger.CategoryError},
	})
}
