package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/internal/app"
	"github.com/yourusername/build-fetch-go/internal/domain"
)

// DownloadHandler handles download-related HTTP requests
type DownloadHandler struct {
	runner      *app.JobRunner
	downloadMgr *app.DownloadManager
	logger      *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(runner *app.JobRunner, downloadMgr *app.DownloadManager, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		runner:      runner,
		downloadMgr: downloadMgr,
		logger:      logger,
	}
}

// SubmitDownload handles POST /api/v1/downloads
func (h *DownloadHandler) SubmitDownload(c *gin.Context) {
	var req domain.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := h.runner.SubmitDownload(&req)
	if err != nil {
		h.logger.Warn("Download rejected", zap.String("job_id", req.JobID), zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": jobID,
		"mode":   req.Mode(),
	})
}

// ListDownloads handles GET /api/v1/downloads
func (h *DownloadHandler) ListDownloads(c *gin.Context) {
	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if jobID := c.Query("job_id"); jobID != "" {
		filters["job_id"] = jobID
	}

	records, err := h.runner.ListJobs(filters)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"downloads": records,
		"count":     len(records),
	})
}

// GetStats handles GET /api/v1/downloads/stats
func (h *DownloadHandler) GetStats(c *gin.Context) {
	stats, err := h.runner.GetStats()
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListActive handles GET /api/v1/downloads/active
func (h *DownloadHandler) ListActive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"active": h.downloadMgr.Active()})
}

// IsActive handles GET /api/v1/downloads/:job_id/active
func (h *DownloadHandler) IsActive(c *gin.Context) {
	jobID := c.Param("job_id")
	c.JSON(http.StatusOK, gin.H{
		"job_id": jobID,
		"active": h.downloadMgr.IsActive(jobID),
	})
}

// CancelDownload handles POST /api/v1/downloads/:job_id/cancel
func (h *DownloadHandler) CancelDownload(c *gin.Context) {
	jobID := c.Param("job_id")
	cancelled := h.downloadMgr.Cancel(jobID)

	c.JSON(http.StatusOK, gin.H{
		"job_id":    jobID,
		"cancelled": cancelled,
	})
}
