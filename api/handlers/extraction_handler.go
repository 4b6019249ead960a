package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/internal/app"
	"github.com/yourusername/build-fetch-go/internal/domain"
)

// ExtractionHandler handles extraction job requests
type ExtractionHandler struct {
	runner        *app.JobRunner
	extractionMgr *app.ExtractionManager
	logger        *zap.Logger
}

// NewExtractionHandler creates a new extraction handler
func NewExtractionHandler(runner *app.JobRunner, extractionMgr *app.ExtractionManager, logger *zap.Logger) *ExtractionHandler {
	return &ExtractionHandler{
		runner:        runner,
		extractionMgr: extractionMgr,
		logger:        logger,
	}
}

// SubmitExtraction handles POST /api/v1/extractions
func (h *ExtractionHandler) SubmitExtraction(c *gin.Context) {
	var req domain.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := h.runner.SubmitExtraction(&req)
	if err != nil {
		h.logger.Warn("Extraction rejected", zap.String("job_id", req.JobID), zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":      jobID,
		"destination": req.Target(),
	})
}

// ListActive handles GET /api/v1/extractions/active
func (h *ExtractionHandler) ListActive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"active": h.extractionMgr.Active()})
}

// IsActive handles GET /api/v1/extractions/:job_id/active
func (h *ExtractionHandler) IsActive(c *gin.Context) {
	jobID := c.Param("job_id")
	c.JSON(http.StatusOK, gin.H{
		"job_id": jobID,
		"active": h.extractionMgr.IsActive(jobID),
	})
}

// CancelExtraction handles POST /api/v1/extractions/:job_id/cancel
func (h *ExtractionHandler) CancelExtraction(c *gin.Context) {
	jobID := c.Param("job_id")
	c.JSON(http.StatusOK, gin.H{
		"job_id":    jobID,
		"cancelled": h.extractionMgr.Cancel(jobID),
	})
}
