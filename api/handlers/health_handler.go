package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/build-fetch-go/internal/app"
)

// Version is reported by /health
const Version = "1.0.0"

// HealthHandler reports liveness and readiness
type HealthHandler struct {
	runner      *app.JobRunner
	downloads   *app.DownloadManager
	extractions *app.ExtractionManager
	started     time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(runner *app.JobRunner, downloads *app.DownloadManager, extractions *app.ExtractionManager) *HealthHandler {
	return &HealthHandler{
		runner:      runner,
		downloads:   downloads,
		extractions: extractions,
		started:     time.Now(),
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status            string `json:"status"`
	Version           string `json:"version"`
	Uptime            string `json:"uptime"`
	RunnerRunning     bool   `json:"runner_running"`
	ActiveDownloads   int    `json:"active_downloads"`
	ActiveExtractions int    `json:"active_extractions"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:            "ok",
		Version:           Version,
		Uptime:            time.Since(h.started).Round(time.Second).String(),
		RunnerRunning:     h.runner.IsRunning(),
		ActiveDownloads:   len(h.downloads.Active()),
		ActiveExtractions: len(h.extractions.Active()),
	})
}

// Ready handles GET /ready; the server is ready once the runner accepts jobs
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.runner.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
