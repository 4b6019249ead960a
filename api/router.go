package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/api/handlers"
	"github.com/yourusername/build-fetch-go/api/middleware"
	"github.com/yourusername/build-fetch-go/internal/app"
	"github.com/yourusername/build-fetch-go/internal/infrastructure"
	"github.com/yourusername/build-fetch-go/pkg/logger"
)

// RouterDeps bundles what the HTTP facade exposes
type RouterDeps struct {
	Runner      *app.JobRunner
	Downloads   *app.DownloadManager
	Extractions *app.ExtractionManager
	Versions    handlers.VersionSource
	Hub         *infrastructure.EventHub
	Gatherer    prometheus.Gatherer
	InstallDir  string
	LogsDir     string
	Logger      *zap.Logger
	MultiLogger *logger.MultiLogger
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps RouterDeps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log, deps.MultiLogger))
	router.Use(middleware.Recovery(log, deps.MultiLogger))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(deps.Runner, deps.Downloads, deps.Extractions)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		versionHandler := handlers.NewVersionHandler(deps.Versions)
		v1.GET("/versions", versionHandler.ListVersions)
		v1.GET("/versions/:version/manifest", versionHandler.GetManifest)

		downloadHandler := handlers.NewDownloadHandler(deps.Runner, deps.Downloads, log)
		downloads := v1.Group("/downloads")
		{
			downloads.POST("", downloadHandler.SubmitDownload)
			downloads.GET("", downloadHandler.ListDownloads)
			downloads.GET("/stats", downloadHandler.GetStats)
			downloads.GET("/active", downloadHandler.ListActive)
			downloads.GET("/:job_id/active", downloadHandler.IsActive)
			downloads.POST("/:job_id/cancel", downloadHandler.CancelDownload)
		}

		extractionHandler := handlers.NewExtractionHandler(deps.Runner, deps.Extractions, log)
		extractions := v1.Group("/extractions")
		{
			extractions.POST("", extractionHandler.SubmitExtraction)
			extractions.GET("/active", extractionHandler.ListActive)
			extractions.GET("/:job_id/active", extractionHandler.IsActive)
			extractions.POST("/:job_id/cancel", extractionHandler.CancelExtraction)
		}

		if deps.Hub != nil {
			eventHandler := handlers.NewEventWebSocketHandler(deps.Hub, log)
			v1.GET("/events", eventHandler.HandleWebSocket)
		}

		logHandler := handlers.NewLogHandler(deps.LogsDir)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}

		fileHandler := handlers.NewFileHandler(deps.InstallDir)
		v1.GET("/install-dir", fileHandler.InstallDir)
		v1.GET("/files/exists", fileHandler.FileExists)
		v1.GET("/files/versions", fileHandler.ScanVersions)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
