package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// VersionSource lists remote versions and their manifests
type VersionSource interface {
	ListVersions(ctx context.Context) ([]string, error)
	GetManifest(ctx context.Context, label string) (*domain.ManifestFile, error)
}

// VersionHandler exposes the remote build index
type VersionHandler struct {
	source VersionSource
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(source VersionSource) *VersionHandler {
	return &VersionHandler{source: source}
}

// ListVersions handles GET /api/v1/versions
func (h *VersionHandler) ListVersions(c *gin.Context) {
	versions, err := h.source.ListVersions(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"versions": versions,
		"count":    len(versions),
	})
}

// GetManifest handles GET /api/v1/versions/:version/manifest
func (h *VersionHandler) GetManifest(c *gin.Context) {
	manifest, err := h.source.GetManifest(c.Request.Context(), c.Param("version"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"manifest": manifest,
		"files":    len(manifest.Chunks),
		"chunks":   manifest.ChunkCount(),
	})
}
