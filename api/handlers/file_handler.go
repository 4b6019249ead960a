package handlers

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/build-fetch-go/internal/domain"
	"github.com/yourusername/build-fetch-go/internal/infrastructure"
)

// FileHandler answers local filesystem queries for the UI
type FileHandler struct {
	installDir string
}

// NewFileHandler creates a new file handler
func NewFileHandler(installDir string) *FileHandler {
	return &FileHandler{installDir: installDir}
}

// InstallDir handles GET /api/v1/install-dir, creating the directory on demand
func (h *FileHandler) InstallDir(c *gin.Context) {
	if err := os.MkdirAll(h.installDir, 0755); err != nil {
		abortWithError(c, fmt.Errorf("%w: failed to create install directory: %v", domain.ErrFilesystem, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": h.installDir})
}

// FileExists handles GET /api/v1/files/exists?path=
func (h *FileHandler) FileExists(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		abortWithError(c, fmt.Errorf("%w: query parameter 'path' is required", domain.ErrInvalidRequest))
		return
	}

	_, err := os.Stat(path)
	c.JSON(http.StatusOK, gin.H{
		"path":   path,
		"exists": err == nil,
	})
}

// ScanVersions handles GET /api/v1/files/versions?path=&marker=
func (h *FileHandler) ScanVersions(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		abortWithError(c, fmt.Errorf("%w: query parameter 'path' is required", domain.ErrInvalidRequest))
		return
	}
	marker := c.DefaultQuery("marker", infrastructure.DefaultVersionMarker)

	found, err := infrastructure.ScanVersionStrings(path, marker)
	if err != nil {
		abortWithError(c, err)
		return
	}

	versions := make([]gin.H, 0, len(found))
	for _, label := range found {
		entry := gin.H{"label": label}
		if numeric, err := domain.ExtractVersion(label); err == nil {
			entry["version"] = numeric
		}
		versions = append(versions, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"path":     path,
		"versions": versions,
	})
}
