package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// ManifestClient reads the remote build index: version list, per-version
// manifests and compressed chunks.
type ManifestClient struct {
	baseURL   string
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewManifestClient creates a manifest client for baseURL
func NewManifestClient(baseURL string, client *http.Client, userAgent string, logger *zap.Logger) *ManifestClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManifestClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		userAgent: userAgent,
		logger:    logger,
	}
}

// ListVersions fetches {base}/versions.json
func (c *ManifestClient) ListVersions(ctx context.Context) ([]string, error) {
	var versions []string
	if err := c.getJSON(ctx, c.baseURL+"/versions.json", "versions", &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// GetManifest resolves a release label such as "Release-12.41" to its manifest
func (c *ManifestClient) GetManifest(ctx context.Context, label string) (*domain.ManifestFile, error) {
	version, err := domain.ExtractVersion(label)
	if err != nil {
		return nil, err
	}
	return c.FetchManifest(ctx, version)
}

// FetchManifest fetches {base}/{version}/{version}.manifest for a numeric version
func (c *ManifestClient) FetchManifest(ctx context.Context, version string) (*domain.ManifestFile, error) {
	var manifest domain.ManifestFile
	url := fmt.Sprintf("%s/%s/%s.manifest", c.baseURL, version, version)
	if err := c.getJSON(ctx, url, "manifest", &manifest); err != nil {
		return nil, err
	}

	c.logger.Debug("Manifest fetched",
		zap.String("version", version),
		zap.Int("files", len(manifest.Chunks)),
		zap.Int64("size", manifest.Size))

	return &manifest, nil
}

// FetchChunk downloads the compressed body of one chunk
func (c *ManifestClient) FetchChunk(ctx context.Context, version string, chunkID int) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%d.chunk", c.baseURL, version, chunkID)
	req, err := newGetRequest(ctx, url, c.userAgent)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download chunk %d: %v", domain.ErrRemote, chunkID, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("%w: failed to download chunk %d: HTTP %s", domain.ErrRemote, chunkID, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read chunk %d: %v", domain.ErrRemote, chunkID, err)
	}
	return body, nil
}

func (c *ManifestClient) getJSON(ctx context.Context, url, what string, v interface{}) error {
	req, err := newGetRequest(ctx, url, c.userAgent)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to fetch %s: %v", domain.ErrRemote, what, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return fmt.Errorf("%w: failed to fetch %s: HTTP %s", domain.ErrRemote, what, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: failed to parse %s: %v", domain.ErrRemote, what, err)
	}
	return nil
}
