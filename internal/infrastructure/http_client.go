package infrastructure

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// newTransport builds the pooled transport shared by manifest, chunk and
// stream requests. Compression is disabled so Content-Length is the size on disk.
func newTransport(cfg *domain.HTTPConfig) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        cfg.MaxIdleConnsPerHost * 2,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		DisableCompression:  true,
	}
}

// NewHTTPClient creates a client whose requests, body included, are bounded by
// the configured request timeout. Used for manifests and chunks.
func NewHTTPClient(cfg *domain.HTTPConfig) *http.Client {
	return &http.Client{
		Transport: newTransport(cfg),
		Timeout:   cfg.RequestTimeout,
	}
}

// NewStreamingClient creates a client for long single-stream downloads: the
// request timeout bounds the wait for response headers, not the whole body.
func NewStreamingClient(cfg *domain.HTTPConfig) *http.Client {
	transport := newTransport(cfg)
	transport.ResponseHeaderTimeout = cfg.RequestTimeout
	return &http.Client{Transport: transport}
}

func newGetRequest(ctx context.Context, url, userAgent string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url %q: %v", domain.ErrRemote, url, err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return req, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// safeJoin resolves a manifest or archive entry name under root. Backslash
// separators are accepted; names that escape root are rejected.
func safeJoin(root, name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	path := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: entry %q escapes %s", domain.ErrFilesystem, name, root)
	}
	return path, nil
}
