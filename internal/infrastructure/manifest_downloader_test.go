package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/build-fetch-go/internal/domain"
	"github.com/yourusername/build-fetch-go/pkg/progress"
)

// chunkServer serves one manifest version and records chunk requests
type chunkServer struct {
	*httptest.Server
	mu        sync.Mutex
	requested []int
}

func (s *chunkServer) Requested() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.requested...)
}

func newChunkServer(t *testing.T, version string, manifest domain.ManifestFile, chunks map[int][]byte) *chunkServer {
	t.Helper()
	cs := &chunkServer{}
	manifestJSON, err := json.Marshal(manifest)
	require.NoError(t, err)

	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == fmt.Sprintf("/%s/%s.manifest", version, version) {
			w.Write(manifestJSON)
			return
		}
		var id int
		if _, err := fmt.Sscanf(r.URL.Path, "/"+version+"/%d.chunk", &id); err == nil {
			cs.mu.Lock()
			cs.requested = append(cs.requested, id)
			cs.mu.Unlock()
			if body, ok := chunks[id]; ok {
				w.Write(body)
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func newManifestDownloader(baseURL string) *ManifestDownloader {
	client := NewManifestClient(baseURL, NewHTTPClient(testHTTPConfig()), "build-fetch-test", nil)
	return NewManifestDownloader(client, nil, nil)
}

func threeChunkManifest() domain.ManifestFile {
	return domain.ManifestFile{
		Name: "12.41",
		Size: 30,
		Chunks: []domain.ChunkedFile{
			{File: `Game\Binaries\a.bin`, FileSize: 20, ChunkIDs: []int{1, 2}},
			{File: "Game/b.bin", FileSize: 10, ChunkIDs: []int{3}},
		},
	}
}

func TestManifestDownloader_Success(t *testing.T) {
	chunks := map[int][]byte{
		1: gzipBytes(t, []byte(strings.Repeat("A", 10))),
		2: gzipBytes(t, []byte(strings.Repeat("B", 10))),
		3: gzipBytes(t, []byte(strings.Repeat("C", 10))),
	}
	srv := newChunkServer(t, "12.41", threeChunkManifest(), chunks)
	root := t.TempDir()
	sink := &collectingSink{}

	stats, err := newManifestDownloader(srv.URL).Fetch(context.Background(), &activeFlag{}, "job", "Release-12.41", root, progress.NewEmitter(sink, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(30), stats.Downloaded)
	assert.Equal(t, []int{1, 2, 3}, srv.Requested())

	a, err := os.ReadFile(filepath.Join(root, "Game", "Binaries", "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("A", 10)+strings.Repeat("B", 10), string(a))

	b, err := os.ReadFile(filepath.Join(root, "Game", "b.bin"))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("C", 10), string(b))

	events := sink.Events()
	require.Len(t, events, 4)
	prev := 0.0
	for _, e := range events {
		assert.GreaterOrEqual(t, e.Download.Percentage, prev)
		assert.LessOrEqual(t, e.Download.Percentage, 100.0)
		prev = e.Download.Percentage
	}
	assert.Equal(t, 100.0, events[len(events)-1].Download.Percentage)
	assert.Equal(t, "0s", events[len(events)-1].Download.ETA)
}

func TestManifestDownloader_ClampsPercentage(t *testing.T) {
	manifest := threeChunkManifest()
	manifest.Size = 5 // smaller than the decompressed data
	chunks := map[int][]byte{
		1: gzipBytes(t, []byte("0123456789")),
		2: gzipBytes(t, []byte("0123456789")),
		3: gzipBytes(t, []byte("0123456789")),
	}
	srv := newChunkServer(t, "12.41", manifest, chunks)
	sink := &collectingSink{}

	_, err := newManifestDownloader(srv.URL).Fetch(context.Background(), &activeFlag{}, "job", "Release-12.41", t.TempDir(), progress.NewEmitter(sink, 0))
	require.NoError(t, err)

	for _, e := range sink.Events() {
		assert.LessOrEqual(t, e.Download.Percentage, 100.0)
	}
}

func TestManifestDownloader_CancelBetweenChunks(t *testing.T) {
	chunks := map[int][]byte{
		1: gzipBytes(t, []byte(strings.Repeat("A", 10))),
		2: gzipBytes(t, []byte(strings.Repeat("B", 10))),
		3: gzipBytes(t, []byte(strings.Repeat("C", 10))),
	}
	srv := newChunkServer(t, "12.41", threeChunkManifest(), chunks)
	root := t.TempDir()
	flag := &activeFlag{}
	sink := &cancelOnFirstProgress{flag: flag}

	stats, err := newManifestDownloader(srv.URL).Fetch(context.Background(), flag, "job", "Release-12.41", root, progress.NewEmitter(sink, 0))
	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.Equal(t, int64(10), stats.Downloaded)
	assert.Equal(t, []int{1}, srv.Requested())

	// Bytes written before the cancellation stay on disk
	a, err := os.ReadFile(filepath.Join(root, "Game", "Binaries", "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("A", 10), string(a))
}

func TestManifestDownloader_Errors(t *testing.T) {
	t.Run("invalid version label", func(t *testing.T) {
		_, err := newManifestDownloader("http://127.0.0.1:1").Fetch(context.Background(), &activeFlag{}, "job", "latest", t.TempDir(), progress.NewEmitter(nil, 0))
		assert.ErrorIs(t, err, domain.ErrInvalidVersionFormat)
	})

	t.Run("corrupt chunk", func(t *testing.T) {
		chunks := map[int][]byte{1: []byte("definitely not gzip")}
		srv := newChunkServer(t, "12.41", threeChunkManifest(), chunks)
		_, err := newManifestDownloader(srv.URL).Fetch(context.Background(), &activeFlag{}, "job", "Release-12.41", t.TempDir(), progress.NewEmitter(nil, 0))
		assert.ErrorIs(t, err, domain.ErrDecompression)
	})

	t.Run("missing chunk", func(t *testing.T) {
		chunks := map[int][]byte{1: gzipBytes(t, []byte("a"))}
		srv := newChunkServer(t, "12.41", threeChunkManifest(), chunks)
		_, err := newManifestDownloader(srv.URL).Fetch(context.Background(), &activeFlag{}, "job", "Release-12.41", t.TempDir(), progress.NewEmitter(nil, 0))
		assert.ErrorIs(t, err, domain.ErrRemote)
	})

	t.Run("entry escapes install root", func(t *testing.T) {
		manifest := domain.ManifestFile{Size: 1, Chunks: []domain.ChunkedFile{{File: "../evil", FileSize: 1, ChunkIDs: []int{1}}}}
		srv := newChunkServer(t, "12.41", manifest, map[int][]byte{1: gzipBytes(t, []byte("x"))})
		_, err := newManifestDownloader(srv.URL).Fetch(context.Background(), &activeFlag{}, "job", "Release-12.41", t.TempDir(), progress.NewEmitter(nil, 0))
		assert.ErrorIs(t, err, domain.ErrFilesystem)
		assert.Empty(t, srv.Requested())
	})
}

func TestManifestDownloader_CancelledBeforeManifestFetch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	flag := &activeFlag{}
	flag.Cancel()

	_, err := newManifestDownloader(srv.URL).Fetch(context.Background(), flag, "job", "Release-12.41", t.TempDir(), progress.NewEmitter(nil, 0))
	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.Zero(t, hits.Load())
}
