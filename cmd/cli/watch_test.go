package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// eventServer writes events to the first WebSocket client and then waits
// for it to disconnect
func eventServer(t *testing.T, events []domain.Event) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, e := range events {
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		}
		conn.ReadMessage()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func followEvents(t *testing.T, events []domain.Event) (string, error) {
	t.Helper()
	conn, err := dialEvents(eventServer(t, events))
	require.NoError(t, err)
	defer conn.Close()

	var out bytes.Buffer
	w := &jobWatcher{out: &out, logger: zap.NewNop()}
	err = w.follow(conn, "job-1")
	return out.String(), err
}

func TestJobWatcher_Completed(t *testing.T) {
	out, err := followEvents(t, []domain.Event{
		domain.NewDownloadProgressEvent(domain.DownloadProgress{JobID: "other", DownloadedBytes: 1, TotalBytes: 2}),
		domain.NewDownloadProgressEvent(domain.DownloadProgress{JobID: "job-1", DownloadedBytes: 512, TotalBytes: 1024}),
		domain.NewExtractionProgressEvent(domain.ExtractionProgress{JobID: "job-1", CurrentFile: "a.txt", TotalFiles: 2, ProcessedFiles: 1}),
		domain.NewTerminalEvent(domain.EventDownloadCompleted, "other", nil),
		domain.NewTerminalEvent(domain.EventDownloadCompleted, "job-1", nil),
	})

	require.NoError(t, err)
	assert.Contains(t, out, "Job job-1: download.completed")
}

func TestJobWatcher_Failed(t *testing.T) {
	_, err := followEvents(t, []domain.Event{
		domain.NewDownloadProgressEvent(domain.DownloadProgress{JobID: "job-1"}),
		domain.NewTerminalEvent(domain.EventDownloadFailed, "job-1", domain.ErrRemote),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote error")
}

func TestJobWatcher_StreamClosed(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err == nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	conn, err := dialEvents("ws" + strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	defer conn.Close()

	w := &jobWatcher{out: &bytes.Buffer{}, logger: zap.NewNop()}
	err = w.follow(conn, "job-1")
	assert.ErrorContains(t, err, "event stream closed")
}
