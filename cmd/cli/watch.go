package main

import (
	"fmt"
	"io"

	"github.com/gorilla/websocket"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// jobWatcher renders the event stream of one job as progress bars
type jobWatcher struct {
	out    io.Writer
	logger *zap.Logger

	bar     *progressbar.ProgressBar
	barType domain.EventType
}

func dialEvents(wsURL string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event stream: %w", err)
	}
	return conn, nil
}

// follow reads conn until a terminal event for jobID arrives. A failed job
// returns an error carrying the server's message.
func (w *jobWatcher) follow(conn *websocket.Conn, jobID string) error {
	w.logger.Debug("Watching job", zap.String("job_id", jobID))

	for {
		var event domain.Event
		if err := conn.ReadJSON(&event); err != nil {
			return fmt.Errorf("event stream closed: %w", err)
		}
		if event.JobID != jobID {
			continue
		}
		if done, err := w.handle(event); done {
			return err
		}
	}
}

func (w *jobWatcher) handle(event domain.Event) (bool, error) {
	switch event.Type {
	case domain.EventDownloadProgress:
		p := event.Download
		w.ensureBar(event.Type, p.TotalBytes, "Downloading")
		w.bar.Set64(p.DownloadedBytes)
	case domain.EventExtractionProgress:
		p := event.Extraction
		w.ensureBar(event.Type, int64(p.TotalFiles), "Extracting")
		w.bar.Describe("Extracting " + truncate(p.CurrentFile, 32))
		w.bar.Set(p.ProcessedFiles)
	case domain.EventDownloadCompleted, domain.EventExtractionCompleted:
		w.finishBar()
		fmt.Fprintf(w.out, "Job %s: %s\n", event.JobID, event.Type)
		return true, nil
	case domain.EventDownloadFailed, domain.EventExtractionFailed:
		w.finishBar()
		return true, fmt.Errorf("job %s failed: %s", event.JobID, event.Error)
	}
	return false, nil
}

// ensureBar starts a new bar when the job moves to another phase. An unknown
// total renders as a spinner.
func (w *jobWatcher) ensureBar(kind domain.EventType, total int64, description string) {
	if w.bar != nil && w.barType == kind {
		return
	}
	w.finishBar()
	if total <= 0 {
		total = -1
	}

	opts := []progressbar.Option{
		progressbar.OptionSetWriter(w.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w.out) }),
	}
	if kind == domain.EventDownloadProgress {
		opts = append(opts, progressbar.OptionShowBytes(true))
	}
	w.bar = progressbar.NewOptions64(total, opts...)
	w.barType = kind
}

func (w *jobWatcher) finishBar() {
	if w.bar == nil {
		return
	}
	_ = w.bar.Finish()
	w.bar = nil
}
