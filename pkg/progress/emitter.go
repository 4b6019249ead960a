package progress

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// Emitter publishes progress snapshots for one job, at most once per interval.
// An interval of zero or less publishes every snapshot.
type Emitter struct {
	sink     domain.EventSink
	throttle *rate.Sometimes
}

// NewEmitter creates an emitter writing to sink. A nil sink discards everything.
func NewEmitter(sink domain.EventSink, interval time.Duration) *Emitter {
	throttle := &rate.Sometimes{Interval: interval}
	if interval <= 0 {
		throttle = &rate.Sometimes{Every: 1}
	}
	return &Emitter{sink: sink, throttle: throttle}
}

// Download publishes a download snapshot unless one was published within the interval
func (e *Emitter) Download(p domain.DownloadProgress) {
	e.throttle.Do(func() { e.publish(domain.NewDownloadProgressEvent(p)) })
}

// FlushDownload publishes a download snapshot regardless of the interval
func (e *Emitter) FlushDownload(p domain.DownloadProgress) {
	e.publish(domain.NewDownloadProgressEvent(p))
}

// Extraction publishes an extraction snapshot unless one was published within the interval
func (e *Emitter) Extraction(p domain.ExtractionProgress) {
	e.throttle.Do(func() { e.publish(domain.NewExtractionProgressEvent(p)) })
}

// FlushExtraction publishes an extraction snapshot regardless of the interval
func (e *Emitter) FlushExtraction(p domain.ExtractionProgress) {
	e.publish(domain.NewExtractionProgressEvent(p))
}

func (e *Emitter) publish(event domain.Event) {
	if e.sink == nil {
		return
	}
	e.sink.Publish(event)
}
