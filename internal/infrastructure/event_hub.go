package infrastructure

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// EventHub fans job events out to subscribers such as websocket clients.
// Progress events are dropped for subscribers whose buffer is full; terminal
// events wait up to terminalWait before being dropped.
type EventHub struct {
	mu           sync.RWMutex
	subscribers  map[*subscriber]struct{}
	buffer       int
	terminalWait time.Duration
	logger       *zap.Logger
}

// subscriber owns one event channel. done is closed before ch so a sender
// blocked on a full buffer gives up instead of holding mu.
type subscriber struct {
	mu     sync.RWMutex
	ch     chan domain.Event
	done   chan struct{}
	closed bool
}

// send delivers event, waiting up to wait when wait is positive. It reports
// false when the event was not delivered.
func (s *subscriber) send(event domain.Event, wait time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return true
	}

	select {
	case s.ch <- event:
		return true
	default:
	}
	if wait <= 0 {
		return false
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case s.ch <- event:
		return true
	case <-s.done:
		return true
	case <-timer.C:
		return false
	}
}

func (s *subscriber) close() {
	close(s.done)
	s.mu.Lock()
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
}

// NewEventHub creates a hub whose subscriber channels hold buffer events
func NewEventHub(buffer int, logger *zap.Logger) *EventHub {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHub{
		subscribers:  make(map[*subscriber]struct{}),
		buffer:       buffer,
		terminalWait: time.Second,
		logger:       logger,
	}
}

// Subscribe registers a new subscriber. The returned function unsubscribes
// and closes the channel; calling it more than once is safe.
func (h *EventHub) Subscribe() (<-chan domain.Event, func()) {
	sub := &subscriber{
		ch:   make(chan domain.Event, h.buffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, sub)
			h.mu.Unlock()
			sub.close()
		})
	}
}

func (h *EventHub) snapshot() []*subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	return subs
}

// Publish delivers event to every subscriber. The hub lock is not held while
// waiting on slow subscribers, and those waits run concurrently so a terminal
// event blocks the caller for at most terminalWait.
func (h *EventHub) Publish(event domain.Event) {
	var slow []*subscriber
	for _, sub := range h.snapshot() {
		if !sub.send(event, 0) {
			slow = append(slow, sub)
		}
	}
	if len(slow) == 0 || !event.IsTerminal() {
		return
	}

	var wg sync.WaitGroup
	for _, sub := range slow {
		wg.Add(1)
		go func(sub *subscriber) {
			defer wg.Done()
			if !sub.send(event, h.terminalWait) {
				h.logger.Warn("Dropped terminal event for slow subscriber",
					zap.String("job_id", event.JobID),
					zap.String("type", string(event.Type)))
			}
		}(sub)
	}
	wg.Wait()
}

// SubscriberCount returns the number of current subscribers
func (h *EventHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Sinks publishes each event to every non-nil sink in order
type Sinks []domain.EventSink

// Publish implements domain.EventSink
func (s Sinks) Publish(event domain.Event) {
	for _, sink := range s {
		if sink != nil {
			sink.Publish(event)
		}
	}
}
