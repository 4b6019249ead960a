package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/internal/domain"
	"github.com/yourusername/build-fetch-go/internal/infrastructure"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the UI runs on a different origin
	},
}

// EventWebSocketHandler streams job events to WebSocket clients
type EventWebSocketHandler struct {
	hub          *infrastructure.EventHub
	logger       *zap.Logger
	pingInterval time.Duration
}

// NewEventWebSocketHandler creates a new event stream handler
func NewEventWebSocketHandler(hub *infrastructure.EventHub, log *zap.Logger) *EventWebSocketHandler {
	return &EventWebSocketHandler{
		hub:          hub,
		logger:       log,
		pingInterval: 30 * time.Second,
	}
}

// HandleWebSocket handles GET /api/v1/events. Optional ?job_id= limits the
// stream to one job and ?types= to a comma separated list of event types.
func (h *EventWebSocketHandler) HandleWebSocket(c *gin.Context) {
	filter := newEventFilter(c.Query("job_id"), c.Query("types"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	h.logger.Info("WebSocket client connected",
		zap.String("job_id", filter.jobID),
		zap.String("remote_addr", c.Request.RemoteAddr))

	// Read from the client only to notice when it goes away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if !filter.match(event) {
				continue
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("Failed to send event", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			h.logger.Info("WebSocket client disconnected", zap.String("remote_addr", c.Request.RemoteAddr))
			return
		}
	}
}

type eventFilter struct {
	jobID string
	types map[domain.EventType]bool
}

func newEventFilter(jobID, types string) eventFilter {
	f := eventFilter{jobID: jobID}
	if types != "" {
		f.types = make(map[domain.EventType]bool)
		for _, t := range strings.Split(types, ",") {
			f.types[domain.EventType(strings.TrimSpace(t))] = true
		}
	}
	return f
}

func (f eventFilter) match(event domain.Event) bool {
	if f.jobID != "" && event.JobID != f.jobID {
		return false
	}
	if f.types != nil && !f.types[event.Type] {
		return false
	}
	return true
}
