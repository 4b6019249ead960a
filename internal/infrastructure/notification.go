package infrastructure

import (
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// NotificationService sends desktop notifications when jobs finish. It is an
// EventSink; progress events are ignored.
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Publish notifies about terminal events in the background
func (n *NotificationService) Publish(event domain.Event) {
	if !n.config.Enabled || !event.IsTerminal() {
		return
	}
	title, message := describeEvent(event)
	go n.Send(title, message)
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		err = n.run("osascript", "-e", script)
	case "notify-send":
		err = n.run("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

func describeEvent(event domain.Event) (string, string) {
	id := truncateString(event.JobID, 30)
	switch event.Type {
	case domain.EventDownloadCompleted:
		return "Download Completed", fmt.Sprintf("Success: %s", id)
	case domain.EventDownloadFailed:
		return "Download Failed", fmt.Sprintf("Failed: %s (%s)", id, truncateString(event.Error, 60))
	case domain.EventExtractionCompleted:
		return "Extraction Completed", fmt.Sprintf("Success: %s", id)
	default:
		return "Extraction Failed", fmt.Sprintf("Failed: %s (%s)", id, truncateString(event.Error, 60))
	}
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
