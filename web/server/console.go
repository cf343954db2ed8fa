package server

import (
	"fmt"
	"strings"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger mirrors session messages to the server log and to the browser
// console of the render stream
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
}

// NewWebLogger creates a new web logger for a specific render
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage) *WebLogger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
	}
}

// Printf sends an info message
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	logger.Infof("[%s] %s", wl.renderID, strings.TrimRight(message, "\n"))
	wl.send(message, "info")
}

// Warningf sends a warning message
func (wl *WebLogger) Warningf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	logger.Warningf("[%s] %s", wl.renderID, strings.TrimRight(message, "\n"))
	wl.send(message, "warning")
}

func (wl *WebLogger) send(message, level string) {
	if wl.consoleChan == nil {
		return
	}
	select {
	case wl.consoleChan <- ConsoleMessage{
		Message:   message,
		Timestamp: time.Now(),
		Level:     level,
	}:
	default:
		// Channel full, skip (don't block)
	}
}
