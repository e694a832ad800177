package notifications

import "github.com/rs/zerolog"

// Alert levels
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notifier defines the interface for notification services
type Notifier interface {
	// SendAlert sends an alert with the specified level and an HTML message
	SendAlert(level, message string) error
}

// NopNotifier drops every alert. Used when no chat is configured.
type NopNotifier struct {
	logger zerolog.Logger
}

// NewNopNotifier creates a notifier that only logs at debug level
func NewNopNotifier(logger zerolog.Logger) *NopNotifier {
	return &NopNotifier{logger: logger}
}

func (n *NopNotifier) SendAlert(level, message string) error {
	n.logger.Debug().Str("level", level).Int("length", len(message)).Msg("Alert not sent, notifications disabled")
	return nil
}
