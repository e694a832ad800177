package notifications

import "github.com/rs/zerolog"

// Alerter formats trading events and hands them to a Notifier. Delivery is
// best effort: failures are logged and reported as false, never returned.
type Alerter struct {
	notifier Notifier
	logger   zerolog.Logger
}

// NewAlerter wraps notifier. A nil notifier disables delivery.
func NewAlerter(notifier Notifier, logger zerolog.Logger) *Alerter {
	logger = logger.With().Str("component", "alerts").Logger()
	if notifier == nil {
		notifier = NewNopNotifier(logger)
	}
	return &Alerter{notifier: notifier, logger: logger}
}

func (a *Alerter) send(level, message string) bool {
	if err := a.notifier.SendAlert(level, message); err != nil {
		a.logger.Warn().Err(err).Str("level", level).Msg("Failed to send alert")
		return false
	}
	return true
}

func (a *Alerter) PositionOpened(symbol string, entry, size, stopLoss, takeProfit float64) bool {
	return a.send(LevelInfo, PositionOpenedMessage(symbol, entry, size, stopLoss, takeProfit))
}

func (a *Alerter) PositionClosed(symbol string, pnl, pnlPercent float64, reason string) bool {
	level := LevelWarning
	if pnl > 0 {
		level = LevelSuccess
	}
	return a.send(level, PositionClosedMessage(symbol, pnl, pnlPercent, reason))
}

func (a *Alerter) PortfolioStatus(totalValue, totalPnL, pnlPercent float64, positions int) bool {
	return a.send(LevelInfo, PortfolioStatusMessage(totalValue, totalPnL, pnlPercent, positions))
}

func (a *Alerter) Heartbeat(uptimeHours float64, tradesToday int, status string) bool {
	return a.send(LevelInfo, HeartbeatMessage(uptimeHours, tradesToday, status))
}

func (a *Alerter) Error(text string) bool {
	return a.send(LevelError, ErrorMessage(text))
}

func (a *Alerter) Startup(info StartupInfo) bool {
	return a.send(LevelInfo, StartupMessage(info))
}
