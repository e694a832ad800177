package notifications

import (
	"fmt"
	"html"
	"strings"
)

// StartupInfo describes the running configuration for the startup alert
type StartupInfo struct {
	Wallet          string
	Capital         float64
	MaxPositions    int
	StopLossPercent float64
	TakeProfit      float64
	DryRun          bool
}

func PositionOpenedMessage(symbol string, entry, size, stopLoss, takeProfit float64) string {
	return fmt.Sprintf(
		"📈 <b>POSITION OPENED</b>\n\n"+
			"🪙 Token: <b>%s</b>\n"+
			"💰 Entry: <code>$%.6f</code>\n"+
			"📊 Size: <code>$%.2f USDC</code>\n"+
			"🛑 Stop Loss: <code>$%.6f</code>\n"+
			"🎯 Take Profit: <code>$%.6f</code>\n\n"+
			"#Trading #Solana",
		html.EscapeString(symbol), entry, size, stopLoss, takeProfit)
}

func PositionClosedMessage(symbol string, pnl, pnlPercent float64, reason string) string {
	emoji := "🛑"
	if pnl > 0 {
		emoji = "🎯"
	}
	return fmt.Sprintf(
		"%s <b>POSITION CLOSED</b>\n\n"+
			"🪙 Token: <b>%s</b>\n"+
			"💵 P&amp;L: <b>%+.2f USDC (%+.1f%%)</b>\n"+
			"📝 Reason: <code>%s</code>\n\n"+
			"#Trading #Solana",
		emoji, html.EscapeString(symbol), pnl, pnlPercent, html.EscapeString(reason))
}

func PortfolioStatusMessage(totalValue, totalPnL, pnlPercent float64, positions int) string {
	return fmt.Sprintf(
		"📊 <b>PORTFOLIO UPDATE</b>\n\n"+
			"💰 Total Value: <code>$%.2f USDC</code>\n"+
			"📈 P&amp;L: <b>$%+.2f (%+.1f%%)</b>\n"+
			"📦 Open Positions: <code>%d</code>\n\n"+
			"#Portfolio #Solana",
		totalValue, totalPnL, pnlPercent, positions)
}

func HeartbeatMessage(uptimeHours float64, tradesToday int, status string) string {
	emoji := "⚠️"
	if status == "healthy" {
		emoji = "✅"
	}
	return fmt.Sprintf(
		"%s <b>BOT HEARTBEAT</b>\n\n"+
			"⏱️ Uptime: <code>%.1f hours</code>\n"+
			"💹 Trades Today: <code>%d</code>\n"+
			"🟢 Status: <code>%s</code>\n\n"+
			"#BotStatus",
		emoji, uptimeHours, tradesToday, html.EscapeString(status))
}

func ErrorMessage(text string) string {
	return fmt.Sprintf("🚨 <b>BOT ERROR</b>\n\n<code>%s</code>\n\n#Error #Alert", html.EscapeString(text))
}

func StartupMessage(info StartupInfo) string {
	var b strings.Builder
	b.WriteString("🚀 <b>SOLANA TRADING BOT STARTED</b>\n\n")
	if info.DryRun {
		b.WriteString("🧪 Mode: <code>dry run</code>\n")
	}
	fmt.Fprintf(&b, "📍 Wallet: <code>%s</code>\n", html.EscapeString(info.Wallet))
	fmt.Fprintf(&b, "💰 Capital: <code>$%.2f USDC</code>\n", info.Capital)
	fmt.Fprintf(&b, "📊 Max Positions: <code>%d</code>\n", info.MaxPositions)
	fmt.Fprintf(&b, "🛑 Stop Loss: <code>%.1f%%</code>\n", info.StopLossPercent)
	fmt.Fprintf(&b, "🎯 Take Profit: <code>%.1f%%</code>\n\n", info.TakeProfit)
	b.WriteString("#BotStarted #Solana")
	return b.String()
}
