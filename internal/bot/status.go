package bot

import (
	"time"

	boterrors "github.com/ducminhle1904/solana-momentum-bot/internal/errors"
	"github.com/ducminhle1904/solana-momentum-bot/internal/regime"
	"github.com/ducminhle1904/solana-momentum-bot/internal/state"
)

// LeaderSummary is one line of the status leaderboard
type LeaderSummary struct {
	ID      string  `json:"id"`
	WinRate float64 `json:"win_rate"`
}

// Status is the point-in-time view journaled by the heartbeat
type Status struct {
	Timestamp      time.Time                       `json:"timestamp"`
	Regime         regime.RegimeType               `json:"regime"`
	Confidence     float64                         `json:"regime_confidence"`
	BestWinRate    float64                         `json:"win_rate"`
	OpenPositions  int                             `json:"open_positions"`
	MaxPositions   int                             `json:"max_positions"`
	TotalPnL       float64                         `json:"total_pnl"`
	RealizedPnL    float64                         `json:"realized_pnl"`
	Generation     int                             `json:"evolution_generation"`
	VariantsTested int                             `json:"variants_tested"`
	TradesToday    int                             `json:"trades_today"`
	Leaderboard    []LeaderSummary                 `json:"strategy_leaderboard,omitempty"`
	Errors         map[boterrors.ErrorCategory]int `json:"errors_by_category,omitempty"`
	EntriesHalted  bool                            `json:"entries_halted"`
	State          string                          `json:"status"`
}

// Status collects the current state of every component
func (b *Bot) Status() Status {
	summary := b.deps.Positions.Summary()
	evo := b.deps.Evolver.Status()

	b.mu.Lock()
	running, halted := b.running, b.halted
	b.mu.Unlock()

	s := Status{
		Timestamp:      b.now().UTC(),
		Regime:         b.deps.Regime.Current().Type,
		Confidence:     b.deps.Regime.Confidence(),
		BestWinRate:    evo.BestWinRate,
		OpenPositions:  summary.NumPositions,
		MaxPositions:   b.deps.Positions.Config().MaxPositions,
		TotalPnL:       summary.TotalPnL,
		RealizedPnL:    summary.RealizedPnL,
		Generation:     evo.Generation,
		VariantsTested: evo.VariantsTested,
		TradesToday:    b.TradesToday(),
		Errors:         b.errs.Counts(),
		EntriesHalted:  halted,
		State:          "stopped",
	}
	if running {
		s.State = "running"
	}
	if b.deps.Leaderboard != nil {
		for _, e := range b.deps.Leaderboard.Top(5) {
			s.Leaderboard = append(s.Leaderboard, LeaderSummary{ID: e.ID, WinRate: e.WinRate})
		}
	}
	return s
}

func (b *Bot) saveStatus() {
	if b.config.StatusFile == "" {
		return
	}
	if err := state.WriteJSONAtomic(b.config.StatusFile, b.Status()); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to save status")
	}
}
