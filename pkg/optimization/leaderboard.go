package optimization

import (
	"sort"
	"sync"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/internal/state"
	"github.com/ducminhle1904/solana-momentum-bot/internal/strategy"
)

// LeaderboardEntry is the latest score of one variant
type LeaderboardEntry struct {
	ID        string          `json:"id"`
	WinRate   float64         `json:"win_rate"`
	Trades    int             `json:"trades"`
	Sharpe    float64         `json:"sharpe"`
	PnL       float64         `json:"pnl"`
	Params    strategy.Params `json:"params"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type leaderboardFile struct {
	Entries     []LeaderboardEntry `json:"entries"`
	LastUpdated time.Time          `json:"last_updated"`
}

// Leaderboard keeps the top variants by win rate. It is display-only and
// rewritten atomically on every Record call.
type Leaderboard struct {
	mu      sync.Mutex
	path    string
	maxSize int
	entries []LeaderboardEntry
}

// NewLeaderboard loads path when present. A missing or unreadable file starts empty.
func NewLeaderboard(path string, maxSize int) *Leaderboard {
	if maxSize <= 0 {
		maxSize = 20
	}
	lb := &Leaderboard{path: path, maxSize: maxSize}

	var stored leaderboardFile
	if err := state.ReadJSON(path, &stored); err == nil {
		lb.entries = stored.Entries
	}
	return lb
}

// Record upserts every tested variant, keeps the top maxSize and saves
func (l *Leaderboard) Record(variants []Variant) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	index := make(map[string]int, len(l.entries))
	for i, e := range l.entries {
		index[e.ID] = i
	}

	for _, v := range variants {
		entry := LeaderboardEntry{
			ID:        v.ID,
			WinRate:   v.WinRate,
			Trades:    v.Trades,
			Sharpe:    v.Sharpe,
			PnL:       v.PnL,
			Params:    v.Params,
			UpdatedAt: now,
		}
		if i, ok := index[v.ID]; ok {
			l.entries[i] = entry
			continue
		}
		index[v.ID] = len(l.entries)
		l.entries = append(l.entries, entry)
	}

	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].WinRate > l.entries[j].WinRate
	})
	if len(l.entries) > l.maxSize {
		l.entries = l.entries[:l.maxSize]
	}

	return state.WriteJSONAtomic(l.path, leaderboardFile{Entries: l.entries, LastUpdated: now})
}

// Top returns up to n leading entries
func (l *Leaderboard) Top(n int) []LeaderboardEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]LeaderboardEntry, n)
	copy(out, l.entries[:n])
	return out
}
