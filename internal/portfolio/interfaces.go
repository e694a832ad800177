package portfolio

import (
	"errors"
	"sync"
)

// ErrNoSnapshot is returned by a Store that has never saved a snapshot
var ErrNoSnapshot = errors.New("no snapshot found")

// Trade actions
const (
	ActionOpen  = "OPEN"
	ActionClose = "CLOSE"
)

// Close reasons
const (
	ReasonStopLoss   = "STOP_LOSS"
	ReasonTakeProfit = "TAKE_PROFIT"
	ReasonManual     = "MANUAL"
	ReasonEntry      = "ENTRY"
)

// TradeRecord is one append-only line of the trade log
type TradeRecord struct {
	ID           string  `json:"id"`
	Timestamp    float64 `json:"timestamp"`
	Action       string  `json:"action"`
	Mint         string  `json:"mint"`
	Symbol       string  `json:"symbol"`
	EntryPrice   float64 `json:"entry_price"`
	CurrentPrice float64 `json:"current_price"`
	SizeQuote    float64 `json:"position_size_usdc"`
	BaseAmount   float64 `json:"token_amount"`
	PnL          float64 `json:"pnl_usd"`
	Reason       string  `json:"reason"`
}

// Snapshot is the full persisted set of open positions
type Snapshot struct {
	Positions   map[string]Position `json:"positions"`
	LastUpdated float64             `json:"last_updated"`
}

// Store persists positions and trades. SaveSnapshot must be atomic with
// respect to crashes; AppendTrade is append-only.
type Store interface {
	SaveSnapshot(snapshot Snapshot) error
	// LoadSnapshot returns ErrNoSnapshot when nothing was ever saved
	LoadSnapshot() (*Snapshot, error)
	AppendTrade(record TradeRecord) error
}

// MemoryStore keeps state in process. Used for paper trading and tests.
type MemoryStore struct {
	mu       sync.Mutex
	snapshot *Snapshot
	trades   []TradeRecord
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveSnapshot(snapshot Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := Snapshot{Positions: make(map[string]Position, len(snapshot.Positions)), LastUpdated: snapshot.LastUpdated}
	for k, v := range snapshot.Positions {
		copied.Positions[k] = v
	}
	m.snapshot = &copied
	return nil
}

func (m *MemoryStore) LoadSnapshot() (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	copied := *m.snapshot
	copied.Positions = make(map[string]Position, len(m.snapshot.Positions))
	for k, v := range m.snapshot.Positions {
		copied.Positions[k] = v
	}
	return &copied, nil
}

func (m *MemoryStore) AppendTrade(record TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, record)
	return nil
}

// Trades returns a copy of the appended trade records
func (m *MemoryStore) Trades() []TradeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TradeRecord, len(m.trades))
	copy(out, m.trades)
	return out
}
