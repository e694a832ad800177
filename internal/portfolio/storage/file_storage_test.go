package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ducminhle1904/solana-momentum-bot/internal/exchange"
	"github.com/ducminhle1904/solana-momentum-bot/internal/portfolio"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSwaps fills every swap at one token per quote unit
type fixedSwaps struct{}

func (fixedSwaps) Quote(_ context.Context, in, out string, amount float64, slippageBps int) (*exchange.Quote, error) {
	return &exchange.Quote{InputMint: in, OutputMint: out, InAmount: amount, OutAmount: amount, SlippageBps: slippageBps}, nil
}

func (fixedSwaps) Execute(_ context.Context, q *exchange.Quote) (float64, error) {
	return q.OutAmount, nil
}

type staticPrices map[string]float64

func (p staticPrices) BatchPrice(_ context.Context, mints []string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, m := range mints {
		if v, ok := p[m]; ok {
			out[m] = v
		}
	}
	return out, nil
}

func newTestStorage(t *testing.T) *FileStorage {
	t.Helper()
	dir := t.TempDir()
	return NewFileStorage(filepath.Join(dir, "bot_state.json"), filepath.Join(dir, "trades.jsonl"), zerolog.Nop())
}

// TestFileStorage_MissingSnapshot tests that a fresh directory reports no snapshot
func TestFileStorage_MissingSnapshot(t *testing.T) {
	fs := newTestStorage(t)

	snapshot, err := fs.LoadSnapshot()
	assert.Nil(t, snapshot)
	assert.ErrorIs(t, err, portfolio.ErrNoSnapshot)
}

// TestFileStorage_RestartRoundTrip tests that a new manager over the same
// files sees the same open positions
func TestFileStorage_RestartRoundTrip(t *testing.T) {
	fs := newTestStorage(t)
	cfg := portfolio.DefaultConfig()

	first := portfolio.NewManager(cfg, fixedSwaps{}, staticPrices{}, fs, zerolog.Nop())
	_, err := first.OpenPosition(context.Background(), "MintA", "AAA", 1.0, 50)
	require.NoError(t, err)
	_, err = first.OpenPosition(context.Background(), "MintB", "BBB", 2.0, 20)
	require.NoError(t, err)

	reopened := NewFileStorage(fs.filePath, fs.trades.Path(), zerolog.Nop())
	second := portfolio.NewManager(cfg, fixedSwaps{}, staticPrices{}, reopened, zerolog.Nop())

	assert.Equal(t, first.Positions(), second.Positions())
	require.Equal(t, 2, second.Count())

	trades, err := reopened.Trades()
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, portfolio.ActionOpen, trades[0].Action)
	assert.Equal(t, "MintA", trades[0].Mint)
	assert.Equal(t, "MintB", trades[1].Mint)
	assert.NotEmpty(t, trades[0].ID)
}

// TestFileStorage_CorruptSnapshot tests that malformed JSON yields an empty book
func TestFileStorage_CorruptSnapshot(t *testing.T) {
	fs := newTestStorage(t)
	require.NoError(t, os.WriteFile(fs.filePath, []byte(`{"positions": {`), 0644))

	_, err := fs.LoadSnapshot()
	require.Error(t, err)
	assert.NotErrorIs(t, err, portfolio.ErrNoSnapshot)

	m := portfolio.NewManager(portfolio.DefaultConfig(), fixedSwaps{}, staticPrices{}, fs, zerolog.Nop())
	assert.Equal(t, 0, m.Count())
}

// TestFileStorage_InvalidPosition tests that bad entries are dropped and valid ones restored
func TestFileStorage_InvalidPosition(t *testing.T) {
	fs := newTestStorage(t)
	raw := `{"positions": {
		"AAA": {"mint": "AAA", "symbol": "AAA", "entry_price_usd": 1, "entry_time": 1700000000, "position_size_usdc": 50, "token_amount": 50, "stop_loss_price": 0.85, "take_profit_price": 1.3, "current_price_usd": 1},
		"BBB": {"mint": "BBB", "symbol": "BBB", "entry_price_usd": 1, "entry_time": 1700000000, "position_size_usdc": 50, "token_amount": 0, "stop_loss_price": 0.85, "take_profit_price": 1.3, "current_price_usd": 1},
		"CCC": {"mint": "DDD", "symbol": "CCC", "entry_price_usd": 1, "entry_time": 1700000000, "position_size_usdc": 50, "token_amount": 50, "stop_loss_price": 0.85, "take_profit_price": 1.3, "current_price_usd": 1}
	}, "last_updated": 1700000000}`
	require.NoError(t, os.WriteFile(fs.filePath, []byte(raw), 0644))

	snapshot, err := fs.LoadSnapshot()
	require.NoError(t, err)
	require.Len(t, snapshot.Positions, 1)
	assert.Equal(t, 50.0, snapshot.Positions["AAA"].BaseAmount)

	m := portfolio.NewManager(portfolio.DefaultConfig(), fixedSwaps{}, staticPrices{}, fs, zerolog.Nop())
	assert.Equal(t, 1, m.Count())
	_, ok := m.Position("AAA")
	assert.True(t, ok)
}

// TestFileStorage_NoTempFileLeft tests that saving leaves only the final file
func TestFileStorage_NoTempFileLeft(t *testing.T) {
	fs := newTestStorage(t)
	require.NoError(t, fs.SaveSnapshot(portfolio.Snapshot{}))

	_, err := os.Stat(fs.filePath + ".tmp")
	assert.True(t, os.IsNotExist(err))

	snapshot, err := fs.LoadSnapshot()
	require.NoError(t, err)
	assert.NotNil(t, snapshot.Positions)
	assert.Empty(t, snapshot.Positions)
}

// TestFileStorage_Lock tests lock acquisition and release
func TestFileStorage_Lock(t *testing.T) {
	fs := newTestStorage(t)

	require.NoError(t, fs.Lock())
	assert.True(t, fs.IsLocked())
	require.NoError(t, fs.Lock())

	_, err := os.Stat(fs.lockFile)
	require.NoError(t, err)

	require.NoError(t, fs.Unlock())
	assert.False(t, fs.IsLocked())
	_, err = os.Stat(fs.lockFile)
	assert.True(t, os.IsNotExist(err))
}

// TestFileStorage_StaleLock tests that a lock from a dead process is taken over
func TestFileStorage_StaleLock(t *testing.T) {
	fs := newTestStorage(t)
	require.NoError(t, os.WriteFile(fs.lockFile, []byte("999999999"), 0644))

	require.NoError(t, fs.Lock())
	assert.True(t, fs.IsLocked())
	require.NoError(t, fs.Unlock())
}
