package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ducminhle1904/solana-momentum-bot/internal/portfolio"
	"github.com/ducminhle1904/solana-momentum-bot/internal/state"
	"github.com/rs/zerolog"
)

// ErrLocked is returned when another process holds the state lock
var ErrLocked = errors.New("state directory is locked by another process")

// FileStorage implements portfolio.Store with a JSON snapshot file and a
// JSONL trade log
type FileStorage struct {
	mu       sync.RWMutex
	filePath string
	lockFile string
	trades   *state.Journal
	isLocked bool
	logger   zerolog.Logger
}

// NewFileStorage creates a file-backed store
func NewFileStorage(snapshotPath, tradesPath string, logger zerolog.Logger) *FileStorage {
	if snapshotPath == "" {
		snapshotPath = filepath.Join("data", "bot_state.json")
	}
	if tradesPath == "" {
		tradesPath = filepath.Join(filepath.Dir(snapshotPath), "trades.jsonl")
	}

	return &FileStorage{
		filePath: snapshotPath,
		lockFile: snapshotPath + ".lock",
		trades:   state.NewJournal(tradesPath),
		logger:   logger.With().Str("component", "storage").Logger(),
	}
}

// SaveSnapshot writes the snapshot via a temp file and rename
func (f *FileStorage) SaveSnapshot(snapshot portfolio.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if snapshot.Positions == nil {
		snapshot.Positions = map[string]portfolio.Position{}
	}
	if err := state.WriteJSONAtomic(f.filePath, snapshot); err != nil {
		return fmt.Errorf("failed to save position snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the snapshot. Entries that fail validation are dropped
// with a warning; the remaining positions are returned.
func (f *FileStorage) LoadSnapshot() (*portfolio.Snapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var snapshot portfolio.Snapshot
	if err := state.ReadJSON(f.filePath, &snapshot); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, portfolio.ErrNoSnapshot
		}
		return nil, err
	}

	for mint, reason := range pruneSnapshot(&snapshot) {
		f.logger.Warn().Str("mint", mint).Str("reason", reason).Msg("Dropping invalid position from snapshot")
	}
	return &snapshot, nil
}

// AppendTrade appends one line to the trade log
func (f *FileStorage) AppendTrade(record portfolio.TradeRecord) error {
	return f.trades.Append(record)
}

// Trades reads the whole trade log, skipping malformed lines
func (f *FileStorage) Trades() ([]portfolio.TradeRecord, error) {
	var records []portfolio.TradeRecord
	_, err := f.trades.ReadAll(func(line []byte) error {
		var r portfolio.TradeRecord
		if err := json.Unmarshal(line, &r); err != nil {
			return err
		}
		records = append(records, r)
		return nil
	})
	return records, err
}

// Lock creates a lock file holding our pid. A lock left by a process that
// no longer exists is taken over.
func (f *FileStorage) Lock() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isLocked {
		return nil
	}

	if data, err := os.ReadFile(f.lockFile); err == nil {
		pid, _ := strconv.Atoi(strings.TrimSpace(string(data)))
		if pid > 0 && pid != os.Getpid() && processAlive(pid) {
			return fmt.Errorf("%w (pid %d)", ErrLocked, pid)
		}
	}

	if dir := filepath.Dir(f.lockFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	if err := os.WriteFile(f.lockFile, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	f.isLocked = true
	return nil
}

// Unlock removes the lock file
func (f *FileStorage) Unlock() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isLocked {
		return nil
	}
	if err := os.Remove(f.lockFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	f.isLocked = false
	return nil
}

// IsLocked returns true if this store holds the lock
func (f *FileStorage) IsLocked() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.isLocked
}

// pruneSnapshot removes invalid positions and returns why each was dropped
func pruneSnapshot(s *portfolio.Snapshot) map[string]string {
	if s.Positions == nil {
		s.Positions = map[string]portfolio.Position{}
	}
	dropped := map[string]string{}
	for mint, p := range s.Positions {
		switch {
		case p.Mint != "" && p.Mint != mint:
			dropped[mint] = fmt.Sprintf("key does not match mint %s", p.Mint)
		case p.EntryPrice <= 0 || p.SizeQuote <= 0 || p.BaseAmount <= 0:
			dropped[mint] = "non-positive entry figures"
		default:
			continue
		}
		delete(s.Positions, mint)
	}
	return dropped
}
