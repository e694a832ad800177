package optimization

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/internal/strategy"
)

// EvolutionEntry records one promotion of a new base strategy
type EvolutionEntry struct {
	Generation int
	Timestamp  time.Time
	VariantID  string
	WinRate    float64
	Params     strategy.Params
	Trades     int
	Sharpe     float64
}

// EvolutionLog is an append-only sink for promotions
type EvolutionLog interface {
	Append(entry EvolutionEntry) error
}

type discardLog struct{}

func (discardLog) Append(EvolutionEntry) error { return nil }

// MarkdownLog appends entries to a markdown file
type MarkdownLog struct {
	path string
}

// NewMarkdownLog creates a log writing to path, creating parent directories on first append
func NewMarkdownLog(path string) *MarkdownLog {
	return &MarkdownLog{path: path}
}

// Append writes a section for entry and syncs the file
func (m *MarkdownLog) Append(entry EvolutionEntry) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create evolution log directory: %w", err)
	}

	params, err := json.Marshal(entry.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}

	file, err := os.OpenFile(m.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open evolution log: %w", err)
	}
	defer file.Close()

	section := fmt.Sprintf("\n## Generation %d - %s\n- Variant: %s\n- Win Rate: %.1f%%\n- Params: %s\n- Trades: %d\n- Sharpe: %.2f\n\n---\n",
		entry.Generation,
		entry.Timestamp.UTC().Format(time.RFC3339),
		entry.VariantID,
		entry.WinRate*100,
		params,
		entry.Trades,
		entry.Sharpe,
	)
	if _, err := file.WriteString(section); err != nil {
		return fmt.Errorf("failed to write evolution log: %w", err)
	}
	return file.Sync()
}
