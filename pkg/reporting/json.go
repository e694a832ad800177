package reporting

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ducminhle1904/solana-momentum-bot/internal/state"
	"github.com/ducminhle1904/solana-momentum-bot/internal/strategy"
)

// BestParams is the exported form of an evolved parameter set
type BestParams struct {
	Params  strategy.Params `json:"params"`
	WinRate float64         `json:"win_rate"`
	Trades  int             `json:"trades"`
	Source  string          `json:"source,omitempty"`
}

// PrintBestParamsJSON writes best as indented JSON
func PrintBestParamsJSON(w io.Writer, best BestParams) error {
	data, err := json.MarshalIndent(best, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteBestParamsJSON replaces path with best
func WriteBestParamsJSON(best BestParams, path string) error {
	return state.WriteJSONAtomic(path, best)
}

// ReadBestParamsJSON loads a file written by WriteBestParamsJSON and
// validates the parameters
func ReadBestParamsJSON(path string) (BestParams, error) {
	var best BestParams
	if err := state.ReadJSON(path, &best); err != nil {
		return BestParams{}, err
	}
	if err := best.Params.Validate(); err != nil {
		return BestParams{}, fmt.Errorf("%s: %w", path, err)
	}
	return best, nil
}
