package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
	"github.com/rs/zerolog"
)

// ErrNoData is returned when a source yields no usable candles
var ErrNoData = errors.New("no candle data")

// CSVColumnMapping defines the column positions of a candle CSV
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	// DateFormat is a time layout; numeric cells are read as unix seconds
	// or milliseconds regardless
	DateFormat string
}

// DefaultCSVFormat is timestamp,open,high,low,close,volume with a header row
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}

// CSVProvider loads candles from CSV files
type CSVProvider struct {
	format CSVColumnMapping
	logger zerolog.Logger
}

// NewCSVProvider creates a provider with the default format
func NewCSVProvider(logger zerolog.Logger) *CSVProvider {
	return &CSVProvider{format: DefaultCSVFormat, logger: logger}
}

// NewCSVProviderWithFormat creates a provider with a custom format
func NewCSVProviderWithFormat(format CSVColumnMapping, logger zerolog.Logger) *CSVProvider {
	return &CSVProvider{format: format, logger: logger}
}

// LoadData reads path. Malformed rows are skipped with a warning; the
// result is sorted and de-duplicated.
func (p *CSVProvider) LoadData(path string) ([]types.OHLCV, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := p.Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// Read parses CSV candles from r
func (p *CSVProvider) Read(r io.Reader) ([]types.OHLCV, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, ErrNoData
		}
		return nil, err
	}

	f := p.format
	var data []types.OHLCV
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading CSV at line %d: %w", line, err)
		}
		if len(record) < f.MinColumns {
			p.logger.Warn().Int("line", line).Int("columns", len(record)).Msg("Insufficient columns, skipping")
			continue
		}

		ts, err := parseTimestamp(record[f.TimestampCol], f.DateFormat)
		if err != nil {
			p.logger.Warn().Int("line", line).Err(err).Msg("Invalid timestamp, skipping")
			continue
		}

		var values [5]float64
		cols := [5]int{f.OpenCol, f.HighCol, f.LowCol, f.CloseCol, f.VolumeCol}
		valid := true
		for i, col := range cols {
			values[i], err = strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				valid = false
				break
			}
		}
		if !valid {
			p.logger.Warn().Int("line", line).Err(err).Msg("Invalid number, skipping")
			continue
		}

		candle := types.OHLCV{
			Timestamp: ts,
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
		}
		if err := validateCandle(candle); err != nil {
			p.logger.Warn().Int("line", line).Err(err).Msg("Invalid candle, skipping")
			continue
		}
		data = append(data, candle)
	}

	if len(data) == 0 {
		return nil, ErrNoData
	}
	return RemoveDuplicates(SortByTimestamp(data)), nil
}

// WriteCSV writes candles in the default format
func WriteCSV(w io.Writer, candles []types.OHLCV) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, c := range candles {
		row := []string{
			c.Timestamp.UTC().Format(DefaultCSVFormat.DateFormat),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseTimestamp(cell, layout string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		// 1e12 seconds is far beyond any candle date
		if n > 1_000_000_000_000 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(layout, cell); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, cell)
}

func validateCandle(c types.OHLCV) error {
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return fmt.Errorf("prices must be positive")
	}
	if c.Volume < 0 {
		return fmt.Errorf("volume must not be negative")
	}
	if c.High < c.Open || c.High < c.Close || c.High < c.Low {
		return fmt.Errorf("high %.6f is below another price", c.High)
	}
	if c.Low > c.Open || c.Low > c.Close {
		return fmt.Errorf("low %.6f is above another price", c.Low)
	}
	return nil
}
