package reporting

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultOutputDir returns results/<SYMBOL>_<interval>
func DefaultOutputDir(symbol, interval string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	i := strings.ToLower(strings.TrimSpace(interval))
	if s == "" {
		s = "UNKNOWN"
	}
	if i == "" {
		i = "unknown"
	}
	return filepath.Join("results", fmt.Sprintf("%s_%s", s, i))
}

// ExtractIntervalFromPath guesses the candle interval from a data file name
// such as BONK_15m.csv, returning "" when none is present.
func ExtractIntervalFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.FieldsFunc(base, func(r rune) bool { return r == '_' || r == '-' })
	for i := len(parts) - 1; i >= 0; i-- {
		if isInterval(strings.ToLower(parts[i])) {
			return strings.ToLower(parts[i])
		}
	}
	return ""
}

func isInterval(s string) bool {
	if len(s) < 2 {
		return false
	}
	switch s[len(s)-1] {
	case 'm', 'h', 'd', 'w':
	default:
		return false
	}
	for _, r := range s[:len(s)-1] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
