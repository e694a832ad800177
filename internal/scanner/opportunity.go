package scanner

import (
	"fmt"
	"math"
	"time"
)

// Opportunity is a token that may be worth entering
type Opportunity struct {
	Mint           string     `json:"mint"`
	Symbol         string     `json:"symbol"`
	Name           string     `json:"name"`
	PriceUSD       float64    `json:"price_usd"`
	LiquidityUSD   float64    `json:"liquidity_usd"`
	Volume24h      float64    `json:"volume_24h_usd"`
	Volume4h       float64    `json:"volume_4h_usd"`
	PriceChange1h  float64    `json:"price_change_1h"`
	PriceChange4h  float64    `json:"price_change_4h"`
	PriceChange24h float64    `json:"price_change_24h"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	MomentumScore  float64    `json:"momentum_score"`
}

// Filters are the entry criteria applied to every opportunity
type Filters struct {
	MinLiquidityUSD  float64
	MinTokenAgeHours float64
	MinChange4h      float64
}

// DefaultFilters returns the standard entry criteria
func DefaultFilters() Filters {
	return Filters{
		MinLiquidityUSD:  1_000_000,
		MinTokenAgeHours: 24,
		MinChange4h:      5,
	}
}

// Eligible checks o against f. The returned reasons explain each failed criterion.
func (o Opportunity) Eligible(f Filters, now time.Time) (bool, []string) {
	var reasons []string

	if o.LiquidityUSD < f.MinLiquidityUSD {
		reasons = append(reasons, fmt.Sprintf("liquidity $%.0f < $%.0f", o.LiquidityUSD, f.MinLiquidityUSD))
	}
	// recent volume should carry at least its share of the day
	if o.Volume4h < o.Volume24h/6 {
		reasons = append(reasons, "weak 4h volume momentum")
	}
	if o.PriceChange4h < f.MinChange4h {
		reasons = append(reasons, fmt.Sprintf("4h change %.1f%% < %.0f%%", o.PriceChange4h, f.MinChange4h))
	}
	if o.CreatedAt != nil {
		age := now.Sub(*o.CreatedAt).Hours()
		if age < f.MinTokenAgeHours {
			reasons = append(reasons, fmt.Sprintf("token age %.1fh < %.0fh", age, f.MinTokenAgeHours))
		}
	}

	return len(reasons) == 0, reasons
}

func (o Opportunity) String() string {
	return fmt.Sprintf("%s | $%.6f | 4h: %+.1f%% | Liq: $%.1fM | Score: %.0f",
		o.Symbol, o.PriceUSD, o.PriceChange4h, o.LiquidityUSD/1e6, o.MomentumScore)
}

// MomentumScore rates price momentum, volume, liquidity and trend
// consistency on a 0..100 scale
func MomentumScore(change1h, change4h, change24h, volume24h, liquidityUSD float64) float64 {
	score := 0.0

	if change4h > 0 {
		score += math.Min(change4h, 20)
	}
	if change1h > change4h/4 {
		score += 10
	}
	if change24h > 0 {
		score += 10
	}

	if volume24h > 1_000_000 {
		score += 15
	}
	if volume24h > 5_000_000 {
		score += 15
	}

	if liquidityUSD > 1_000_000 {
		score += 10
	}
	if liquidityUSD > 5_000_000 {
		score += 10
	}

	if change1h > 0 && change4h > 0 && change24h > 0 {
		score += 10
	}

	return math.Min(score, 100)
}
