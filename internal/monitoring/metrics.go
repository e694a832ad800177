package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Position metrics
	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "momentum_bot_open_positions",
			Help: "Number of open positions",
		},
	)

	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "momentum_bot_trades_total",
			Help: "Total number of trades recorded",
		},
		[]string{"action", "reason"},
	)

	realizedPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "momentum_bot_realized_pnl_usd",
			Help: "Realized PnL since start in quote currency",
		},
	)

	// Market metrics
	currentRegime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "momentum_bot_regime",
			Help: "1 for the current market regime, 0 otherwise",
		},
		[]string{"regime"},
	)

	scanOpportunities = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "momentum_bot_scan_opportunities",
			Help: "Eligible opportunities found by the last scan",
		},
	)

	// Evolution metrics
	bestWinRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "momentum_bot_best_win_rate",
			Help: "Best win rate reached by the strategy evolver",
		},
	)

	backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "momentum_bot_backtest_duration_seconds",
			Help:    "Duration of a single variant backtest",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)

	// Loop and error metrics
	loopCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "momentum_bot_loop_cycles_total",
			Help: "Completed loop cycles",
		},
		[]string{"loop", "result"},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "momentum_bot_errors_total",
			Help: "Total number of errors",
		},
		[]string{"category"},
	)
)

var regimeNames = []string{"bull", "bear", "chop", "unknown"}

func init() {
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(realizedPnL)
	prometheus.MustRegister(currentRegime)
	prometheus.MustRegister(scanOpportunities)
	prometheus.MustRegister(bestWinRate)
	prometheus.MustRegister(backtestDuration)
	prometheus.MustRegister(loopCycles)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler serves the Prometheus metrics endpoint
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// SetOpenPositions updates the open positions gauge
func SetOpenPositions(n int) {
	openPositions.Set(float64(n))
}

// RecordTrade counts a trade record
func RecordTrade(action, reason string) {
	tradesTotal.WithLabelValues(action, reason).Inc()
}

// SetRealizedPnL updates the realized PnL gauge
func SetRealizedPnL(pnl float64) {
	realizedPnL.Set(pnl)
}

// SetRegime marks regime as current
func SetRegime(regime string) {
	for _, name := range regimeNames {
		v := 0.0
		if name == regime {
			v = 1
		}
		currentRegime.WithLabelValues(name).Set(v)
	}
}

// SetScanOpportunities records the size of the last scan result
func SetScanOpportunities(n int) {
	scanOpportunities.Set(float64(n))
}

// SetBestWinRate updates the evolver best win rate
func SetBestWinRate(rate float64) {
	bestWinRate.Set(rate)
}

// ObserveBacktest records one backtest duration
func ObserveBacktest(d time.Duration) {
	backtestDuration.Observe(d.Seconds())
}

// RecordCycle counts a loop cycle
func RecordCycle(loop string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	loopCycles.WithLabelValues(loop, result).Inc()
}

// RecordError records an error metric
func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
