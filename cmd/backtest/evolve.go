package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"sort"

	"github.com/ducminhle1904/solana-momentum-bot/internal/backtest"
	"github.com/ducminhle1904/solana-momentum-bot/internal/strategy"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/optimization"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/reporting"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
	"github.com/rs/zerolog"
)

const topVariants = 10

func defaultBest(opts options) reporting.BestParams {
	return reporting.BestParams{Params: strategy.DefaultParams(), Source: filepath.Base(opts.DataFile)}
}

// evolve runs opts.Evolve generations from start and returns the evolved base
func evolve(ctx context.Context, opts options, engine *backtest.BacktestEngine, candles []types.OHLCV, start reporting.BestParams, log zerolog.Logger, out io.Writer) (reporting.BestParams, error) {
	var rng *rand.Rand
	if opts.Seed != 0 {
		rng = rand.New(rand.NewSource(opts.Seed))
	}

	var evoLog optimization.EvolutionLog
	var leaderboard *optimization.Leaderboard
	if !opts.ConsoleOnly {
		evoLog = optimization.NewMarkdownLog(filepath.Join(opts.OutDir, "evolution_tree.md"))
		leaderboard = optimization.NewLeaderboard(filepath.Join(opts.OutDir, "leaderboard.json"), 20)
	}

	evolver := optimization.NewEvolver(start.Params, rng, evoLog, log)
	pool := backtest.NewWorkerPool(opts.Workers, engine)

	var all []optimization.Variant
	for gen := 1; gen <= opts.Evolve; gen++ {
		best, tested, improved, err := evolver.RunGeneration(ctx, pool, candles, opts.Variants)
		switch {
		case errors.Is(err, optimization.ErrNoResults):
			return start, fmt.Errorf("generation %d: no variant could be backtested on %d candles", gen, len(candles))
		case err != nil:
			return start, err
		}
		all = append(all, tested...)

		if leaderboard != nil {
			if err := leaderboard.Record(tested); err != nil {
				log.Warn().Err(err).Msg("Failed to save leaderboard")
			}
		}
		log.Info().
			Int("generation", gen).
			Float64("generation_best", best.WinRate).
			Float64("best_win_rate", evolver.BestWinRate()).
			Bool("improved", improved).
			Msg("Generation complete")
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].WinRate > all[j].WinRate })
	if len(all) > topVariants {
		all = all[:topVariants]
	}
	reporting.PrintVariants(out, all)
	reporting.PrintEvolverStatus(out, evolver.Status())

	return reporting.BestParams{
		Params:  evolver.Base(),
		WinRate: evolver.BestWinRate(),
		Source:  start.Source,
	}, nil
}
