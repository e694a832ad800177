package backtest

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/internal/strategy"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
)

// BacktestJob represents a single backtest task
type BacktestJob struct {
	ID     string
	Params strategy.Params
}

// BacktestResult represents the result of a backtest job
type BacktestResult struct {
	ID       string
	Params   strategy.Params
	Results  *BacktestResults
	Duration time.Duration
	Error    error
}

// WorkerPool runs many parameter sets against the same candles in parallel
type WorkerPool struct {
	workerCount int
	engine      *BacktestEngine
}

// NewWorkerPool creates a pool; workerCount <= 0 means one worker per CPU
func NewWorkerPool(workerCount int, engine *BacktestEngine) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	return &WorkerPool{workerCount: workerCount, engine: engine}
}

// Engine returns the engine every job runs on
func (wp *WorkerPool) Engine() *BacktestEngine {
	return wp.engine
}

// RunBatch backtests every job and returns results in job order. Jobs not
// started before ctx is cancelled carry ctx.Err().
func (wp *WorkerPool) RunBatch(ctx context.Context, data []types.OHLCV, jobs []BacktestJob) []BacktestResult {
	results := make([]BacktestResult, len(jobs))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < wp.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				results[idx] = wp.processJob(data, jobs[idx])
			}
		}()
	}

	next := 0
feed:
	for ; next < len(jobs); next++ {
		select {
		case indexes <- next:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	for i := next; i < len(jobs); i++ {
		results[i] = BacktestResult{ID: jobs[i].ID, Params: jobs[i].Params, Error: ctx.Err()}
	}
	return results
}

// processJob processes a single backtest job
func (wp *WorkerPool) processJob(data []types.OHLCV, job BacktestJob) BacktestResult {
	start := time.Now()
	result := BacktestResult{ID: job.ID, Params: job.Params}

	if err := job.Params.Validate(); err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	result.Results = wp.engine.Run(data, job.Params)
	result.Duration = time.Since(start)
	return result
}
