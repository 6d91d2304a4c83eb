package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"sortition/internal/model"
)

// Algorithm is one named selection routine under benchmark (LEGACY, LEXIMIN,
// or XMIN), factoried per-run so each run gets its own seeded state.
type Algorithm struct {
	Name    string
	Factory func(seed int64) Selector
}

// Selector is the minimal surface RunCase needs from an algorithm: run it
// against an instance and report the resulting portfolio.
type Selector interface {
	Select(ctx context.Context, inst *model.Instance) (SelectResult, error)
}

// SelectResult is one algorithm run's output, flattened for benchmarking.
// Log carries the algorithm's own human-readable trace lines, when it
// produces any (§6's (portfolio, weights, log lines) contract for LEXIMIN
// and XMIN); RunCase does not aggregate it into Record since log lines don't
// reduce across repeated runs the way the numeric stats do.
type SelectResult struct {
	Portfolio   model.Portfolio
	PanelCount  int
	MinMarginal float64
	Log         []string
}

// Case is one synthetic benchmark instance, analogous to the teacher's
// flow-shop Case (jobs/machines/seed).
type Case struct {
	PoolSize     int
	PanelSize    int
	InstanceSeed int64
}

// Record is one benchmarked (algorithm, case) pair's aggregated stats.
type Record struct {
	Algo      string
	PoolSize  int
	PanelSize int
	Runs      int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	PanelCountBest int
	PanelCountMean float64
	PanelCountStd  float64

	MinMarginalBest float64
	MinMarginalMean float64
	MinMarginalStd  float64
}

// Runner repeats one (Case, Algorithm) pair Runs times with independent
// seeds, mirroring the teacher's RunCase loop.
type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout
}

// RunCase aggregates Runs independent runs into one Record. It also returns
// the last run's SelectResult.Log verbatim: log lines don't reduce across
// runs the way the numeric stats do, so only the most recent run's trace is
// handed back for the caller to surface (§6's (portfolio, weights, log
// lines) contract).
func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm, inst *model.Instance) (Record, []string, error) {
	panelCounts := make([]int, 0, r.Runs)
	minMarginals := make([]float64, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	var lastLog []string

	for i := 0; i < r.Runs; i++ {
		runSeed := r.BaseSeed + int64(i)
		sel := algo.Factory(runSeed)

		runCtx := ctx
		cancel := func() {}
		if r.PerRunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		}
		start := time.Now()
		res, err := sel.Select(runCtx, inst)
		dur := time.Since(start)
		cancel()

		if err != nil && runCtx.Err() != nil {
			return Record{}, nil, fmt.Errorf("run %d: cancelled/timeout: %w", i, err)
		}
		if err != nil {
			return Record{}, nil, fmt.Errorf("run %d: select error: %w", i, err)
		}

		panelCounts = append(panelCounts, res.PanelCount)
		minMarginals = append(minMarginals, res.MinMarginal)
		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)
		lastLog = res.Log
	}

	pcStats := CalcIntStats(panelCounts)
	tStats := CalcFloatStats(timesMs)
	mmStats := CalcFloatStats(minMarginals)

	record := Record{
		Algo:      algo.Name,
		PoolSize:  c.PoolSize,
		PanelSize: c.PanelSize,
		Runs:      r.Runs,

		TimeBestMs: tStats.Best,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		PanelCountBest: pcStats.Best,
		PanelCountMean: pcStats.Mean,
		PanelCountStd:  pcStats.Std,

		MinMarginalBest: mmStats.Best,
		MinMarginalMean: mmStats.Mean,
		MinMarginalStd:  mmStats.Std,
	}
	return record, lastLog, nil
}

func WriteCSV(path string, records []Record) error {
	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"algo", "pool_size", "panel_size", "runs",
		"time_best_ms", "time_mean_ms", "time_std_ms",
		"panel_count_best", "panel_count_mean", "panel_count_std",
		"min_marginal_best", "min_marginal_mean", "min_marginal_std",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Algo,
			itoa(r.PoolSize),
			itoa(r.PanelSize),
			itoa(r.Runs),

			ftoa(r.TimeBestMs),
			ftoa(r.TimeMeanMs),
			ftoa(r.TimeStdMs),

			itoa(r.PanelCountBest),
			ftoa(r.PanelCountMean),
			ftoa(r.PanelCountStd),

			ftoa(r.MinMarginalBest),
			ftoa(r.MinMarginalMean),
			ftoa(r.MinMarginalStd),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
