// Package xmin implements the XMIN extender (§4.6): repeatedly asks LEGACY
// for a panel outside the current portfolio, adds it, and re-runs the
// LEXIMIN engine, enlarging the support of the distribution without losing
// leximin optimality.
package xmin

import (
	"context"
	"fmt"
	"math"

	"sortition/internal/feasibility"
	"sortition/internal/legacy"
	"sortition/internal/leximin"
	"sortition/internal/model"
	"sortition/internal/solver"
)

// Result is XMIN's output: the enlarged portfolio, its geometric mean of
// marginal probabilities after each re-optimization, and the accumulated
// human-readable trace satisfying the (portfolio, weights, log lines) result
// contract (§6).
//
// §9 Open Question (b): the geometric mean must be computed from XMIN's own
// portfolio at each step, not copied from the LEXIMIN run that seeded it —
// the original source's analysis step logged the wrong one.
type Result struct {
	Portfolio     model.Portfolio
	Fixed         model.FixedProbabilities
	GeometricMean []float64
	Log           []string
}

// Run extends a converged LEXIMIN engine's portfolio. seed's Logger (if set)
// is carried over to every re-optimization.
func Run(ctx context.Context, env *solver.Environment, ip *feasibility.IP, sampler *legacy.Sampler, inst *model.Instance, seed leximin.Engine) (Result, error) {
	pool := inst.AgentIDs()
	budget := 5 * len(pool)
	perAttempt := 3 * len(pool)

	engine := seed
	logger := seed.Logger

	var means []float64
	var log []string
	log = append(log, seed.Log...)

	for iter := 0; iter < budget; iter++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		novel, found, err := findNovelPanel(ctx, sampler, inst, engine.Portfolio, perAttempt)
		if err != nil {
			return Result{}, fmt.Errorf("xmin: sampling: %w", err)
		}
		if !found {
			log = append(log, fmt.Sprintf("xmin: no novel panel found after %d attempts at iteration %d, stopping", perAttempt, iter))
			break
		}

		engine.Portfolio.Add(novel, 0)

		engine = *leximin.New(env, ip, engine.Portfolio.Panels)
		engine.Logger = logger
		if err := engine.Run(ctx, pool); err != nil {
			return Result{}, fmt.Errorf("xmin: re-optimize at iteration %d: %w", iter, err)
		}
		if err := engine.Reconstruct(ctx, pool); err != nil {
			return Result{}, fmt.Errorf("xmin: reconstruct at iteration %d: %w", iter, err)
		}
		log = append(log, engine.Log...)

		gm := geometricMean(engine.Portfolio.Marginals())
		means = append(means, gm)
		line := fmt.Sprintf("xmin iteration %d: support=%d geometric_mean=%.6f", iter, len(engine.Portfolio.Panels), gm)
		log = append(log, line)
		logger.Info().Int("iteration", iter).Int("support", len(engine.Portfolio.Panels)).Float64("geometric_mean", gm).Msg("xmin extension")
	}

	return Result{Portfolio: engine.Portfolio, Fixed: engine.Fixed, GeometricMean: means, Log: log}, nil
}

// findNovelPanel calls the LEGACY sampler up to attempts times looking for a
// panel not already in portfolio.
func findNovelPanel(ctx context.Context, sampler *legacy.Sampler, inst *model.Instance, portfolio model.Portfolio, attempts int) (model.Panel, bool, error) {
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return model.Panel{}, false, err
		}
		panel, err := sampler.SampleFor(ctx, inst)
		if err != nil {
			return model.Panel{}, false, err
		}
		if !portfolio.Contains(panel) {
			return panel, true, nil
		}
	}
	return model.Panel{}, false, nil
}

// geometricMean computes the geometric mean of a set of marginal
// probabilities, skipping zeros (a zero marginal would collapse the mean to
// zero and mask the rest of the distribution's shape).
func geometricMean(marginals map[model.AgentID]float64) float64 {
	sumLog := 0.0
	n := 0
	for _, p := range marginals {
		if p <= 0 {
			continue
		}
		sumLog += math.Log(p)
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Exp(sumLog / float64(n))
}
