// Package builder implements the initial-portfolio builder (§4.4): a
// multiplicative-weights phase diversifies panel discovery, followed by a
// coverage-completion phase that certifies any agent the feasibility IP
// cannot seat on any panel.
package builder

import (
	"context"
	"fmt"

	"sortition/internal/feasibility"
	"sortition/internal/model"
)

// Config controls the multiplicative-weights phase.
type Config struct {
	// Rounds is the number of multiplicative-weights iterations (§9 Open
	// Question (c)): any value >= 1 is acceptable, used only to seed
	// diversity in the starting portfolio. Default is 2x the pool size.
	Rounds int
}

// DefaultConfig derives Rounds from the pool size, matching §4.4's default.
func DefaultConfig(poolSize int) Config {
	return Config{Rounds: 2 * poolSize}
}

func (c Config) Validate() error {
	if c.Rounds < 1 {
		return fmt.Errorf("builder: Rounds must be >= 1 (got %d)", c.Rounds)
	}
	return nil
}

// Result is the initial portfolio plus the set of agents the feasibility IP
// certified as impossible to include on any feasible panel.
type Result struct {
	Panels     []model.Panel
	Uncoverable []model.AgentID
}

// Build runs the multiplicative-weights diversification phase followed by
// coverage completion.
func Build(ctx context.Context, cfg Config, ip *feasibility.IP, inst *model.Instance) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	pool := inst.AgentIDs()
	n := len(pool)

	weights := make(map[model.AgentID]float64, n)
	for _, id := range pool {
		weights[id] = 1
	}

	portfolio := make(map[string]model.Panel)

	for round := 0; round < cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		panel, _, err := ip.MaximizeWeighted(weights)
		if err != nil {
			return Result{}, fmt.Errorf("builder: round %d: %w", round, err)
		}

		for _, id := range panel.Members() {
			weights[id] *= 0.8
		}
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		if sum > 0 {
			scale := float64(n) / sum
			for id := range weights {
				weights[id] *= scale
			}
		}

		if _, already := portfolio[panel.Key()]; already {
			for id := range weights {
				weights[id] = 0.9*weights[id] + 0.1
			}
		} else {
			portfolio[panel.Key()] = panel
		}
	}

	covered := make(map[model.AgentID]bool, n)
	for _, p := range portfolio {
		for _, id := range p.Members() {
			covered[id] = true
		}
	}

	var uncoverable []model.AgentID
	for _, id := range pool {
		if covered[id] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		panel, _, err := ip.Optimize(map[model.AgentID]float64{id: 1}, nil, true)
		if err != nil {
			if _, ok := asSelectionOrInfeasible(err); ok {
				uncoverable = append(uncoverable, id)
				continue
			}
			return Result{}, fmt.Errorf("builder: coverage completion for %s: %w", id, err)
		}
		if panel.Contains(id) {
			portfolio[panel.Key()] = panel
			covered[id] = true
		} else {
			uncoverable = append(uncoverable, id)
		}
	}

	panels := make([]model.Panel, 0, len(portfolio))
	for _, p := range portfolio {
		panels = append(panels, p)
	}

	return Result{Panels: panels, Uncoverable: uncoverable}, nil
}

func asSelectionOrInfeasible(err error) (error, bool) {
	switch err.(type) {
	case *model.InfeasibleQuotasError, *model.SelectionError:
		return err, true
	default:
		return nil, false
	}
}
