// Command sortition-bench is the structural descendant of the teacher's
// cmd/bench: it synthesizes instances from flags (no categories.csv /
// respondents.csv parsing — that remains a Non-goal) and benchmarks LEGACY,
// LEXIMIN, and XMIN against them, writing a CSV report.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"sortition/internal/bench"
	"sortition/internal/builder"
	"sortition/internal/feasibility"
	"sortition/internal/legacy"
	"sortition/internal/leximin"
	"sortition/internal/model"
	"sortition/internal/obslog"
	"sortition/internal/solver"
	"sortition/internal/xmin"
)

type legacySelector struct {
	rng        *rand.Rand
	iterations int
}

func (s legacySelector) Select(ctx context.Context, inst *model.Instance) (bench.SelectResult, error) {
	sampler, err := legacy.New(legacy.DefaultConfig(), s.rng)
	if err != nil {
		return bench.SelectResult{}, err
	}
	marginals, panels, _, err := sampler.MonteCarlo(ctx, inst, s.iterations)
	if err != nil {
		return bench.SelectResult{}, err
	}
	return bench.SelectResult{PanelCount: len(panels), MinMarginal: minOf(marginals)}, nil
}

type leximinSelector struct{}

func runLeximin(ctx context.Context, inst *model.Instance) (*leximin.Engine, error) {
	env := solver.NewEnvironment()
	defer env.Close()

	ip := feasibility.New(env, inst)
	initial, err := builder.Build(ctx, builder.DefaultConfig(len(inst.Agents)), ip, inst)
	if err != nil {
		return nil, fmt.Errorf("builder: %w", err)
	}

	engine := leximin.New(env, ip, initial.Panels)
	engine.Logger = obslog.New(obslog.DefaultConfig())
	if err := engine.Run(ctx, inst.AgentIDs()); err != nil {
		return nil, fmt.Errorf("leximin engine: %w", err)
	}
	if err := engine.Reconstruct(ctx, inst.AgentIDs()); err != nil {
		return nil, fmt.Errorf("leximin reconstruct: %w", err)
	}
	return engine, nil
}

func (leximinSelector) Select(ctx context.Context, inst *model.Instance) (bench.SelectResult, error) {
	engine, err := runLeximin(ctx, inst)
	if err != nil {
		return bench.SelectResult{}, err
	}
	return bench.SelectResult{
		Portfolio:   engine.Portfolio,
		PanelCount:  len(engine.Portfolio.Panels),
		MinMarginal: minOf(engine.Fixed),
		Log:         engine.Log,
	}, nil
}

type xminSelector struct {
	rng *rand.Rand
}

func (s xminSelector) Select(ctx context.Context, inst *model.Instance) (bench.SelectResult, error) {
	env := solver.NewEnvironment()
	defer env.Close()

	ip := feasibility.New(env, inst)
	initial, err := builder.Build(ctx, builder.DefaultConfig(len(inst.Agents)), ip, inst)
	if err != nil {
		return bench.SelectResult{}, fmt.Errorf("builder: %w", err)
	}

	seed := leximin.New(env, ip, initial.Panels)
	seed.Logger = obslog.New(obslog.DefaultConfig())
	if err := seed.Run(ctx, inst.AgentIDs()); err != nil {
		return bench.SelectResult{}, fmt.Errorf("leximin engine: %w", err)
	}
	if err := seed.Reconstruct(ctx, inst.AgentIDs()); err != nil {
		return bench.SelectResult{}, fmt.Errorf("leximin reconstruct: %w", err)
	}

	sampler, err := legacy.New(legacy.DefaultConfig(), s.rng)
	if err != nil {
		return bench.SelectResult{}, err
	}

	result, err := xmin.Run(ctx, env, ip, sampler, inst, *seed)
	if err != nil {
		return bench.SelectResult{}, fmt.Errorf("xmin: %w", err)
	}
	return bench.SelectResult{
		Portfolio:   result.Portfolio,
		PanelCount:  len(result.Portfolio.Panels),
		MinMarginal: minOf(result.Fixed),
		Log:         result.Log,
	}, nil
}

func minOf(m map[model.AgentID]float64) float64 {
	min := math.Inf(1)
	for _, v := range m {
		if v < min {
			min = v
		}
	}
	if math.IsInf(min, 1) {
		return 0
	}
	return min
}

func main() {
	var (
		out        = flag.String("out", "artifacts/results.csv", "path to the output CSV file")
		poolSizes  = flag.String("pools", "100,300,1000", "comma-separated pool sizes")
		panelShare = flag.Float64("panel_share", 0.1, "panel size as a share of pool size")
		algos      = flag.String("algos", "LEGACY,LEXIMIN,XMIN", "comma-separated algorithm list: LEGACY, LEXIMIN, XMIN")
		runs       = flag.Int("runs", 5, "number of runs per (pool size, algorithm) pair")
		baseSeed   = flag.Int64("seed", 1000, "base seed for algorithm runs")
		instSeed   = flag.Int64("instance_seed", 777, "base seed for synthetic instance generation")
		legacyIter = flag.Int("legacy_iterations", 10000, "LEGACY Monte-Carlo iteration count")
	)
	flag.Parse()

	ctx := context.Background()

	cases, err := parsePoolSizes(*poolSizes, *panelShare, *instSeed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}

	available := map[string]bench.Algorithm{
		"LEGACY": {Name: "LEGACY", Factory: func(seed int64) bench.Selector {
			return legacySelector{rng: rand.New(rand.NewSource(seed)), iterations: *legacyIter}
		}},
		"LEXIMIN": {Name: "LEXIMIN", Factory: func(seed int64) bench.Selector {
			return leximinSelector{}
		}},
		"XMIN": {Name: "XMIN", Factory: func(seed int64) bench.Selector {
			return xminSelector{rng: rand.New(rand.NewSource(seed))}
		}},
	}

	var selected []bench.Algorithm
	for _, a := range splitCSV(*algos) {
		al, ok := available[a]
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown algorithm %q; available: %v\n", a, keys(available))
			os.Exit(2)
		}
		selected = append(selected, al)
	}

	runner := bench.Runner{Runs: *runs, BaseSeed: *baseSeed}

	var records []bench.Record
	for _, c := range cases {
		rng := rand.New(rand.NewSource(c.InstanceSeed))
		inst := model.RandomInstance(c.PoolSize, c.PanelSize, defaultCategories(), rng)

		for _, a := range selected {
			fmt.Printf("running %s; pool=%d panel=%d (runs=%d)...\n", a.Name, c.PoolSize, c.PanelSize, runner.Runs)

			rec, lastLog, err := runner.RunCase(ctx, c, a, inst)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
			records = append(records, rec)
			for _, line := range lastLog {
				fmt.Println("  " + line)
			}

			fmt.Printf("  panels: best=%d mean=%.2f std=%.2f | min marginal: best=%.4f mean=%.4f | time: mean=%.2fms std=%.2fms\n",
				rec.PanelCountBest, rec.PanelCountMean, rec.PanelCountStd,
				rec.MinMarginalBest, rec.MinMarginalMean,
				rec.TimeMeanMs, rec.TimeStdMs,
			)
		}
	}

	if err := bench.WriteCSV(*out, records); err != nil {
		fmt.Fprintln(os.Stderr, "error writing CSV:", err)
		os.Exit(1)
	}
	fmt.Println("saved:", *out)
}

func defaultCategories() []model.CategorySpec {
	return []model.CategorySpec{
		{Name: "age", Values: []model.FeatureValue{"18-30", "31-50", "51-70", "71+"}},
		{Name: "gender", Values: []model.FeatureValue{"male", "female", "other"}},
		{Name: "region", Values: []model.FeatureValue{"north", "south", "east", "west"}},
	}
}

func parsePoolSizes(s string, panelShare float64, baseInstanceSeed int64) ([]bench.Case, error) {
	parts := splitCSV(s)
	cases := make([]bench.Case, 0, len(parts))

	for i, p := range parts {
		poolSize, err := atoiStrict(p)
		if err != nil {
			return nil, fmt.Errorf("pool size %q: %w", p, err)
		}
		if poolSize <= 0 {
			return nil, fmt.Errorf("pool size %q must be > 0", p)
		}
		panelSize := int(float64(poolSize)*panelShare + 0.5)
		if panelSize < 1 {
			panelSize = 1
		}

		cases = append(cases, bench.Case{
			PoolSize:     poolSize,
			PanelSize:    panelSize,
			InstanceSeed: baseInstanceSeed + int64(i)*10_000 + int64(poolSize),
		})
	}

	return cases, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiStrict(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func keys(m map[string]bench.Algorithm) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
