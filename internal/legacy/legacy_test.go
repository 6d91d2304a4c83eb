package legacy

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"sortition/internal/model"
)

// jeffreysInterval returns the Jeffreys 99% credible interval on a binomial
// proportion given x successes out of n trials: the 0.005/0.995 quantiles of
// Beta(x+0.5, n-x+0.5). Used below to catch systematic under- or
// over-selection in the randomized greedy sampler, per the concentration
// property named in §8.
func jeffreysInterval(x, n int) (lo, hi float64) {
	beta := distuv.Beta{Alpha: float64(x) + 0.5, Beta: float64(n-x) + 0.5}
	return beta.Quantile(0.005), beta.Quantile(0.995)
}

func fourAgentInstance(t *testing.T) *model.Instance {
	t.Helper()
	agents := []model.Agent{
		{ID: "a1", Features: map[model.FeatureCategory]model.FeatureValue{"gender": "male"}},
		{ID: "a2", Features: map[model.FeatureCategory]model.FeatureValue{"gender": "male"}},
		{ID: "a3", Features: map[model.FeatureCategory]model.FeatureValue{"gender": "female"}},
		{ID: "a4", Features: map[model.FeatureCategory]model.FeatureValue{"gender": "female"}},
	}
	quotas := []model.Quota{
		{Key: model.FeatureKey{Category: "gender", Value: "male"}, Min: 1, Max: 1},
		{Key: model.FeatureKey{Category: "gender", Value: "female"}, Min: 1, Max: 1},
	}
	inst, err := model.NewInstance(2, agents, quotas)
	require.NoError(t, err)
	return inst
}

func TestSampleFor_ProducesFeasiblePanel(t *testing.T) {
	inst := fourAgentInstance(t)
	sampler, err := New(DefaultConfig(), rand.New(rand.NewSource(0)))
	require.NoError(t, err)

	panel, err := sampler.SampleFor(context.Background(), inst)
	require.NoError(t, err)
	assert.NoError(t, model.Validate(inst, panel))
}

func TestSampleFor_ReproducibleAcrossSeeds0And1(t *testing.T) {
	inst := fourAgentInstance(t)

	s0, err := New(DefaultConfig(), rand.New(rand.NewSource(0)))
	require.NoError(t, err)
	s0b, err := New(DefaultConfig(), rand.New(rand.NewSource(0)))
	require.NoError(t, err)

	p1, err := s0.SampleFor(context.Background(), inst)
	require.NoError(t, err)
	p2, err := s0b.SampleFor(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, p1.Key(), p2.Key())

	s1, err := New(DefaultConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	s1b, err := New(DefaultConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	q1, err := s1.SampleFor(context.Background(), inst)
	require.NoError(t, err)
	q2, err := s1b.SampleFor(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, q1.Key(), q2.Key())
}

func TestMonteCarlo_MarginalsSumToK(t *testing.T) {
	inst := fourAgentInstance(t)
	sampler, err := New(DefaultConfig(), rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	marginals, panels, hist, err := sampler.MonteCarlo(context.Background(), inst, 200)
	require.NoError(t, err)

	sum := 0.0
	for _, p := range marginals {
		sum += p
	}
	assert.InDelta(t, float64(inst.K), sum, 1e-9)
	assert.NotEmpty(t, panels)
	assert.NotEmpty(t, hist)
}

// Six agents in three households of two, trivial quotas, k=3: every panel
// must contain at most one agent per household.
func TestSampleFor_RespectsHouseholdExclusion(t *testing.T) {
	agents := []model.Agent{
		{ID: "a1", Features: map[model.FeatureCategory]model.FeatureValue{"x": "v"}, Household: "h1"},
		{ID: "a2", Features: map[model.FeatureCategory]model.FeatureValue{"x": "v"}, Household: "h1"},
		{ID: "b1", Features: map[model.FeatureCategory]model.FeatureValue{"x": "v"}, Household: "h2"},
		{ID: "b2", Features: map[model.FeatureCategory]model.FeatureValue{"x": "v"}, Household: "h2"},
		{ID: "c1", Features: map[model.FeatureCategory]model.FeatureValue{"x": "v"}, Household: "h3"},
		{ID: "c2", Features: map[model.FeatureCategory]model.FeatureValue{"x": "v"}, Household: "h3"},
	}
	quotas := []model.Quota{
		{Key: model.FeatureKey{Category: "x", Value: "v"}, Min: 0, Max: 6},
	}
	inst, err := model.NewInstance(3, agents, quotas)
	require.NoError(t, err)
	require.True(t, inst.Households)

	sampler, err := New(DefaultConfig(), rand.New(rand.NewSource(0)))
	require.NoError(t, err)

	for seed := int64(0); seed < 20; seed++ {
		sampler.Rng = rand.New(rand.NewSource(seed))
		panel, err := sampler.SampleFor(context.Background(), inst)
		require.NoError(t, err)

		seenHouseholds := map[string]bool{}
		for _, id := range panel.Members() {
			h := inst.Household(id)
			assert.Falsef(t, seenHouseholds[h], "household %s appears twice in panel", h)
			seenHouseholds[h] = true
		}
	}
}

func TestNew_RejectsNilRng(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestConfig_ValidateRejectsNegativeMaxAttempts(t *testing.T) {
	err := Config{MaxAttempts: -1}.Validate()
	assert.Error(t, err)
}

// By symmetry, every agent in fourAgentInstance has a true marginal
// probability of 0.5 (two interchangeable agents per gender, quota 1-of-2).
// The observed frequency over enough Monte Carlo draws must fall within the
// Jeffreys 99% interval around 0.5, or the sampler is systematically
// under- or over-selecting some agent.
func TestMonteCarlo_FrequenciesFallWithinJeffreysInterval(t *testing.T) {
	inst := fourAgentInstance(t)
	sampler, err := New(DefaultConfig(), rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	const n = 2000
	marginals, _, _, err := sampler.MonteCarlo(context.Background(), inst, n)
	require.NoError(t, err)

	for _, id := range inst.AgentIDs() {
		x := int(marginals[id]*n + 0.5)
		lo, hi := jeffreysInterval(x, n)
		assert.Truef(t, lo <= 0.5 && 0.5 <= hi,
			"agent %s: observed frequency %.4f (x=%d/%d) excludes symmetric expectation 0.5, Jeffreys interval [%.4f, %.4f]",
			id, marginals[id], x, n, lo, hi)
	}
}
