package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sortition/internal/feasibility"
	"sortition/internal/model"
	"sortition/internal/solver"
)

func TestConfig_ValidateRejectsZeroRounds(t *testing.T) {
	assert.Error(t, Config{Rounds: 0}.Validate())
	assert.NoError(t, Config{Rounds: 1}.Validate())
}

func TestDefaultConfig_ScalesWithPool(t *testing.T) {
	assert.Equal(t, 20, DefaultConfig(10).Rounds)
}

func TestBuild_CoversEveryAgentInASmallInstance(t *testing.T) {
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

	env := solver.NewEnvironment()
	defer env.Close()
	ip := feasibility.New(env, inst)

	result, err := Build(context.Background(), DefaultConfig(len(agents)), ip, inst)
	require.NoError(t, err)

	assert.Empty(t, result.Uncoverable)
	assert.NotEmpty(t, result.Panels)
}
