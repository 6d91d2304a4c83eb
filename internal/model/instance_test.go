package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoOfFourInstance(t *testing.T) *Instance {
	t.Helper()
	agents := []Agent{
		{ID: "a1", Features: map[FeatureCategory]FeatureValue{"gender": "male"}},
		{ID: "a2", Features: map[FeatureCategory]FeatureValue{"gender": "male"}},
		{ID: "a3", Features: map[FeatureCategory]FeatureValue{"gender": "female"}},
		{ID: "a4", Features: map[FeatureCategory]FeatureValue{"gender": "female"}},
	}
	quotas := []Quota{
		{Key: FeatureKey{Category: "gender", Value: "male"}, Min: 1, Max: 1},
		{Key: FeatureKey{Category: "gender", Value: "female"}, Min: 1, Max: 1},
	}
	inst, err := NewInstance(2, agents, quotas)
	require.NoError(t, err)
	return inst
}

func TestNewInstance_TrivialTwoOfFour(t *testing.T) {
	inst := twoOfFourInstance(t)
	assert.Equal(t, 2, inst.K)
	assert.False(t, inst.Households)
	assert.ElementsMatch(t, []AgentID{"a1", "a2", "a3", "a4"}, inst.AgentIDs())
}

func TestNewInstance_RejectsKExceedingPool(t *testing.T) {
	agents := []Agent{{ID: "a1", Features: map[FeatureCategory]FeatureValue{}}}
	_, err := NewInstance(5, agents, nil)
	assert.Error(t, err)
}

func TestNewInstance_RejectsQuotaSumsNotBracketingK(t *testing.T) {
	agents := []Agent{
		{ID: "a1", Features: map[FeatureCategory]FeatureValue{"g": "m"}},
		{ID: "a2", Features: map[FeatureCategory]FeatureValue{"g": "f"}},
	}
	quotas := []Quota{
		{Key: FeatureKey{Category: "g", Value: "m"}, Min: 0, Max: 0},
		{Key: FeatureKey{Category: "g", Value: "f"}, Min: 0, Max: 0},
	}
	_, err := NewInstance(1, agents, quotas)
	assert.Error(t, err)
}

func TestNewInstance_DetectsHouseholds(t *testing.T) {
	agents := []Agent{
		{ID: "a1", Features: map[FeatureCategory]FeatureValue{"g": "m"}, Household: "h1"},
		{ID: "a2", Features: map[FeatureCategory]FeatureValue{"g": "f"}, Household: "h1"},
	}
	quotas := []Quota{
		{Key: FeatureKey{Category: "g", Value: "m"}, Min: 0, Max: 1},
		{Key: FeatureKey{Category: "g", Value: "f"}, Min: 0, Max: 1},
	}
	inst, err := NewInstance(1, agents, quotas)
	require.NoError(t, err)
	assert.True(t, inst.Households)
}

func TestInstance_HoldersOfIsSortedAndStable(t *testing.T) {
	inst := twoOfFourInstance(t)
	holders := inst.HoldersOf(FeatureKey{Category: "gender", Value: "male"})
	assert.Equal(t, []AgentID{"a1", "a2"}, holders)
}
