package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomInstance_ProducesValidInstance(t *testing.T) {
	cats := []CategorySpec{
		{Name: "age", Values: []FeatureValue{"young", "old"}},
		{Name: "region", Values: []FeatureValue{"north", "south"}},
	}
	inst := RandomInstance(50, 10, cats, rand.New(rand.NewSource(1)))
	require.NotNil(t, inst)
	assert.NoError(t, inst.Validate())
	assert.Len(t, inst.Agents, 50)
	assert.Equal(t, 10, inst.K)
}

func TestRandomInstance_PanicsOnBadParams(t *testing.T) {
	cats := []CategorySpec{{Name: "age", Values: []FeatureValue{"young"}}}
	assert.Panics(t, func() {
		RandomInstance(10, 20, cats, rand.New(rand.NewSource(1)))
	})
	assert.Panics(t, func() {
		RandomInstance(10, 5, cats, nil)
	})
}
