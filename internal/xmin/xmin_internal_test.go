package xmin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sortition/internal/model"
)

func TestGeometricMean_SkipsZeros(t *testing.T) {
	m := map[model.AgentID]float64{"a1": 0.5, "a2": 0.5, "a3": 0}
	got := geometricMean(m)
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestGeometricMean_EmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, geometricMean(map[model.AgentID]float64{}))
}

func TestGeometricMean_DiffersByMagnitude(t *testing.T) {
	low := geometricMean(map[model.AgentID]float64{"a1": 0.1, "a2": 0.1})
	high := geometricMean(map[model.AgentID]float64{"a1": 0.9, "a2": 0.9})
	assert.Less(t, low, high)
}
