package diagnose

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sortition/internal/model"
)

func TestReductionWeight(t *testing.T) {
	assert.Equal(t, 0.0, reductionWeight(0))
	assert.Equal(t, 3.0, reductionWeight(1))
	assert.Equal(t, 2.0, reductionWeight(2))
	assert.InDelta(t, 1.2, reductionWeight(10), 1e-9)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2.0, round(1.6))
	assert.Equal(t, 1.0, round(1.4))
	assert.Equal(t, -2.0, round(-1.6))
	assert.Equal(t, 0.0, round(0))
}

func TestMinMaxVarName_Distinct(t *testing.T) {
	key := model.FeatureKey{Category: "gender", Value: "male"}
	assert.NotEqual(t, minVarName(key), maxVarName(key))
}
