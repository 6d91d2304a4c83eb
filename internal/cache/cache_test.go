package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sortition/internal/model"
)

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	marginals := map[model.AgentID]float64{"a1": 0.4, "a2": 0.6}
	panels := []model.Panel{
		model.NewPanel([]model.AgentID{"a1"}),
		model.NewPanel([]model.AgentID{"a2"}),
	}
	hist := model.PairHistogram{}
	hist.AddPanel([]model.AgentID{"a1", "a2"}, 0.5)

	blob := FromPanels(marginals, panels, hist)

	data, err := Marshal(blob)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, blob.MarginalProbabilities, got.MarginalProbabilities)
	assert.Equal(t, blob.PairHistogram, got.PairHistogram)
	assert.ElementsMatch(t, blob.UniquePanels, got.UniquePanels)
}

func TestUnmarshal_RejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte{0xff, 0x00, 0x01})
	assert.Error(t, err)
}
