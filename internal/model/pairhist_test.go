package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairHistogram_CanonicalKeyOrderIndependent(t *testing.T) {
	h := PairHistogram{}
	h.Add("b", "a", 1.5)
	assert.Equal(t, 1.5, h.Get("a", "b"))
	assert.Equal(t, 1.5, h.Get("b", "a"))
}

func TestPairHistogram_AddPanelCoversAllPairs(t *testing.T) {
	h := PairHistogram{}
	h.AddPanel([]AgentID{"a1", "a2", "a3"}, 2)
	assert.Equal(t, 2.0, h.Get("a1", "a2"))
	assert.Equal(t, 2.0, h.Get("a1", "a3"))
	assert.Equal(t, 2.0, h.Get("a2", "a3"))
	assert.Len(t, h, 3)
}

func TestPairHistogram_SelfPairIgnored(t *testing.T) {
	h := PairHistogram{}
	h.Add("a1", "a1", 5)
	assert.Len(t, h, 0)
}
