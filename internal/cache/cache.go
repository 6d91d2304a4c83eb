// Package cache defines the result-cache blob type (§6, §8): an opaque
// binary payload keyed externally by (instance name, k, algorithm, seed) —
// this package owns only the blob's shape and its msgpack round trip, not a
// keyed on-disk store (Non-goal).
package cache

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"sortition/internal/model"
)

// Blob is the cached result of one algorithm run: marginal probabilities,
// the unique panels observed, and their pairwise co-occurrence histogram.
type Blob struct {
	MarginalProbabilities map[model.AgentID]float64
	UniquePanels          [][]model.AgentID
	PairHistogram         map[string]float64
}

// FromPanels converts live Panel/PairHistogram types into the blob's
// serialization-friendly shape.
func FromPanels(marginals map[model.AgentID]float64, panels []model.Panel, hist model.PairHistogram) Blob {
	b := Blob{
		MarginalProbabilities: marginals,
		PairHistogram:         make(map[string]float64, len(hist)),
	}
	for _, p := range panels {
		b.UniquePanels = append(b.UniquePanels, p.Members())
	}
	for k, v := range hist {
		b.PairHistogram[pairKeyString(k)] = v
	}
	return b
}

func pairKeyString(k model.PairKey) string {
	return fmt.Sprintf("%s|%s", k.Lo, k.Hi)
}

// Marshal serializes the blob with msgpack.
func Marshal(b Blob) ([]byte, error) {
	data, err := msgpack.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("cache: marshal: %w", err)
	}
	return data, nil
}

// Unmarshal deserializes a blob previously produced by Marshal.
func Unmarshal(data []byte) (Blob, error) {
	var b Blob
	if err := msgpack.Unmarshal(data, &b); err != nil {
		return Blob{}, fmt.Errorf("cache: unmarshal: %w", err)
	}
	return b, nil
}
