package enrollment

import (
	"math"

	"github.com/kozaktomas/recall/internal/database"
)

// ComputeCentroid returns the L2-normalized mean of the given reference
// embeddings. Returns nil for an empty set or when the mean degenerates to
// the zero vector.
func ComputeCentroid(refs []database.ReferenceEmbedding) []float32 {
	if len(refs) == 0 {
		return nil
	}

	dim := len(refs[0].Embedding)
	sums := make([]float64, dim)
	count := 0
	for _, ref := range refs {
		if len(ref.Embedding) != dim {
			continue
		}
		for i, v := range ref.Embedding {
			sums[i] += float64(v)
		}
		count++
	}
	if count == 0 {
		return nil
	}

	var norm float64
	for i := range sums {
		sums[i] /= float64(count)
		norm += sums[i] * sums[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil
	}

	centroid := make([]float32, dim)
	for i, v := range sums {
		centroid[i] = float32(v / norm)
	}
	return centroid
}
