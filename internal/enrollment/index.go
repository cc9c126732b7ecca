package enrollment

import (
	"github.com/coder/hnsw"

	"github.com/kozaktomas/recall/internal/database"
)

// hnswMaxNeighbors is the M parameter for the duplicate-check graph. The
// per-person reference sets are tiny, so a small M is plenty.
const hnswMaxNeighbors = 16

// duplicateDistance is the cosine distance under which a new reference is
// considered a near-duplicate of an already enrolled one.
const duplicateDistance = 0.03

// isNearDuplicate reports whether the candidate embedding sits within
// duplicateDistance of any existing reference. The check builds a transient
// HNSW graph over the person's references; enrollment sets are small enough
// that build cost is negligible and the graph never needs persisting.
func isNearDuplicate(refs []database.ReferenceEmbedding, candidate []float32) bool {
	if len(refs) == 0 || len(candidate) == 0 {
		return false
	}

	g := hnsw.NewGraph[int64]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.CosineDistance

	added := false
	for _, ref := range refs {
		if len(ref.Embedding) != len(candidate) {
			continue
		}
		g.Add(hnsw.MakeNode(ref.ID, ref.Embedding))
		added = true
	}
	if !added {
		return false
	}

	neighbors := g.Search(candidate, 1)
	if len(neighbors) == 0 {
		return false
	}
	return float64(hnsw.CosineDistance(candidate, neighbors[0].Value)) < duplicateDistance
}
