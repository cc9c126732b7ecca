package enrollment

import (
	"math"
	"testing"

	"github.com/kozaktomas/recall/internal/database"
)

func refsWith(vectors ...[]float32) []database.ReferenceEmbedding {
	refs := make([]database.ReferenceEmbedding, 0, len(vectors))
	for i, v := range vectors {
		refs = append(refs, database.ReferenceEmbedding{ID: int64(i + 1), Embedding: v})
	}
	return refs
}

func TestComputeCentroid(t *testing.T) {
	tests := []struct {
		name     string
		refs     []database.ReferenceEmbedding
		expected []float32
	}{
		{"empty set", nil, nil},
		{"single reference", refsWith([]float32{0, 3, 0}), []float32{0, 1, 0}},
		{
			"mean then normalize",
			refsWith([]float32{1, 0}, []float32{0, 1}),
			[]float32{float32(1 / math.Sqrt2), float32(1 / math.Sqrt2)},
		},
		{"opposite vectors cancel", refsWith([]float32{1, 0}, []float32{-1, 0}), nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeCentroid(tc.refs)
			if tc.expected == nil {
				if got != nil {
					t.Fatalf("expected nil centroid, got %v", got)
				}
				return
			}
			if len(got) != len(tc.expected) {
				t.Fatalf("centroid dim = %d; want %d", len(got), len(tc.expected))
			}
			for i := range got {
				if math.Abs(float64(got[i]-tc.expected[i])) > 1e-6 {
					t.Errorf("centroid[%d] = %f; want %f", i, got[i], tc.expected[i])
				}
			}
		})
	}
}

func TestComputeCentroidIsUnitLength(t *testing.T) {
	refs := refsWith(
		[]float32{0.2, 0.5, 0.8},
		[]float32{0.9, 0.1, 0.3},
		[]float32{0.4, 0.4, 0.4},
	)
	centroid := ComputeCentroid(refs)
	if centroid == nil {
		t.Fatal("expected a centroid")
	}

	var norm float64
	for _, v := range centroid {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-6 {
		t.Errorf("squared norm = %f; want 1", norm)
	}
}

func TestComputeCentroidSkipsMismatchedDims(t *testing.T) {
	refs := refsWith([]float32{1, 0}, []float32{1, 0, 0})
	centroid := ComputeCentroid(refs)
	if len(centroid) != 2 {
		t.Fatalf("centroid dim = %d; want 2", len(centroid))
	}
	if math.Abs(float64(centroid[0])-1) > 1e-6 {
		t.Errorf("centroid = %v; want [1 0]", centroid)
	}
}
