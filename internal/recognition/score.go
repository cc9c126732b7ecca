package recognition

import "math"

// CosineSimilarity computes the cosine similarity between two embedding vectors
// Returns a value between -1 and 1, where 1 means identical
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim
}

// Score maps cosine similarity onto [0, 1] for thresholding: 1 means
// identical direction, 0.5 orthogonal, 0 opposite. Embedding magnitude is
// not informative for face vectors, which is why cosine is used over
// Euclidean distance.
func Score(query, centroid []float32) float64 {
	return (CosineSimilarity(query, centroid) + 1) / 2
}
