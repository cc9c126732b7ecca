package embedding

import (
	"context"
	"crypto/sha256"
	"math"
)

// StubProvider derives a deterministic unit vector from the image bytes
// instead of running a face model. It lets the full recognition flow run in
// deployments without an embedding server: the same bytes always produce the
// same embedding, so enrollment photos and captures of identical content
// match perfectly.
type StubProvider struct {
	dim  int
	salt string
}

// NewStubProvider creates a stub provider producing vectors of the given
// dimensionality. The salt separates unrelated deployments so their stub
// vectors never collide.
func NewStubProvider(dim int, salt string) *StubProvider {
	if dim <= 0 {
		dim = 512
	}
	return &StubProvider{dim: dim, salt: salt}
}

// Name returns the provider name.
func (p *StubProvider) Name() string {
	return "stub"
}

// DetectFaces treats any non-empty payload as exactly one usable face filling
// the frame. Empty payloads yield no faces.
func (p *StubProvider) DetectFaces(_ context.Context, imageData []byte) ([]Face, error) {
	if len(imageData) == 0 {
		return []Face{}, nil
	}
	return []Face{
		{
			FaceIndex: 0,
			Embedding: p.vectorFromBytes(imageData),
			BBox:      []float64{0, 0, 1, 1},
			DetScore:  1.0,
		},
	}, nil
}

// vectorFromBytes stretches a SHA-256 digest chain over the configured
// dimensionality, mapping each byte into [-1, 1], then L2-normalizes.
func (p *StubProvider) vectorFromBytes(payload []byte) []float32 {
	salt := []byte(p.salt)
	cursor := sha256.Sum256(append(append([]byte{}, payload...), salt...))

	values := make([]float64, 0, p.dim)
	for len(values) < p.dim {
		cursor = sha256.Sum256(append(cursor[:], salt...))
		for _, b := range cursor {
			values = append(values, (float64(b)/255.0)*2-1)
			if len(values) == p.dim {
				break
			}
		}
	}

	return normalize(values)
}

// normalize L2-normalizes the vector, returning zeros for a zero vector.
func normalize(values []float64) []float32 {
	var sum float64
	for _, v := range values {
		sum += v * v
	}
	out := make([]float32, len(values))
	if sum == 0 {
		return out
	}
	mag := math.Sqrt(sum)
	for i, v := range values {
		out[i] = float32(v / mag)
	}
	return out
}
