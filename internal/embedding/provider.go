// Package embedding provides the face detection and embedding boundary.
// A Provider turns a captured image into zero or more detected faces, each
// carrying a fixed-length vector and a bounding box. The matching engine is
// agnostic to which concrete provider produced the vectors.
package embedding

import "context"

// Face is a single detected face in an image.
type Face struct {
	FaceIndex int       `json:"face_index"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2] in pixel coordinates
	DetScore  float64   `json:"det_score"`
}

// Provider detects faces and computes their embeddings.
// Implementations return an empty slice (not an error) when no face is found
// or the image cannot be decoded.
type Provider interface {
	Name() string
	DetectFaces(ctx context.Context, imageData []byte) ([]Face, error)
}

// PrimaryFace selects the face with the largest bounding box area.
// Returns nil for an empty slice. This is the single-face policy for frames
// that contain several people: the closest (largest) face wins.
func PrimaryFace(faces []Face) *Face {
	if len(faces) == 0 {
		return nil
	}
	best := &faces[0]
	bestArea := bboxArea(best.BBox)
	for i := 1; i < len(faces); i++ {
		if a := bboxArea(faces[i].BBox); a > bestArea {
			best = &faces[i]
			bestArea = a
		}
	}
	return best
}

func bboxArea(bbox []float64) float64 {
	if len(bbox) != 4 {
		return 0
	}
	w := bbox[2] - bbox[0]
	h := bbox[3] - bbox[1]
	if w < 0 || h < 0 {
		return 0
	}
	return w * h
}
