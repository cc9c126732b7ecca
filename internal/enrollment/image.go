package enrollment

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// cropMargin widens the face bounding box on every side so crops keep some
// surrounding context for the tie-break judge.
const cropMargin = 0.2

// cropMaxSize caps the stored crop resolution.
const cropMaxSize = 512

// cropFace cuts the face region out of the source image and re-encodes it as
// JPEG, scaled down to cropMaxSize when the region is larger. The bbox is
// [x1, y1, x2, y2] in pixel coordinates.
func cropFace(data []byte, bbox []float64) ([]byte, error) {
	if len(bbox) != 4 {
		return nil, fmt.Errorf("invalid bounding box: %v", bbox)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	w := bbox[2] - bbox[0]
	h := bbox[3] - bbox[1]
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("degenerate bounding box: %v", bbox)
	}

	region := image.Rect(
		clamp(int(bbox[0]-w*cropMargin), bounds.Min.X, bounds.Max.X),
		clamp(int(bbox[1]-h*cropMargin), bounds.Min.Y, bounds.Max.Y),
		clamp(int(bbox[2]+w*cropMargin), bounds.Min.X, bounds.Max.X),
		clamp(int(bbox[3]+h*cropMargin), bounds.Min.Y, bounds.Max.Y),
	)
	if region.Empty() {
		return nil, fmt.Errorf("bounding box outside image: %v", bbox)
	}

	target := region.Size()
	if target.X > cropMaxSize || target.Y > cropMaxSize {
		if target.X > target.Y {
			target.Y = target.Y * cropMaxSize / target.X
			target.X = cropMaxSize
		} else {
			target.X = target.X * cropMaxSize / target.Y
			target.Y = cropMaxSize
		}
	}

	crop := image.NewRGBA(image.Rect(0, 0, target.X, target.Y))
	draw.CatmullRom.Scale(crop, crop.Bounds(), img, region, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, crop, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}
	return buf.Bytes(), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
