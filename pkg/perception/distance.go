package perception

import "github.com/pibotics/go-chaser/pkg/depthmap"

// DefaultPatchSize is the side length of the sampling patch used by
// DistanceFromBBox.
const DefaultPatchSize = 10

// DistanceFromBBox estimates the distance to a detected person by averaging
// the depth samples in a small patch around the bbox center. Zero samples are
// treated as unknown and skipped. Returns nil when the patch holds no valid
// data, so callers degrade to the bbox-area heuristic instead.
func DistanceFromBBox(f *depthmap.Frame, b BBox, patchSize int) *float64 {
	if f == nil {
		return nil
	}
	if patchSize <= 0 {
		patchSize = DefaultPatchSize
	}

	cx := int(b.CenterX())
	cy := int(b.CenterY())
	cx = clampInt(cx, 0, f.Width-1)
	cy = clampInt(cy, 0, f.Height-1)

	half := patchSize / 2
	xMin := clampInt(cx-half, 0, f.Width)
	xMax := clampInt(cx+half, 0, f.Width)
	yMin := clampInt(cy-half, 0, f.Height)
	yMax := clampInt(cy+half, 0, f.Height)

	var sum float64
	var count int
	for y := yMin; y < yMax; y++ {
		for x := xMin; x < xMax; x++ {
			if v := f.At(x, y); v > 0 {
				sum += float64(v)
				count++
			}
		}
	}
	if count == 0 {
		return nil
	}

	meters := sum / float64(count) / 1000.0
	return &meters
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
