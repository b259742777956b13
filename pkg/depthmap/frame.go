// Package depthmap provides depth-frame statistics for obstacle sensing.
//
// A frame is a row-major grid of unsigned 16-bit samples in millimeters, as
// produced by stereo or ToF cameras. Zero and out-of-range samples carry no
// information and are excluded from every statistic.
package depthmap

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Frame is a single depth image. Data holds Width*Height samples in
// millimeters, row-major. The control core only ever reads frames.
type Frame struct {
	Width  int
	Height int
	Data   []uint16
}

// NewFrame wraps raw samples in a Frame, validating the dimensions.
func NewFrame(width, height int, data []uint16) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("frame data length %d does not match %dx%d", len(data), width, height)
	}
	return &Frame{Width: width, Height: height, Data: data}, nil
}

// Uniform returns a frame filled with a single value. Mostly useful in tests
// and synthetic sources.
func Uniform(width, height int, value uint16) *Frame {
	data := make([]uint16, width*height)
	for i := range data {
		data[i] = value
	}
	return &Frame{Width: width, Height: height, Data: data}
}

// At returns the sample at (x, y). Callers must stay in bounds.
func (f *Frame) At(x, y int) uint16 {
	return f.Data[y*f.Width+x]
}

// Region is a half-open pixel rectangle [XMin, XMax) x [YMin, YMax).
type Region struct {
	XMin, YMin, XMax, YMax int
}

// validSamples collects the samples inside r that fall strictly inside
// (minMM, maxMM), as float64 millimeters.
func (f *Frame) validSamples(r Region, minMM, maxMM uint16) []float64 {
	out := make([]float64, 0, (r.XMax-r.XMin)*(r.YMax-r.YMin))
	for y := r.YMin; y < r.YMax; y++ {
		row := f.Data[y*f.Width : (y+1)*f.Width]
		for x := r.XMin; x < r.XMax; x++ {
			v := row[x]
			if v > minMM && v < maxMM {
				out = append(out, float64(v))
			}
		}
	}
	return out
}

// median returns the median of values, averaging the two middle elements for
// even-length input. values is not modified.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// quantile returns the p-quantile of values. values is not modified.
func quantile(p float64, values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}
