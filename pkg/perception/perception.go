// Package perception defines the observation boundary between the camera
// backend and the control core, plus a gocv-based camera implementation.
//
// The core never talks to hardware: it consumes one Observation and at most
// one depth frame per control cycle through the Source interface. Everything
// about device reconnects, detector fallbacks, and frame pacing stays on this
// side of the boundary.
package perception

import (
	"fmt"

	"github.com/pibotics/go-chaser/pkg/depthmap"
)

// BBox is an axis-aligned person bounding box in pixel coordinates.
type BBox struct {
	XMin, YMin, XMax, YMax int
}

// Validate rejects malformed boxes. Perception backends must call this before
// publishing an observation; the control laws assume well-formed input.
func (b BBox) Validate() error {
	if b.XMin > b.XMax || b.YMin > b.YMax {
		return fmt.Errorf("malformed bbox (%d,%d,%d,%d)", b.XMin, b.YMin, b.XMax, b.YMax)
	}
	return nil
}

// CenterX returns the horizontal center in pixels.
func (b BBox) CenterX() float64 {
	return float64(b.XMin+b.XMax) / 2.0
}

// CenterY returns the vertical center in pixels.
func (b BBox) CenterY() float64 {
	return float64(b.YMin+b.YMax) / 2.0
}

// Area returns the box area in square pixels.
func (b BBox) Area() int {
	return (b.XMax - b.XMin) * (b.YMax - b.YMin)
}

// Observation is the per-cycle perception snapshot. It always carries all
// fields: BBox is nil when Found is false, Distance is nil whenever no depth
// estimate exists. Immutable once produced.
type Observation struct {
	Found    bool
	BBox     *BBox
	Distance *float64 // meters
}

// Source is the capability the control loop polls each cycle. All methods are
// non-blocking; "nothing new" is a normal, frequent answer.
type Source interface {
	// TryObservation returns the most recent person observation. Stale
	// data is acceptable; the loop only ever wants the latest.
	TryObservation() Observation

	// TryDepth returns the most recent depth frame, or nil when the
	// backend has no depth capability or no frame is available.
	TryDepth() *depthmap.Frame

	// ImageSize returns the pixel dimensions observations are expressed in.
	ImageSize() (width, height int)

	Close() error
}
