package depthmap

// Method selects the representative-depth statistic for the front region.
type Method string

const (
	// MethodMedian uses the median of valid samples.
	MethodMedian Method = "median"
	// MethodPercentile10 uses the 10th percentile, biasing toward the
	// nearest obstacle. More conservative than the median.
	MethodPercentile10 Method = "percentile_10"
)

// Direction is an avoidance turn direction.
type Direction int

const (
	DirectionLeft Direction = iota
	DirectionRight
)

func (d Direction) String() string {
	if d == DirectionRight {
		return "RIGHT"
	}
	return "LEFT"
}

// Verdict is the per-cycle obstacle decision for the front region.
// FrontDepth is nil when no valid samples were available; in that case
// ObstacleAhead is always false (fail open).
type Verdict struct {
	ObstacleAhead bool
	FrontDepth    *float64 // meters
	FrontRegion   Region
	ValidCount    int
}

// Sides summarizes depth to the left and right of the car. A nil depth means
// that side produced no valid samples this cycle.
type Sides struct {
	Left       *float64 // meters
	Right      *float64 // meters
	LeftCount  int
	RightCount int
}

// Detector turns depth frames into obstacle verdicts. All methods are pure
// functions over the passed frame; Detector itself holds only configuration.
type Detector struct {
	FrontRegionRatio float64 // fraction of width and height forming the centered front window
	DepthThreshold   float64 // meters; nearer than this is an obstacle
	MinDepthMM       uint16
	MaxDepthMM       uint16
	Method           Method
}

// DefaultDetector returns the detector tuning the car ships with: a centered
// 30% window, obstacles closer than 0.5m, samples valid in (100mm, 6000mm).
func DefaultDetector() Detector {
	return Detector{
		FrontRegionRatio: 0.3,
		DepthThreshold:   0.5,
		MinDepthMM:       100,
		MaxDepthMM:       6000,
		Method:           MethodMedian,
	}
}

// DetectObstacle reports whether something is inside DepthThreshold in the
// centered front window. A nil frame or a window with no valid samples yields
// no obstacle: when the car is blind it must not invent walls.
func (d Detector) DetectObstacle(f *Frame) Verdict {
	if f == nil {
		return Verdict{}
	}

	regionW := int(float64(f.Width) * d.FrontRegionRatio)
	regionH := int(float64(f.Height) * d.FrontRegionRatio)
	region := Region{
		XMin: (f.Width - regionW) / 2,
		YMin: (f.Height - regionH) / 2,
	}
	region.XMax = region.XMin + regionW
	region.YMax = region.YMin + regionH

	samples := f.validSamples(region, d.MinDepthMM, d.MaxDepthMM)
	if len(samples) == 0 {
		return Verdict{FrontRegion: region}
	}

	var depthMM float64
	switch d.Method {
	case MethodPercentile10:
		depthMM = quantile(0.10, samples)
	default:
		depthMM = median(samples)
	}

	depthM := depthMM / 1000.0
	return Verdict{
		ObstacleAhead: depthM < d.DepthThreshold,
		FrontDepth:    &depthM,
		FrontRegion:   region,
		ValidCount:    len(samples),
	}
}

// SideDepths summarizes the left and right thirds of the frame (middle half of
// the height), always median-reduced. Used to pick an escape direction.
func (d Detector) SideDepths(f *Frame) Sides {
	if f == nil {
		return Sides{}
	}

	regionW := f.Width / 3
	regionH := f.Height / 2
	yMin := (f.Height - regionH) / 2
	yMax := yMin + regionH

	left := f.validSamples(Region{XMin: 0, YMin: yMin, XMax: regionW, YMax: yMax}, d.MinDepthMM, d.MaxDepthMM)
	right := f.validSamples(Region{XMin: f.Width - regionW, YMin: yMin, XMax: f.Width, YMax: yMax}, d.MinDepthMM, d.MaxDepthMM)

	sides := Sides{LeftCount: len(left), RightCount: len(right)}
	if len(left) > 0 {
		m := median(left) / 1000.0
		sides.Left = &m
	}
	if len(right) > 0 {
		m := median(right) / 1000.0
		sides.Right = &m
	}
	return sides
}

// ChooseAvoidanceDirection picks the side with more room. If only one side has
// data, that side wins; it is all we can measure. With no data on either side
// the car turns left, an arbitrary default rather than a safety guarantee.
func (d Detector) ChooseAvoidanceDirection(f *Frame) Direction {
	sides := d.SideDepths(f)

	if sides.Left != nil && sides.Right != nil {
		if *sides.Left > *sides.Right {
			return DirectionLeft
		}
		return DirectionRight
	}
	if sides.Left != nil {
		return DirectionLeft
	}
	if sides.Right != nil {
		return DirectionRight
	}
	return DirectionLeft
}
