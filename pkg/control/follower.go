package control

import (
	"math"

	"github.com/pibotics/go-chaser/internal/config"
	"github.com/pibotics/go-chaser/pkg/perception"
)

// FollowResult is one cycle of person-following output. Aligned and
// CloseEnough feed the state machine's INTERACT transition.
type FollowResult struct {
	Cmd         Command
	Aligned     bool
	CloseEnough bool

	// NormError is the horizontal offset of the person from image center,
	// in [-1, 1]. Exposed for telemetry.
	NormError float64
}

// PersonFollower steers toward a tracked person with a proportional law on
// the bbox offset, and regulates distance once aligned.
//
// Alignment gates forward motion: the car turns first, then drives. Distance
// comes from depth when available; without depth the bbox area ratio stands
// in as a coarse proximity signal.
type PersonFollower struct {
	cfg config.FollowerConfig
}

// NewPersonFollower returns a follower with the given tuning.
func NewPersonFollower(cfg config.FollowerConfig) *PersonFollower {
	return &PersonFollower{cfg: cfg}
}

// Compute produces the follow command for one observation. A not-found
// observation yields a zero command; the state machine decides what happens
// next, not the follower.
func (f *PersonFollower) Compute(obs perception.Observation, imgWidth, imgHeight int) FollowResult {
	if !obs.Found || obs.BBox == nil || imgWidth <= 0 {
		return FollowResult{}
	}

	halfW := float64(imgWidth) / 2.0
	normErr := (obs.BBox.CenterX() - halfW) / halfW

	// Person right of center means a clockwise (negative) turn.
	angular := clamp(-f.cfg.KAngle*normErr*f.cfg.MaxAngularSpeed,
		-f.cfg.MaxAngularSpeed, f.cfg.MaxAngularSpeed)

	res := FollowResult{
		Cmd:       Command{Angular: angular},
		Aligned:   math.Abs(normErr) < f.cfg.AngleThreshold,
		NormError: normErr,
	}

	if obs.Distance != nil {
		distErr := *obs.Distance - f.cfg.TargetDistance
		res.CloseEnough = math.Abs(distErr) < f.cfg.DistanceThreshold
		if res.Aligned && !res.CloseEnough {
			// Forward only. The car never backs away from a person
			// standing too close; it just holds.
			res.Cmd.Linear = clamp(f.cfg.KLinear*distErr, 0, f.cfg.MaxLinearSpeed)
		}
	} else {
		// No depth estimate. The bbox area ratio is a crude stand-in:
		// a big box means the person fills the view and is close.
		areaRatio := float64(obs.BBox.Area()) / float64(imgWidth*imgHeight)
		res.CloseEnough = areaRatio > f.cfg.AreaThreshold
		if res.Aligned && !res.CloseEnough {
			res.Cmd.Linear = f.cfg.ApproachFraction * f.cfg.MaxLinearSpeed
		}
	}

	if res.Aligned && res.CloseEnough {
		res.Cmd = Stop
	}
	return res
}

// SearchController rotates the car in place until a person shows up.
type SearchController struct {
	cfg config.SearchConfig
}

// NewSearchController returns the search behavior.
func NewSearchController(cfg config.SearchConfig) *SearchController {
	return &SearchController{cfg: cfg}
}

// Compute returns the constant search rotation.
func (s *SearchController) Compute() Command {
	return Command{Angular: s.cfg.AngularSpeed}
}
