package control

import (
	"github.com/pibotics/go-chaser/internal/config"
	"github.com/pibotics/go-chaser/internal/log"
	"github.com/pibotics/go-chaser/pkg/depthmap"
	"github.com/pibotics/go-chaser/pkg/perception"
)

// Controller is the top-level follow/avoid state machine. One Step per
// control cycle: operator input first, then the obstacle check, then the
// state behavior. The returned command is already clamped to the follower's
// speed limits.
//
// Not safe for concurrent use. The app loop is the only caller.
type Controller struct {
	follower *PersonFollower
	search   *SearchController
	avoider  *ObstacleAvoider
	detector depthmap.Detector

	maxLinear  float64
	maxAngular float64

	state       State
	imgW, imgH  int
	lastVerdict depthmap.Verdict
	lastResult  FollowResult
}

// NewController builds the state machine from configuration. The image size
// is the pixel space observations arrive in.
func NewController(cfg config.Config, imgW, imgH int) *Controller {
	det := depthmap.Detector{
		FrontRegionRatio: cfg.Obstacle.FrontRegionRatio,
		DepthThreshold:   cfg.Obstacle.DepthThreshold,
		MinDepthMM:       cfg.Obstacle.MinDepthMM,
		MaxDepthMM:       cfg.Obstacle.MaxDepthMM,
		Method:           depthmap.Method(cfg.Obstacle.Method),
	}

	return &Controller{
		follower:   NewPersonFollower(cfg.Follower),
		search:     NewSearchController(cfg.Search),
		avoider:    NewObstacleAvoider(cfg.Avoider),
		detector:   det,
		maxLinear:  cfg.Follower.MaxLinearSpeed,
		maxAngular: cfg.Follower.MaxAngularSpeed,
		state:      StateSearch,
		imgW:       imgW,
		imgH:       imgH,
	}
}

// State returns the current behavior mode.
func (c *Controller) State() State {
	return c.state
}

// AvoidPhase returns the escape-maneuver phase, AvoidIdle outside of
// StateAvoidObstacle.
func (c *Controller) AvoidPhase() AvoidPhase {
	return c.avoider.Phase()
}

// LastVerdict returns the most recent obstacle verdict, for telemetry.
func (c *Controller) LastVerdict() depthmap.Verdict {
	return c.lastVerdict
}

// LastFollow returns the most recent follower output, for telemetry.
func (c *Controller) LastFollow() FollowResult {
	return c.lastResult
}

// Step runs one control cycle and returns the velocity command to actuate.
//
// Ordering is fixed: operator commands apply first (a stop always wins within
// one cycle), the obstacle check runs once before state logic, and only the
// SEARCH and APPROACH states are preemptable. A running avoidance maneuver and
// the INTERACT hold are never interrupted by new obstacle verdicts.
func (c *Controller) Step(obs perception.Observation, depth *depthmap.Frame, op OperatorCommand) Command {
	switch op {
	case OpStop:
		if c.state != StateStop {
			log.Warn("operator stop", "from", c.state.String())
		}
		c.avoider.Reset()
		c.state = StateStop
	case OpReset:
		if c.state == StateStop {
			log.Info("operator reset, resuming search")
			c.state = StateSearch
		}
	}

	if c.state == StateStop {
		return Stop
	}

	// Fill in distance from depth when the camera backend did not.
	if obs.Found && obs.Distance == nil && obs.BBox != nil && depth != nil {
		obs.Distance = perception.DistanceFromBBox(depth, *obs.BBox, perception.DefaultPatchSize)
	}

	// One obstacle check per cycle. Without a depth frame there is no
	// check at all: the car keeps following rather than freezing blind.
	if depth != nil && (c.state == StateSearch || c.state == StateApproach) {
		c.lastVerdict = c.detector.DetectObstacle(depth)
		if c.lastVerdict.ObstacleAhead {
			dir := c.detector.ChooseAvoidanceDirection(depth)
			log.Info("obstacle ahead, starting avoidance",
				"depth_m", *c.lastVerdict.FrontDepth,
				"direction", dir.String(),
				"from", c.state.String())
			c.avoider.Start(dir)
			c.state = StateAvoidObstacle
		}
	}

	cmd := c.stepState(obs)

	// The scan phase exists to let fresh frames arrive after braking.
	// Keep re-picking the escape direction while it lasts; the last frame
	// before the turn decides.
	if c.avoider.Phase() == AvoidScanning && depth != nil {
		c.avoider.SetDirection(c.detector.ChooseAvoidanceDirection(depth))
	}

	return cmd.Clamp(c.maxLinear, c.maxAngular)
}

// stepState runs the behavior for the current state, handling in-cycle
// transitions so a state change never costs a cycle of stale behavior.
func (c *Controller) stepState(obs perception.Observation) Command {
	switch c.state {
	case StateAvoidObstacle:
		cmd, done := c.avoider.Compute()
		if done {
			log.Info("avoidance complete, resuming search")
			c.state = StateSearch
		}
		return cmd

	case StateApproach:
		if !obs.Found {
			// Stop first; the search rotation starts next cycle.
			log.Debug("person lost, searching")
			c.state = StateSearch
			return Stop
		}
		c.lastResult = c.follower.Compute(obs, c.imgW, c.imgH)
		if c.lastResult.Aligned && c.lastResult.CloseEnough {
			log.Info("reached person, interacting")
			c.state = StateInteract
			return Stop
		}
		return c.lastResult.Cmd

	case StateInteract:
		if !obs.Found {
			log.Debug("person left, searching")
			c.state = StateSearch
			return Stop
		}
		// Re-evaluate every cycle; drift back out of tolerance resumes
		// the approach.
		c.lastResult = c.follower.Compute(obs, c.imgW, c.imgH)
		if c.lastResult.Aligned && c.lastResult.CloseEnough {
			return Stop
		}
		log.Debug("person moved, approaching")
		c.state = StateApproach
		return c.lastResult.Cmd

	default: // StateSearch
		if obs.Found {
			log.Info("person found, approaching")
			c.state = StateApproach
			return c.stepState(obs)
		}
		return c.search.Compute()
	}
}
