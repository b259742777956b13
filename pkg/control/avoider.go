package control

import (
	"time"

	"github.com/pibotics/go-chaser/internal/config"
	"github.com/pibotics/go-chaser/pkg/depthmap"
)

// AvoidPhase is the current step of the escape maneuver.
type AvoidPhase int

const (
	// AvoidIdle means no maneuver is running.
	AvoidIdle AvoidPhase = iota
	// AvoidStopping brakes to a standstill before anything else.
	AvoidStopping
	// AvoidScanning holds still while fresh depth frames settle.
	AvoidScanning
	// AvoidTurning rotates away from the obstacle.
	AvoidTurning
)

func (p AvoidPhase) String() string {
	switch p {
	case AvoidStopping:
		return "STOPPING"
	case AvoidScanning:
		return "SCANNING"
	case AvoidTurning:
		return "TURNING"
	default:
		return "IDLE"
	}
}

// stopDuration is the fixed braking window at the start of every maneuver.
// Not configurable: the car must always come to rest before scanning.
const stopDuration = 300 * time.Millisecond

// ObstacleAvoider sequences the three-phase escape maneuver on wall-clock
// time: stop, scan, turn. The maneuver is never preempted; once started it
// runs to completion and the state machine stays out of the way.
//
// Phase boundaries are measured with the injected clock so tests can drive
// the sequencer without sleeping.
type ObstacleAvoider struct {
	cfg config.AvoiderConfig
	now func() time.Time

	phase      AvoidPhase
	phaseStart time.Time
	direction  depthmap.Direction
}

// NewObstacleAvoider returns an idle avoider.
func NewObstacleAvoider(cfg config.AvoiderConfig) *ObstacleAvoider {
	return &ObstacleAvoider{cfg: cfg, now: time.Now}
}

// Start begins a maneuver turning in the given direction. Calling Start while
// a maneuver is running restarts it from the stopping phase.
func (a *ObstacleAvoider) Start(dir depthmap.Direction) {
	a.phase = AvoidStopping
	a.phaseStart = a.now()
	a.direction = dir
}

// Reset abandons any maneuver in progress.
func (a *ObstacleAvoider) Reset() {
	a.phase = AvoidIdle
}

// SetDirection updates the turn direction. Called during the scan phase as
// fresher depth frames arrive; the last update before the turn starts wins.
func (a *ObstacleAvoider) SetDirection(dir depthmap.Direction) {
	a.direction = dir
}

// Active reports whether a maneuver is in progress.
func (a *ObstacleAvoider) Active() bool {
	return a.phase != AvoidIdle
}

// Phase returns the current maneuver phase.
func (a *ObstacleAvoider) Phase() AvoidPhase {
	return a.phase
}

// Direction returns the turn direction of the current maneuver.
func (a *ObstacleAvoider) Direction() depthmap.Direction {
	return a.direction
}

// Compute advances the sequencer and returns this cycle's command. done is
// true exactly once, on the cycle the maneuver completes; the avoider is idle
// again afterwards.
//
// Calling Compute while idle starts a fresh maneuver with the last direction
// (left if none was ever chosen). Callers should prefer Start, but the
// sequencer stays safe either way: the first phase is always a full stop.
func (a *ObstacleAvoider) Compute() (cmd Command, done bool) {
	if a.phase == AvoidIdle {
		a.Start(a.direction)
	}

	elapsed := a.now().Sub(a.phaseStart)

	switch a.phase {
	case AvoidStopping:
		if elapsed >= stopDuration {
			a.advance(AvoidScanning)
			return a.Compute()
		}
		return Stop, false

	case AvoidScanning:
		if elapsed >= a.cfg.ScanDuration {
			a.advance(AvoidTurning)
			return a.Compute()
		}
		return Stop, false

	default: // AvoidTurning
		if elapsed >= a.cfg.TurnDuration {
			a.phase = AvoidIdle
			return Stop, true
		}
		speed := a.cfg.TurnAngularSpeed
		if a.direction == depthmap.DirectionRight {
			speed = -speed
		}
		return Command{Angular: speed}, false
	}
}

// advance moves to the next phase, restarting the phase timer.
func (a *ObstacleAvoider) advance(next AvoidPhase) {
	a.phase = next
	a.phaseStart = a.now()
}
