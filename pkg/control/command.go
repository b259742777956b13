// Package control implements the follow/avoid control core: the person
// follower, the search rotation, the obstacle-avoidance sequencer, and the
// state machine that arbitrates between them.
//
// Everything here is pure computation over one cycle's inputs. No goroutines,
// no hardware, no I/O; the app loop owns timing and feeds the core.
package control

import "fmt"

// Command is one cycle's velocity request. Linear is m/s, forward positive.
// Angular is rad/s, counterclockwise positive (positive turns left).
type Command struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}

// Stop is the all-zero command.
var Stop = Command{}

// Clamp bounds the command to the given speed limits.
func (c Command) Clamp(maxLinear, maxAngular float64) Command {
	return Command{
		Linear:  clamp(c.Linear, -maxLinear, maxLinear),
		Angular: clamp(c.Angular, -maxAngular, maxAngular),
	}
}

// IsZero reports whether the command requests no motion.
func (c Command) IsZero() bool {
	return c.Linear == 0 && c.Angular == 0
}

// State is the top-level behavior mode.
type State int

const (
	// StateSearch rotates in place looking for a person.
	StateSearch State = iota
	// StateApproach steers toward the tracked person.
	StateApproach
	// StateAvoidObstacle runs the stop/scan/turn escape maneuver.
	StateAvoidObstacle
	// StateInteract holds position at the person.
	StateInteract
	// StateStop is the operator-commanded halt. Only a reset leaves it.
	StateStop
)

func (s State) String() string {
	switch s {
	case StateSearch:
		return "SEARCH"
	case StateApproach:
		return "APPROACH"
	case StateAvoidObstacle:
		return "AVOID_OBSTACLE"
	case StateInteract:
		return "INTERACT"
	case StateStop:
		return "STOP"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// OperatorCommand is an externally injected command, applied at the top of a
// control cycle before any state logic runs.
type OperatorCommand int

const (
	// OpNone means no operator input this cycle.
	OpNone OperatorCommand = iota
	// OpStop forces StateStop within one cycle.
	OpStop
	// OpReset returns a stopped car to StateSearch. Ignored otherwise.
	OpReset
)

func (o OperatorCommand) String() string {
	switch o {
	case OpStop:
		return "stop"
	case OpReset:
		return "reset"
	default:
		return "none"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
