package control

import (
	"testing"
	"time"

	"github.com/pibotics/go-chaser/internal/config"
	"github.com/pibotics/go-chaser/pkg/depthmap"
)

// fakeClock drives the avoider's wall-clock timing without sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestAvoider() (*ObstacleAvoider, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	a := NewObstacleAvoider(config.Default().Avoider)
	a.now = clock.now
	return a, clock
}

func TestAvoiderPhaseOrdering(t *testing.T) {
	cfg := config.Default().Avoider
	a, clock := newTestAvoider()
	a.Start(depthmap.DirectionLeft)

	// Stopping: zero command until the fixed braking window passes.
	cmd, done := a.Compute()
	if done || !cmd.IsZero() {
		t.Fatalf("stopping phase: cmd=%+v done=%v", cmd, done)
	}
	if a.Phase() != AvoidStopping {
		t.Fatalf("phase = %v, want STOPPING", a.Phase())
	}

	// Scanning: still zero command.
	clock.advance(stopDuration)
	cmd, done = a.Compute()
	if done || !cmd.IsZero() {
		t.Fatalf("scanning phase: cmd=%+v done=%v", cmd, done)
	}
	if a.Phase() != AvoidScanning {
		t.Fatalf("phase = %v, want SCANNING", a.Phase())
	}

	// Turning: counterclockwise for a left escape.
	clock.advance(cfg.ScanDuration)
	cmd, done = a.Compute()
	if done {
		t.Fatal("turn phase ended immediately")
	}
	if a.Phase() != AvoidTurning {
		t.Fatalf("phase = %v, want TURNING", a.Phase())
	}
	if cmd.Angular != cfg.TurnAngularSpeed || cmd.Linear != 0 {
		t.Fatalf("turn command = %+v, want angular %f", cmd, cfg.TurnAngularSpeed)
	}

	// Completion: zero command, done once, idle afterwards.
	clock.advance(cfg.TurnDuration)
	cmd, done = a.Compute()
	if !done {
		t.Fatal("maneuver should have completed")
	}
	if !cmd.IsZero() {
		t.Fatalf("completion command = %+v, want zero", cmd)
	}
	if a.Active() {
		t.Error("avoider still active after completion")
	}
}

func TestAvoiderTurnDirectionSign(t *testing.T) {
	cfg := config.Default().Avoider
	a, clock := newTestAvoider()

	a.Start(depthmap.DirectionRight)
	clock.advance(stopDuration + cfg.ScanDuration)
	cmd, _ := a.Compute()
	if cmd.Angular != -cfg.TurnAngularSpeed {
		t.Errorf("right escape angular = %f, want %f", cmd.Angular, -cfg.TurnAngularSpeed)
	}
}

func TestAvoiderComputeWhileIdleAutoStarts(t *testing.T) {
	a, _ := newTestAvoider()

	cmd, done := a.Compute()
	if done {
		t.Fatal("auto-started maneuver reported done immediately")
	}
	if !cmd.IsZero() {
		t.Fatalf("auto-start must begin with the stop phase, got %+v", cmd)
	}
	if a.Phase() != AvoidStopping {
		t.Errorf("phase = %v, want STOPPING", a.Phase())
	}
}

func TestAvoiderRestartResets(t *testing.T) {
	cfg := config.Default().Avoider
	a, clock := newTestAvoider()

	a.Start(depthmap.DirectionLeft)
	clock.advance(stopDuration + cfg.ScanDuration)
	a.Compute()
	if a.Phase() != AvoidTurning {
		t.Fatalf("phase = %v, want TURNING", a.Phase())
	}

	a.Start(depthmap.DirectionRight)
	if a.Phase() != AvoidStopping {
		t.Errorf("restart must return to STOPPING, got %v", a.Phase())
	}
	if a.Direction() != depthmap.DirectionRight {
		t.Errorf("restart kept stale direction %v", a.Direction())
	}
}

func TestAvoiderSlowTicksAdvanceOnePhaseAtATime(t *testing.T) {
	// Each phase is timed from entry. Even a huge gap between ticks only
	// moves the sequencer one phase forward; the turn always gets its
	// full duration.
	a, clock := newTestAvoider()
	a.Start(depthmap.DirectionLeft)

	clock.advance(10 * time.Second)
	cmd, done := a.Compute()
	if done {
		t.Fatal("one tick must not complete the whole maneuver")
	}
	if !cmd.IsZero() || a.Phase() != AvoidScanning {
		t.Fatalf("expected to land at the start of SCANNING, got %+v (phase %v)", cmd, a.Phase())
	}
}
