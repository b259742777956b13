package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pibotics/go-chaser/internal/config"
	"github.com/pibotics/go-chaser/pkg/drive"
	"github.com/pibotics/go-chaser/pkg/perception"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Loop.TickRate = time.Millisecond
	cfg.Loop.IdleSleep = 0
	return cfg
}

func personObservation(dist float64) perception.Observation {
	b := perception.BBox{XMin: 300, YMin: 180, XMax: 340, YMax: 300}
	return perception.Observation{Found: true, BBox: &b, Distance: &dist}
}

// runLoop starts the loop and returns a cancel that waits for it to exit.
func runLoop(t *testing.T, l *Loop) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
		close(done)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("loop did not exit")
		}
	}
}

func TestLoopDrivesTowardPerson(t *testing.T) {
	source := perception.NewStatic(640, 480)
	source.SetObservation(personObservation(3.0))
	sim := drive.NewSim(testConfig().Drive)

	l := New(testConfig(), source, sim, nil)
	stop := runLoop(t, l)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if linear, _ := sim.Last(); linear > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	stop()

	if linear, _ := sim.Last(); linear != 0 {
		t.Errorf("motors still running after shutdown: linear=%f", linear)
	}
	if sim.StopCount() == 0 {
		t.Error("shutdown must issue an explicit stop")
	}
}

func TestLoopOperatorStopHalts(t *testing.T) {
	source := perception.NewStatic(640, 480)
	source.SetObservation(personObservation(3.0))
	sim := drive.NewSim(testConfig().Drive)

	l := New(testConfig(), source, sim, nil)
	stop := runLoop(t, l)
	defer stop()

	l.Stop()

	deadline := time.Now().Add(time.Second)
	halted := false
	for time.Now().Before(deadline) {
		linear, angular := sim.Last()
		if linear == 0 && angular == 0 {
			halted = true
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !halted {
		t.Fatal("operator stop did not halt the car")
	}

	// A halted car stays halted until reset, person or not.
	time.Sleep(20 * time.Millisecond)
	if linear, angular := sim.Last(); linear != 0 || angular != 0 {
		t.Errorf("stopped car moved: linear=%f angular=%f", linear, angular)
	}
}

func TestLoopOperatorCommands(t *testing.T) {
	source := perception.NewStatic(640, 480)
	l := New(testConfig(), source, drive.NewSim(testConfig().Drive), nil)

	if err := l.Operator("stop"); err != nil {
		t.Errorf("stop rejected: %v", err)
	}
	if err := l.Operator("reset"); err != nil {
		t.Errorf("reset rejected: %v", err)
	}
	if err := l.Operator("dance"); err == nil {
		t.Error("unknown command accepted")
	}
}

func TestLoopStopNeverLostOnFullQueue(t *testing.T) {
	source := perception.NewStatic(640, 480)
	l := New(testConfig(), source, drive.NewSim(testConfig().Drive), nil)

	// Flood the queue with resets, then stop. The stop must land.
	for i := 0; i < 20; i++ {
		l.Reset()
	}
	l.Stop()

	sawStop := false
	for {
		op := l.pollOp()
		if op.String() == "none" {
			break
		}
		if op.String() == "stop" {
			sawStop = true
		}
	}
	if !sawStop {
		t.Error("stop was dropped from a full operator queue")
	}
}

func TestLoopRunIDIsStable(t *testing.T) {
	source := perception.NewStatic(640, 480)
	l := New(testConfig(), source, drive.NewSim(testConfig().Drive), nil)

	if l.RunID() == "" {
		t.Fatal("empty run ID")
	}
	if l.RunID() != l.RunID() {
		t.Error("run ID changed between calls")
	}
}
