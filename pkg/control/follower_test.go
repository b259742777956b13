package control

import (
	"math"
	"testing"

	"github.com/pibotics/go-chaser/internal/config"
	"github.com/pibotics/go-chaser/pkg/perception"
)

const (
	imgW = 640
	imgH = 480
	tol  = 1e-9
)

// personAt builds an observation with a box of the given size centered at
// (cx, cy) pixels.
func personAt(cx, cy, w, h int) perception.Observation {
	b := perception.BBox{
		XMin: cx - w/2,
		YMin: cy - h/2,
		XMax: cx + w/2,
		YMax: cy + h/2,
	}
	return perception.Observation{Found: true, BBox: &b}
}

func withDistance(obs perception.Observation, d float64) perception.Observation {
	obs.Distance = &d
	return obs
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < tol
}

func TestFollowerNotFound(t *testing.T) {
	f := NewPersonFollower(config.Default().Follower)

	res := f.Compute(perception.Observation{}, imgW, imgH)
	if !res.Cmd.IsZero() {
		t.Errorf("expected zero command for missing person, got %+v", res.Cmd)
	}
	if res.Aligned || res.CloseEnough {
		t.Errorf("missing person must not report aligned/close: %+v", res)
	}
}

func TestFollowerTurnDirection(t *testing.T) {
	f := NewPersonFollower(config.Default().Follower)

	tests := []struct {
		name string
		cx   int
		want func(angular float64) bool
	}{
		{"person right of center turns clockwise", 560, func(a float64) bool { return a < 0 }},
		{"person left of center turns counterclockwise", 80, func(a float64) bool { return a > 0 }},
		{"person dead center does not turn", 320, func(a float64) bool { return a == 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.Compute(personAt(tt.cx, 240, 40, 120), imgW, imgH)
			if !tt.want(res.Cmd.Angular) {
				t.Errorf("cx=%d: unexpected angular %f", tt.cx, res.Cmd.Angular)
			}
		})
	}
}

func TestFollowerAngularProportionalAndClamped(t *testing.T) {
	cfg := config.Default().Follower
	f := NewPersonFollower(cfg)

	// Half way to the right edge: normalized error 0.5.
	res := f.Compute(personAt(480, 240, 40, 120), imgW, imgH)
	want := -cfg.KAngle * 0.5 * cfg.MaxAngularSpeed
	if !approxEqual(res.Cmd.Angular, want) {
		t.Errorf("angular = %f, want %f", res.Cmd.Angular, want)
	}

	// A huge gain must still respect the angular limit.
	cfg.KAngle = 100
	f = NewPersonFollower(cfg)
	res = f.Compute(personAt(630, 240, 10, 120), imgW, imgH)
	if math.Abs(res.Cmd.Angular) > cfg.MaxAngularSpeed+tol {
		t.Errorf("angular %f exceeds limit %f", res.Cmd.Angular, cfg.MaxAngularSpeed)
	}
}

func TestFollowerAlignmentThresholdIsStrict(t *testing.T) {
	cfg := config.Default().Follower // AngleThreshold 0.1
	f := NewPersonFollower(cfg)

	// normErr exactly at the threshold: 0.1 * 320 = 32 px off center.
	at := f.Compute(personAt(352, 240, 40, 120), imgW, imgH)
	if at.Aligned {
		t.Error("error equal to threshold must not count as aligned")
	}

	inside := f.Compute(personAt(351, 240, 40, 120), imgW, imgH)
	if !inside.Aligned {
		t.Error("error inside threshold must count as aligned")
	}
}

func TestFollowerDistanceRegulation(t *testing.T) {
	cfg := config.Default().Follower
	f := NewPersonFollower(cfg)
	centered := personAt(320, 240, 40, 120)

	t.Run("too far drives forward", func(t *testing.T) {
		res := f.Compute(withDistance(centered, 2.0), imgW, imgH)
		want := cfg.KLinear * (2.0 - cfg.TargetDistance)
		if !approxEqual(res.Cmd.Linear, want) {
			t.Errorf("linear = %f, want %f", res.Cmd.Linear, want)
		}
		if res.CloseEnough {
			t.Error("2m away must not be close enough")
		}
	})

	t.Run("too close never reverses", func(t *testing.T) {
		res := f.Compute(withDistance(centered, 0.3), imgW, imgH)
		if res.Cmd.Linear != 0 {
			t.Errorf("linear = %f, want 0 (no reversing)", res.Cmd.Linear)
		}
	})

	t.Run("within tolerance holds still", func(t *testing.T) {
		res := f.Compute(withDistance(centered, cfg.TargetDistance+0.1), imgW, imgH)
		if !res.CloseEnough {
			t.Error("0.1m error within 0.2m tolerance must be close enough")
		}
		if !res.Cmd.IsZero() {
			t.Errorf("aligned and close must hold still, got %+v", res.Cmd)
		}
	})

	t.Run("clamped to max linear", func(t *testing.T) {
		res := f.Compute(withDistance(centered, 50.0), imgW, imgH)
		if res.Cmd.Linear > cfg.MaxLinearSpeed+tol {
			t.Errorf("linear %f exceeds limit %f", res.Cmd.Linear, cfg.MaxLinearSpeed)
		}
	})
}

func TestFollowerMisalignedNeverDrivesForward(t *testing.T) {
	f := NewPersonFollower(config.Default().Follower)

	res := f.Compute(withDistance(personAt(560, 240, 40, 120), 3.0), imgW, imgH)
	if res.Cmd.Linear != 0 {
		t.Errorf("misaligned follower must only turn, got linear %f", res.Cmd.Linear)
	}
	if res.Cmd.Angular == 0 {
		t.Error("misaligned follower must be turning")
	}
}

func TestFollowerAreaFallback(t *testing.T) {
	cfg := config.Default().Follower
	f := NewPersonFollower(cfg)

	t.Run("small box approaches at fixed speed", func(t *testing.T) {
		res := f.Compute(personAt(320, 240, 40, 120), imgW, imgH)
		want := cfg.ApproachFraction * cfg.MaxLinearSpeed
		if !approxEqual(res.Cmd.Linear, want) {
			t.Errorf("linear = %f, want %f", res.Cmd.Linear, want)
		}
		if res.CloseEnough {
			t.Error("small box must not be close enough")
		}
	})

	t.Run("large box counts as close", func(t *testing.T) {
		// 400x400 of 640x480 is ~52% of the image, beyond the 15%
		// area threshold.
		res := f.Compute(personAt(320, 240, 400, 400), imgW, imgH)
		if !res.CloseEnough {
			t.Error("dominant box must count as close")
		}
		if !res.Cmd.IsZero() {
			t.Errorf("aligned and close must hold still, got %+v", res.Cmd)
		}
	})
}

func TestSearchController(t *testing.T) {
	cfg := config.Default().Search
	s := NewSearchController(cfg)

	cmd := s.Compute()
	if cmd.Linear != 0 {
		t.Errorf("search must rotate in place, got linear %f", cmd.Linear)
	}
	if !approxEqual(cmd.Angular, cfg.AngularSpeed) {
		t.Errorf("angular = %f, want %f", cmd.Angular, cfg.AngularSpeed)
	}
}
