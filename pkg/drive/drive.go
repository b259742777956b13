// Package drive turns velocity commands into wheel motion. Three backends:
// an in-process simulator, a VESC motor controller on a serial port, and a
// remote drive daemon over HTTP.
package drive

import (
	"context"
	"fmt"

	"github.com/pibotics/go-chaser/internal/config"
)

// Actuator is the motion output boundary. Implementations clamp incoming
// commands to their own physical limits; the control core's limits are a
// separate, tighter envelope.
type Actuator interface {
	// Drive requests the given velocities. Linear is m/s forward,
	// angular rad/s counterclockwise.
	Drive(ctx context.Context, linear, angular float64) error

	// Stop halts the car. Equivalent to Drive(0, 0) but kept explicit so
	// emergency paths read as what they are.
	Stop(ctx context.Context) error

	Close() error
}

// New builds the actuator selected by cfg.Drive.Backend.
func New(cfg config.Config) (Actuator, error) {
	switch cfg.Drive.Backend {
	case "sim":
		return NewSim(cfg.Drive), nil
	case "vesc":
		return OpenVESC(cfg.Drive)
	case "daemon":
		return NewHTTPDaemon(cfg.DaemonAddr(), cfg.Drive), nil
	default:
		return nil, fmt.Errorf("unknown drive backend %q", cfg.Drive.Backend)
	}
}

// mix converts a body velocity into per-side wheel speeds for a differential
// drive. Positive angular (counterclockwise) speeds up the right wheel.
func mix(linear, angular, wheelbase float64) (left, right float64) {
	left = linear - angular*wheelbase/2
	right = linear + angular*wheelbase/2
	return left, right
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
