package drive

import (
	"context"
	"sync"

	"github.com/pibotics/go-chaser/internal/config"
	"github.com/pibotics/go-chaser/internal/log"
)

// Sim is the no-hardware actuator. It clamps and records commands so tests
// and bench runs can observe what the control loop asked for.
type Sim struct {
	cfg config.DriveConfig

	mu      sync.Mutex
	linear  float64
	angular float64
	stops   int
}

// NewSim returns a simulator actuator with the given limits.
func NewSim(cfg config.DriveConfig) *Sim {
	return &Sim{cfg: cfg}
}

func (s *Sim) Drive(ctx context.Context, linear, angular float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	linear = clamp(linear, -s.cfg.MaxLinearSpeed, s.cfg.MaxLinearSpeed)
	angular = clamp(angular, -s.cfg.MaxAngularSpeed, s.cfg.MaxAngularSpeed)

	s.mu.Lock()
	s.linear = linear
	s.angular = angular
	s.mu.Unlock()

	log.Debug("sim drive", "linear", linear, "angular", angular)
	return nil
}

func (s *Sim) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.linear = 0
	s.angular = 0
	s.stops++
	s.mu.Unlock()
	return nil
}

// Last returns the most recent commanded velocities.
func (s *Sim) Last() (linear, angular float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linear, s.angular
}

// StopCount returns how many explicit stops were issued.
func (s *Sim) StopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

func (s *Sim) Close() error {
	return nil
}
