package perception

import (
	"sync"

	"github.com/pibotics/go-chaser/pkg/depthmap"
)

// Static is a Source fed by hand instead of a camera. Used by the simulator
// backend and for bench runs without hardware attached.
type Static struct {
	Width  int
	Height int

	mu    sync.RWMutex
	obs   Observation
	depth *depthmap.Frame
}

// NewStatic returns a Static source reporting the given image size with no
// person and no depth.
func NewStatic(width, height int) *Static {
	return &Static{Width: width, Height: height}
}

// SetObservation installs the observation returned by TryObservation.
func (s *Static) SetObservation(obs Observation) {
	s.mu.Lock()
	s.obs = obs
	s.mu.Unlock()
}

// SetDepth installs the frame returned by TryDepth. Nil clears it.
func (s *Static) SetDepth(f *depthmap.Frame) {
	s.mu.Lock()
	s.depth = f
	s.mu.Unlock()
}

func (s *Static) TryObservation() Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.obs
}

func (s *Static) TryDepth() *depthmap.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.depth
}

func (s *Static) ImageSize() (int, int) {
	return s.Width, s.Height
}

func (s *Static) Close() error {
	return nil
}
