package perception

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/pibotics/go-chaser/internal/log"
	"github.com/pibotics/go-chaser/pkg/depthmap"
	"github.com/pibotics/go-chaser/pkg/perception/detection"
)

// CameraConfig holds the camera source settings.
type CameraConfig struct {
	DeviceID         int
	Width            int
	Height           int
	ModelPath        string
	ConfidenceThresh float64
}

// Reconnect backoff bounds for the capture loop.
const (
	reconnectInitialDelay = 500 * time.Millisecond
	reconnectMaxDelay     = 8 * time.Second
)

// Camera is a webcam-backed Source. Frames are captured on a dedicated
// goroutine and run through the person detector; the control loop only ever
// reads the latest observation (dropped frames are fine, stale data is fine).
//
// Device failures are handled here with exponential-backoff reopens; the
// control core just sees "person not found" while the camera is down.
// This backend has no depth capability, so TryDepth always returns nil and
// the core degrades to person-following without obstacle avoidance.
type Camera struct {
	cfg      CameraConfig
	detector detection.Detector

	mu     sync.RWMutex
	latest Observation

	stop chan struct{}
	done chan struct{}
}

// OpenCamera opens the device and starts the capture loop. Detector choice:
// YOLO when the configured model file exists, otherwise the HOG fallback.
func OpenCamera(cfg CameraConfig) (*Camera, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid camera size %dx%d", cfg.Width, cfg.Height)
	}

	var det detection.Detector
	if _, err := os.Stat(cfg.ModelPath); err == nil {
		yolo, err := detection.NewYOLO(detection.Config{
			ModelPath:        cfg.ModelPath,
			ConfidenceThresh: cfg.ConfidenceThresh,
			InputWidth:       640,
			InputHeight:      640,
		})
		if err != nil {
			return nil, fmt.Errorf("init YOLO detector: %w", err)
		}
		det = yolo
		log.Info("camera: using YOLO person detector", "model", cfg.ModelPath)
	} else {
		hog, err := detection.NewHOG()
		if err != nil {
			return nil, fmt.Errorf("init HOG detector: %w", err)
		}
		det = hog
		log.Warn("camera: model not found, falling back to HOG pedestrian detector", "model", cfg.ModelPath)
	}

	c := &Camera{
		cfg:      cfg,
		detector: det,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.captureLoop()
	return c, nil
}

// TryObservation returns the most recent observation, which may be stale.
func (c *Camera) TryObservation() Observation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

// TryDepth always returns nil: webcams carry no depth sensor.
func (c *Camera) TryDepth() *depthmap.Frame {
	return nil
}

// ImageSize returns the configured capture dimensions.
func (c *Camera) ImageSize() (int, int) {
	return c.cfg.Width, c.cfg.Height
}

// Close stops the capture loop and releases the detector.
func (c *Camera) Close() error {
	close(c.stop)
	<-c.done
	return c.detector.Close()
}

// captureLoop owns the VideoCapture handle for its whole lifetime. On any
// read failure the device is closed and reopened with exponential backoff.
func (c *Camera) captureLoop() {
	defer close(c.done)

	delay := reconnectInitialDelay
	for {
		select {
		case <-c.stop:
			return
		default:
		}

		cap, err := gocv.OpenVideoCapture(c.cfg.DeviceID)
		if err != nil {
			c.publish(Observation{})
			log.Warn("camera: open failed, retrying", "device", c.cfg.DeviceID, "delay", delay, "err", err)
			if !c.sleep(delay) {
				return
			}
			delay = nextDelay(delay)
			continue
		}

		cap.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
		cap.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
		delay = reconnectInitialDelay

		c.readFrames(cap)
		cap.Close()
	}
}

// readFrames pulls frames until the device fails or Close is called.
func (c *Camera) readFrames(cap *gocv.VideoCapture) {
	img := gocv.NewMat()
	defer img.Close()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		if ok := cap.Read(&img); !ok || img.Empty() {
			c.publish(Observation{})
			log.Warn("camera: read failed, reopening device")
			return
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
		if err != nil {
			continue
		}
		obs := c.detect(buf.GetBytes())
		buf.Close()

		c.publish(obs)
	}
}

// detect runs the person detector over one JPEG frame.
func (c *Camera) detect(jpeg []byte) Observation {
	dets, err := c.detector.Detect(jpeg)
	if err != nil {
		log.Debug("camera: detection error", "err", err)
		return Observation{}
	}

	best := detection.SelectBest(dets)
	if best == nil {
		return Observation{}
	}

	bbox := BBox{
		XMin: int(best.X * float64(c.cfg.Width)),
		YMin: int(best.Y * float64(c.cfg.Height)),
		XMax: int((best.X + best.W) * float64(c.cfg.Width)),
		YMax: int((best.Y + best.H) * float64(c.cfg.Height)),
	}
	if err := bbox.Validate(); err != nil {
		log.Warn("camera: dropping detection", "err", err)
		return Observation{}
	}

	return Observation{Found: true, BBox: &bbox}
}

// publish installs the latest observation (latest wins, no queueing).
func (c *Camera) publish(obs Observation) {
	c.mu.Lock()
	c.latest = obs
	c.mu.Unlock()
}

// sleep waits for d or until Close, reporting whether to keep running.
func (c *Camera) sleep(d time.Duration) bool {
	select {
	case <-c.stop:
		return false
	case <-time.After(d):
		return true
	}
}

func nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > reconnectMaxDelay {
		return reconnectMaxDelay
	}
	return d
}
