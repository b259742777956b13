// Command detect-test runs the person detector against the live camera and
// prints what it sees, without moving anything.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/pibotics/go-chaser/internal/config"
	"github.com/pibotics/go-chaser/internal/log"
	"github.com/pibotics/go-chaser/pkg/perception"
)

func main() {
	var (
		device   = pflag.Int("device", 0, "camera device ID")
		model    = pflag.String("model", "", "ONNX model path (empty uses the config default)")
		interval = pflag.Duration("interval", 200*time.Millisecond, "print interval")
	)
	pflag.Parse()

	cfg := config.Default()
	cfg.Camera.DeviceID = *device
	if *model != "" {
		cfg.Camera.ModelPath = *model
	}
	log.Init(cfg.LogLevel)

	cam, err := perception.OpenCamera(perception.CameraConfig{
		DeviceID:         cfg.Camera.DeviceID,
		Width:            cfg.Camera.Width,
		Height:           cfg.Camera.Height,
		ModelPath:        cfg.Camera.ModelPath,
		ConfidenceThresh: cfg.Camera.ConfidenceThresh,
	})
	if err != nil {
		log.Error("failed to open camera", "err", err)
		os.Exit(1)
	}
	defer cam.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			obs := cam.TryObservation()
			if !obs.Found {
				log.Info("no person")
				continue
			}
			log.Info("person",
				"center_x", obs.BBox.CenterX(),
				"center_y", obs.BBox.CenterY(),
				"area_px", obs.BBox.Area())
		}
	}
}
