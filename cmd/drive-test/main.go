// Command drive-test exercises an actuator without the control stack: drive
// a square of motions and stop. Useful when bringing up a new car.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/pibotics/go-chaser/internal/config"
	"github.com/pibotics/go-chaser/internal/log"
	"github.com/pibotics/go-chaser/pkg/drive"
)

func main() {
	var (
		configPath = pflag.String("config", "", "path to chaser.yaml")
		backend    = pflag.String("drive", "sim", "drive backend: sim, vesc, or daemon")
		speed      = pflag.Float64("speed", 0.2, "linear test speed in m/s")
		hold       = pflag.Duration("hold", time.Second, "how long to hold each motion")
	)
	pflag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "drive-test: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Drive.Backend = *backend
	log.Init(cfg.LogLevel)

	actuator, err := drive.New(cfg)
	if err != nil {
		log.Error("failed to open drive backend", "err", err)
		os.Exit(1)
	}
	defer actuator.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	motions := []struct {
		name            string
		linear, angular float64
	}{
		{"forward", *speed, 0},
		{"reverse", -*speed, 0},
		{"spin left", 0, 0.5},
		{"spin right", 0, -0.5},
	}

	for _, m := range motions {
		log.Info("drive-test", "motion", m.name, "linear", m.linear, "angular", m.angular)
		if err := actuator.Drive(ctx, m.linear, m.angular); err != nil {
			log.Error("drive failed", "motion", m.name, "err", err)
			break
		}
		select {
		case <-ctx.Done():
			log.Info("interrupted")
			actuator.Stop(context.Background())
			return
		case <-time.After(*hold):
		}
	}

	if err := actuator.Stop(ctx); err != nil {
		log.Error("stop failed", "err", err)
		os.Exit(1)
	}
	log.Info("drive-test complete")
}
