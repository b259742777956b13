// Command chaser runs the person-chasing car: camera in, motors out, with a
// live dashboard on the side.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/pibotics/go-chaser/internal/config"
	"github.com/pibotics/go-chaser/internal/log"
	"github.com/pibotics/go-chaser/pkg/app"
	"github.com/pibotics/go-chaser/pkg/drive"
	"github.com/pibotics/go-chaser/pkg/perception"
	"github.com/pibotics/go-chaser/pkg/web"
)

func main() {
	var (
		configPath = pflag.String("config", "", "path to chaser.yaml (defaults apply when empty)")
		backend    = pflag.String("drive", "", "override drive backend: sim, vesc, or daemon")
		port       = pflag.String("port", "", "override dashboard port")
		headless   = pflag.Bool("headless", false, "run without the dashboard")
		noCamera   = pflag.Bool("no-camera", false, "run without a camera (bench mode)")
	)
	pflag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Init("info")
			log.Error("failed to load config", "path", *configPath, "err", err)
			os.Exit(1)
		}
	}
	if *backend != "" {
		cfg.Drive.Backend = *backend
	}
	if *port != "" {
		cfg.Web.Port = *port
	}

	log.Init(cfg.LogLevel)

	var source perception.Source
	if *noCamera {
		source = perception.NewStatic(cfg.Camera.Width, cfg.Camera.Height)
		log.Warn("running without a camera; the car will search forever")
	} else {
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
		source = cam
	}
	defer source.Close()

	actuator, err := drive.New(cfg)
	if err != nil {
		log.Error("failed to open drive backend", "backend", cfg.Drive.Backend, "err", err)
		os.Exit(1)
	}
	defer actuator.Close()

	var server *web.Server
	if !*headless {
		server = web.NewServer(cfg.Web.Port)
	}

	loop := app.New(cfg, source, actuator, server)

	if server != nil {
		server.OnCommand = loop.Operator
		server.StartAsync()
		defer server.Shutdown()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("control loop failed", "err", err)
		os.Exit(1)
	}
}
