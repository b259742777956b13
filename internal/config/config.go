// Package config provides configuration loading for go-chaser commands.
// Defaults match the tuning the car ships with; a YAML file overrides them.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FollowerConfig holds person-following control gains and thresholds.
type FollowerConfig struct {
	TargetDistance    float64 `yaml:"target_distance"`    // meters
	MaxLinearSpeed    float64 `yaml:"max_linear_speed"`   // m/s
	MaxAngularSpeed   float64 `yaml:"max_angular_speed"`  // rad/s
	KAngle            float64 `yaml:"k_angle"`            // fraction of max turn rate per unit normalized error
	KLinear           float64 `yaml:"k_linear"`           // m/s per meter of distance error
	AngleThreshold    float64 `yaml:"angle_threshold"`    // normalized error below which we are aligned
	DistanceThreshold float64 `yaml:"distance_threshold"` // meters
	AreaThreshold     float64 `yaml:"area_threshold"`     // bbox area ratio treated as "close" when depth is absent
	ApproachFraction  float64 `yaml:"approach_fraction"`  // fraction of max linear speed used by the area fallback
}

// SearchConfig holds the search-rotation tuning.
type SearchConfig struct {
	AngularSpeed float64 `yaml:"angular_speed"` // rad/s
}

// AvoiderConfig holds the obstacle-avoidance sequencer timing.
type AvoiderConfig struct {
	ScanDuration     time.Duration `yaml:"scan_duration"`
	TurnDuration     time.Duration `yaml:"turn_duration"`
	TurnAngularSpeed float64       `yaml:"turn_angular_speed"` // rad/s
}

// ObstacleConfig holds depth-based obstacle detection parameters.
type ObstacleConfig struct {
	FrontRegionRatio float64 `yaml:"front_region_ratio"`
	DepthThreshold   float64 `yaml:"depth_threshold"` // meters
	MinDepthMM       uint16  `yaml:"min_depth_mm"`
	MaxDepthMM       uint16  `yaml:"max_depth_mm"`
	Method           string  `yaml:"method"` // "median" or "percentile_10"
}

// DriveConfig selects and tunes the actuation backend.
type DriveConfig struct {
	Backend         string  `yaml:"backend"` // "sim", "vesc", or "daemon"
	SerialPort      string  `yaml:"serial_port"`
	BaudRate        int     `yaml:"baud_rate"`
	Wheelbase       float64 `yaml:"wheelbase"`         // meters
	MaxLinearSpeed  float64 `yaml:"max_linear_speed"`  // m/s, actuator-side clamp
	MaxAngularSpeed float64 `yaml:"max_angular_speed"` // rad/s, actuator-side clamp
	DaemonAddr      string  `yaml:"daemon_addr"`
}

// CameraConfig holds the perception backend settings.
type CameraConfig struct {
	DeviceID         int     `yaml:"device_id"`
	Width            int     `yaml:"width"`
	Height           int     `yaml:"height"`
	ModelPath        string  `yaml:"model_path"`
	ConfidenceThresh float64 `yaml:"confidence_thresh"`
}

// WebConfig holds the dashboard server settings.
type WebConfig struct {
	Port string `yaml:"port"`
}

// LoopConfig holds the control loop timing.
type LoopConfig struct {
	TickRate  time.Duration `yaml:"tick_rate"`
	IdleSleep time.Duration `yaml:"idle_sleep"` // sleep when no fresh frame is available
}

// Config is the top-level structure for chaser.yaml.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Follower FollowerConfig `yaml:"follower"`
	Search   SearchConfig   `yaml:"search"`
	Avoider  AvoiderConfig  `yaml:"avoider"`
	Obstacle ObstacleConfig `yaml:"obstacle"`
	Drive    DriveConfig    `yaml:"drive"`
	Camera   CameraConfig   `yaml:"camera"`
	Web      WebConfig      `yaml:"web"`
	Loop     LoopConfig     `yaml:"loop"`
}

// Default returns the configuration the car ships with.
func Default() Config {
	return Config{
		LogLevel: "info",
		Follower: FollowerConfig{
			TargetDistance:    1.0,
			MaxLinearSpeed:    0.5,
			MaxAngularSpeed:   1.0,
			KAngle:            1.0,
			KLinear:           0.5,
			AngleThreshold:    0.1,
			DistanceThreshold: 0.2,
			AreaThreshold:     0.15,
			ApproachFraction:  0.3,
		},
		Search: SearchConfig{
			AngularSpeed: 0.3,
		},
		Avoider: AvoiderConfig{
			ScanDuration:     500 * time.Millisecond,
			TurnDuration:     time.Second,
			TurnAngularSpeed: 0.5,
		},
		Obstacle: ObstacleConfig{
			FrontRegionRatio: 0.3,
			DepthThreshold:   0.5,
			MinDepthMM:       100,
			MaxDepthMM:       6000,
			Method:           "median",
		},
		Drive: DriveConfig{
			Backend:         "sim",
			BaudRate:        115200,
			Wheelbase:       0.25,
			MaxLinearSpeed:  1.0,
			MaxAngularSpeed: 2.0,
			DaemonAddr:      "127.0.0.1:8000",
		},
		Camera: CameraConfig{
			DeviceID:         0,
			Width:            640,
			Height:           480,
			ModelPath:        "models/yolov8n.onnx",
			ConfidenceThresh: 0.5,
		},
		Web: WebConfig{
			Port: "8090",
		},
		Loop: LoopConfig{
			TickRate:  50 * time.Millisecond,
			IdleSleep: 10 * time.Millisecond,
		},
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// DaemonAddr returns the drive daemon address, preferring the
// CHASER_DAEMON environment variable over the configured value.
func (c Config) DaemonAddr() string {
	if addr := os.Getenv("CHASER_DAEMON"); addr != "" {
		return addr
	}
	return c.Drive.DaemonAddr
}
