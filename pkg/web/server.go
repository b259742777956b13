// Package web serves the dashboard: live status and logs over websocket,
// plus the operator stop/reset endpoint.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/pibotics/go-chaser/internal/log"
	"github.com/pibotics/go-chaser/pkg/hub"
)

// Status is the dashboard snapshot, broadcast after every control cycle.
type Status struct {
	RunID         string   `json:"run_id"`
	State         string   `json:"state"`
	AvoidPhase    string   `json:"avoid_phase"`
	Linear        float64  `json:"linear"`
	Angular       float64  `json:"angular"`
	PersonFound   bool     `json:"person_found"`
	Distance      *float64 `json:"distance,omitempty"`
	ObstacleAhead bool     `json:"obstacle_ahead"`
	FrontDepth    *float64 `json:"front_depth,omitempty"`
	CycleMicros   int64    `json:"cycle_micros"`
}

// LogEntry is one dashboard log line.
type LogEntry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

const logBufferSize = 500

// Server is the dashboard HTTP/websocket server.
type Server struct {
	app  *fiber.App
	port string

	status   Status
	statusMu sync.RWMutex

	logs   []LogEntry
	logsMu sync.RWMutex

	statusHub *hub.Hub
	logHub    *hub.Hub

	// OnCommand receives operator commands ("stop" or "reset"). Set
	// before Start.
	OnCommand func(name string) error
}

// NewServer builds the dashboard server on the given port.
func NewServer(port string) *Server {
	s := &Server{
		port:      port,
		logs:      make([]LogEntry, 0, logBufferSize),
		statusHub: hub.New("status"),
		logHub:    hub.New("logs"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "chaser dashboard",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())
	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleLogs)
	api.Post("/command", s.handleCommand)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))

	s.app = app
	return s
}

// StartAsync serves in the background. Listen errors are fatal to the
// dashboard only, never to the control loop.
func (s *Server) StartAsync() {
	go s.statusHub.Run()
	go s.logHub.Run()
	go func() {
		log.Info("dashboard listening", "port", s.port)
		if err := s.app.Listen(":" + s.port); err != nil {
			log.Error("dashboard server stopped", "err", err)
		}
	}()
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// UpdateStatus installs and broadcasts a new snapshot.
func (s *Server) UpdateStatus(st Status) {
	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()

	s.statusHub.BroadcastJSON(st)
}

// AddLog appends a dashboard log line and broadcasts it.
func (s *Server) AddLog(level, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Level:   level,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > logBufferSize {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}
