package web

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/pibotics/go-chaser/pkg/hub"
)

func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return c.JSON(s.status)
}

func (s *Server) handleLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

type commandRequest struct {
	Command string `json:"command"`
}

// handleCommand accepts {"command": "stop"} and {"command": "reset"}.
func (s *Server) handleCommand(c *fiber.Ctx) error {
	var req commandRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	switch req.Command {
	case "stop", "reset":
	default:
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("unknown command %q", req.Command))
	}

	if s.OnCommand == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no command handler")
	}
	if err := s.OnCommand(req.Command); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"ok": true, "command": req.Command})
}

func (s *Server) handleStatusWS(c *websocket.Conn) {
	hub.NewClient(s.statusHub, c).Run()
}

func (s *Server) handleLogsWS(c *websocket.Conn) {
	hub.NewClient(s.logHub, c).Run()
}
