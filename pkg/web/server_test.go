package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postCommand(t *testing.T, s *Server, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestCommandDispatch(t *testing.T) {
	s := NewServer("0")

	var received []string
	s.OnCommand = func(name string) error {
		received = append(received, name)
		return nil
	}

	resp := postCommand(t, s, `{"command":"stop"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postCommand(t, s, `{"command":"reset"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"stop", "reset"}, received)
}

func TestCommandRejectsUnknown(t *testing.T) {
	s := NewServer("0")
	called := false
	s.OnCommand = func(string) error {
		called = true
		return nil
	}

	resp := postCommand(t, s, `{"command":"dance"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postCommand(t, s, `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.False(t, called, "rejected commands must never reach the handler")
}

func TestCommandWithoutHandler(t *testing.T) {
	s := NewServer("0")

	resp := postCommand(t, s, `{"command":"stop"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCommandHandlerError(t *testing.T) {
	s := NewServer("0")
	s.OnCommand = func(string) error { return fmt.Errorf("loop not running") }

	resp := postCommand(t, s, `{"command":"stop"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	s := NewServer("0")
	dist := 1.2
	s.UpdateStatus(Status{
		RunID:       "run-1",
		State:       "APPROACH",
		Linear:      0.25,
		PersonFound: true,
		Distance:    &dist,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "APPROACH", got.State)
	require.NotNil(t, got.Distance)
	assert.Equal(t, 1.2, *got.Distance)
}

func TestLogBufferBounded(t *testing.T) {
	s := NewServer("0")
	for i := 0; i < logBufferSize+50; i++ {
		s.AddLog("info", fmt.Sprintf("line %d", i))
	}

	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	assert.Len(t, s.logs, logBufferSize)
	assert.Equal(t, "line 50", s.logs[0].Message)
}
