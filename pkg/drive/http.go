package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pibotics/go-chaser/internal/config"
)

// HTTPDaemon talks to a drive daemon on another host (or another process on
// the car) over plain HTTP. Commands are fire-and-forget JSON posts; the
// daemon owns the motor interlocks.
type HTTPDaemon struct {
	base   string
	cfg    config.DriveConfig
	client *http.Client
}

// NewHTTPDaemon returns an actuator posting to the daemon at addr
// (host:port).
func NewHTTPDaemon(addr string, cfg config.DriveConfig) *HTTPDaemon {
	return &HTTPDaemon{
		base: "http://" + addr,
		cfg:  cfg,
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

type driveRequest struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}

func (d *HTTPDaemon) Drive(ctx context.Context, linear, angular float64) error {
	req := driveRequest{
		Linear:  clamp(linear, -d.cfg.MaxLinearSpeed, d.cfg.MaxLinearSpeed),
		Angular: clamp(angular, -d.cfg.MaxAngularSpeed, d.cfg.MaxAngularSpeed),
	}
	return d.post(ctx, "/api/drive", req)
}

func (d *HTTPDaemon) Stop(ctx context.Context) error {
	return d.post(ctx, "/api/stop", nil)
}

func (d *HTTPDaemon) Close() error {
	return nil
}

func (d *HTTPDaemon) post(ctx context.Context, path string, body any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.base+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post %s: daemon returned %d", path, resp.StatusCode)
	}
	return nil
}
