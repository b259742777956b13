// Package app runs the control loop: poll perception, step the state
// machine, actuate, publish telemetry. One cycle at a time, one goroutine.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pibotics/go-chaser/internal/config"
	"github.com/pibotics/go-chaser/internal/log"
	"github.com/pibotics/go-chaser/pkg/control"
	"github.com/pibotics/go-chaser/pkg/drive"
	"github.com/pibotics/go-chaser/pkg/perception"
	"github.com/pibotics/go-chaser/pkg/web"
)

// Loop owns the control cycle. Everything the core needs is polled at the
// top of the cycle; nothing blocks mid-cycle.
type Loop struct {
	cfg        config.Config
	source     perception.Source
	actuator   drive.Actuator
	controller *control.Controller
	server     *web.Server // nil when running headless

	runID string
	ops   chan control.OperatorCommand
}

// New wires a loop together. server may be nil.
func New(cfg config.Config, source perception.Source, actuator drive.Actuator, server *web.Server) *Loop {
	imgW, imgH := source.ImageSize()
	return &Loop{
		cfg:        cfg,
		source:     source,
		actuator:   actuator,
		controller: control.NewController(cfg, imgW, imgH),
		server:     server,
		runID:      uuid.NewString(),
		ops:        make(chan control.OperatorCommand, 8),
	}
}

// RunID identifies this run in telemetry and logs.
func (l *Loop) RunID() string {
	return l.runID
}

// Stop queues an operator stop. Applied at the top of the next cycle, so the
// car halts within one tick.
func (l *Loop) Stop() {
	l.pushOp(control.OpStop)
}

// Reset queues an operator reset.
func (l *Loop) Reset() {
	l.pushOp(control.OpReset)
}

// Operator queues a named operator command, as received from the dashboard.
func (l *Loop) Operator(name string) error {
	switch name {
	case "stop":
		l.Stop()
	case "reset":
		l.Reset()
	default:
		return fmt.Errorf("unknown operator command %q", name)
	}
	return nil
}

// pushOp never blocks the caller. A full queue of stale commands must not
// swallow a stop: drain one slot and retry.
func (l *Loop) pushOp(op control.OperatorCommand) {
	for {
		select {
		case l.ops <- op:
			return
		default:
			select {
			case <-l.ops:
			default:
			}
		}
	}
}

// pollOp returns the next queued operator command, or OpNone.
func (l *Loop) pollOp() control.OperatorCommand {
	select {
	case op := <-l.ops:
		return op
	default:
		return control.OpNone
	}
}

// Run executes the control loop until ctx is cancelled. The motors are
// stopped on the way out regardless of why the loop ended.
func (l *Loop) Run(ctx context.Context) error {
	log.Info("control loop starting",
		"run_id", l.runID,
		"tick", l.cfg.Loop.TickRate,
		"drive", l.cfg.Drive.Backend)

	ticker := time.NewTicker(l.cfg.Loop.TickRate)
	defer ticker.Stop()

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.actuator.Stop(stopCtx); err != nil {
			log.Error("failed to stop motors on shutdown", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("control loop stopping", "run_id", l.runID)
			return ctx.Err()
		case <-ticker.C:
			if idle := l.cycle(ctx); idle && l.cfg.Loop.IdleSleep > 0 {
				time.Sleep(l.cfg.Loop.IdleSleep)
			}
		}
	}
}

// cycle runs one control cycle. Returns true when the source produced
// nothing, so the caller can back off.
func (l *Loop) cycle(ctx context.Context) (idle bool) {
	start := time.Now()

	op := l.pollOp()
	obs := l.source.TryObservation()
	depth := l.source.TryDepth()

	cmd := l.controller.Step(obs, depth, op)

	if err := l.actuator.Drive(ctx, cmd.Linear, cmd.Angular); err != nil {
		// Keep cycling. The next command supersedes this one; a dead
		// actuator is the actuator's problem to report, not a reason
		// to stop deciding.
		log.Error("drive command failed", "err", err)
	}

	l.publish(obs, cmd, time.Since(start))
	return !obs.Found && depth == nil
}

// publish pushes the cycle snapshot to the dashboard.
func (l *Loop) publish(obs perception.Observation, cmd control.Command, elapsed time.Duration) {
	if l.server == nil {
		return
	}

	verdict := l.controller.LastVerdict()
	st := web.Status{
		RunID:         l.runID,
		State:         l.controller.State().String(),
		AvoidPhase:    l.controller.AvoidPhase().String(),
		Linear:        cmd.Linear,
		Angular:       cmd.Angular,
		PersonFound:   obs.Found,
		Distance:      obs.Distance,
		ObstacleAhead: verdict.ObstacleAhead,
		FrontDepth:    verdict.FrontDepth,
		CycleMicros:   elapsed.Microseconds(),
	}
	l.server.UpdateStatus(st)
}
