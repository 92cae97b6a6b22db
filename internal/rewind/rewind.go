// Package rewind coordinates one recorder and one playback system on a
// shared fixed tick and exposes them as dispatcher commands.
package rewind

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ghostreplay/rewind/internal/config"
	"github.com/ghostreplay/rewind/internal/playback"
	"github.com/ghostreplay/rewind/internal/recorder"
)

var (
	// ErrBusy is returned when exclusive sessions forbid the request.
	ErrBusy = errors.New("another session is active")
	// ErrNoClip is returned when there is nothing to replay.
	ErrNoClip = errors.New("no recorded clip")
)

// Mode is the coordinator's toggle state.
type Mode int32

const (
	ModeNormal Mode = iota
	ModeRewind
)

func (m Mode) String() string {
	if m == ModeRewind {
		return "rewind"
	}
	return "normal"
}

// Dependencies holds everything the controller needs.
type Dependencies struct {
	Recorder *recorder.System
	Playback *playback.System
	Config   config.RewindConfig
	Logger   *slog.Logger
}

// Controller serializes access to the recorder and playback systems. All
// session methods are safe to call from any goroutine; FixedUpdate must be
// driven from the simulation loop.
type Controller struct {
	mu       sync.Mutex
	rec      *recorder.System
	play     *playback.System
	cfg      config.RewindConfig
	logger   *slog.Logger
	mode     Mode
	deferred Drainer

	// mirrored outside mu so log handlers can read them mid-operation
	recording atomic.Bool
	playing   atomic.Bool
	modeFlag  atomic.Int32
}

// New creates a controller in normal mode.
func New(deps Dependencies) (*Controller, error) {
	if deps.Recorder == nil || deps.Playback == nil {
		return nil, errors.New("rewind: recorder and playback are required")
	}
	c := &Controller{
		rec:    deps.Recorder,
		play:   deps.Playback,
		cfg:    deps.Config,
		logger: deps.Logger,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// FixedUpdate runs one fixed tick: deferred commands first, then the
// recorder samples the tick, then playback advances. A recording aborted
// during the tick is reported as the returned error.
func (c *Controller) FixedUpdate(ctx context.Context, dt time.Duration) error {
	c.mu.Lock()
	deferred := c.deferred
	c.mu.Unlock()
	if deferred != nil {
		deferred.Drain(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.sync()

	err := c.rec.FixedUpdate(ctx)
	c.play.FixedUpdate(ctx, dt)

	if c.mode == ModeRewind && !c.play.IsPlaying() {
		c.logger.Info("rewind finished")
		c.resume()
	}
	return err
}

// StartRecording begins a recording. With exclusive sessions it is refused
// while playback runs.
func (c *Controller) StartRecording() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.sync()

	if c.cfg.ExclusiveSessions && c.play.IsPlaying() {
		return ErrBusy
	}
	c.rec.StartRecording()
	return nil
}

// StopRecording finalizes the active recording into the last clip.
func (c *Controller) StopRecording() {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.sync()

	c.rec.StopRecording()
}

// ResetRecording drops the active recording and the last clip.
func (c *Controller) ResetRecording() {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.sync()

	c.rec.ResetRecording()
}

// PlayLastClip replays the last completed clip. With exclusive sessions an
// active recording is stopped first, so the clip just captured is the one
// played.
func (c *Controller) PlayLastClip(opts ...playback.PlayOption) error {
	_, span := tracer().Start(context.Background(), "rewind.play_last")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.sync()

	err := c.playLast(opts...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("targets", c.play.TargetCount()))
	}
	return err
}

// StopPlayback restores everything playback took over.
func (c *Controller) StopPlayback() {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.sync()

	c.play.StopPlayback()
}

// Toggle flips between normal play and rewind. Entering rewind stops the
// recording and replays it after the toggle hold; leaving it stops playback
// and starts a fresh recording. When there is nothing to replay the
// controller stays in normal mode and keeps recording.
func (c *Controller) Toggle() Mode {
	_, span := tracer().Start(context.Background(), "rewind.toggle")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.sync()

	span.SetAttributes(attribute.String("from", c.mode.String()))
	defer func() { span.SetAttributes(attribute.String("to", c.mode.String())) }()

	if c.mode == ModeRewind {
		c.play.StopPlayback()
		c.resume()
		return c.mode
	}

	c.rec.StopRecording()
	if err := c.playLast(playback.WithHold(c.cfg.ToggleHold)); err != nil {
		span.RecordError(err)
		c.logger.Warn("nothing to rewind", "error", err)
		c.rec.StartRecording()
		return c.mode
	}
	c.mode = ModeRewind
	c.logger.Info("rewind started", "hold", c.cfg.ToggleHold, "frames", c.rec.LastClip().FrameCount())
	return c.mode
}

// Mode is the current toggle state.
func (c *Controller) Mode() Mode {
	return Mode(c.modeFlag.Load())
}

// LogContext returns the session attributes injected into every log record.
func (c *Controller) LogContext() []slog.Attr {
	return []slog.Attr{
		slog.Bool("recording", c.recording.Load()),
		slog.Bool("playing", c.playing.Load()),
		slog.String("mode", Mode(c.modeFlag.Load()).String()),
	}
}

// Snapshot is a point-in-time view of both systems.
type Snapshot struct {
	Mode          string       `json:"mode"`
	Recording     bool         `json:"recording"`
	FramesSampled int          `json:"framesSampled"`
	LastClip      *ClipSummary `json:"lastClip,omitempty"`
	Playing       bool         `json:"playing"`
	Holding       bool         `json:"holding"`
	FrameIndex    int          `json:"frameIndex"`
	TargetCount   int          `json:"targetCount"`
}

// ClipSummary describes a clip without its frame data.
type ClipSummary struct {
	Frames     int   `json:"frames"`
	Entities   int   `json:"entities"`
	DurationMs int64 `json:"durationMs"`
}

// Snapshot reads both systems under the controller lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Mode:          c.mode.String(),
		Recording:     c.rec.IsRecording(),
		FramesSampled: c.rec.FramesSampled(),
		Playing:       c.play.IsPlaying(),
		Holding:       c.play.IsHolding(),
		FrameIndex:    c.play.FrameIndex(),
		TargetCount:   c.play.TargetCount(),
	}
	if lc := c.rec.LastClip(); lc != nil {
		s.LastClip = &ClipSummary{
			Frames:     lc.FrameCount(),
			Entities:   lc.EntityCount(),
			DurationMs: lc.Duration().Milliseconds(),
		}
	}
	return s
}

func (c *Controller) playLast(opts ...playback.PlayOption) error {
	if c.cfg.ExclusiveSessions && c.rec.IsRecording() {
		c.rec.StopRecording()
	}
	if lc := c.rec.LastClip(); lc == nil || lc.FrameCount() == 0 {
		return ErrNoClip
	}
	c.play.Play(c.rec.LastClip(), opts...)
	if !c.play.IsPlaying() {
		return playback.ErrNoTargets
	}
	return nil
}

// resume leaves rewind mode with a fresh recording.
func (c *Controller) resume() {
	c.rec.ResetRecording()
	c.rec.StartRecording()
	c.mode = ModeNormal
}

func (c *Controller) sync() {
	c.recording.Store(c.rec.IsRecording())
	c.playing.Store(c.play.IsPlaying())
	c.modeFlag.Store(int32(c.mode))
}
