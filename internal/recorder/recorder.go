// Package recorder drives clip recording: it fixes the entity set when a
// recording starts and samples it once per fixed tick.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ghostreplay/rewind/internal/clip"
	"github.com/ghostreplay/rewind/internal/config"
	"github.com/ghostreplay/rewind/internal/entity"
	"github.com/ghostreplay/rewind/internal/telemetry"
)

// Session outcomes reported to metrics and telemetry.
const (
	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
	OutcomeReset     = "reset"
)

// ErrAborted wraps the error that ended a recording early.
var ErrAborted = errors.New("recording aborted")

// Scene supplies the recordable entities currently in the world.
type Scene interface {
	Recordables() []*entity.RecordableEntity
}

// Dependencies holds everything the recorder needs.
type Dependencies struct {
	Scene  Scene
	Config config.RecordingConfig
	Logger *slog.Logger
	Sink   telemetry.Sink
}

// System owns the recording lifecycle and the last completed clip.
type System struct {
	scene  Scene
	cfg    config.RecordingConfig
	logger *slog.Logger
	sink   telemetry.Sink
	m      *metrics

	entities  []*entity.RecordableEntity
	builder   *clip.Builder
	startedAt time.Time

	lastClip      *clip.Clip
	framesSampled int
}

// New creates an idle recorder.
func New(deps Dependencies) (*System, error) {
	if deps.Scene == nil {
		return nil, errors.New("recorder: scene is required")
	}
	if deps.Config.FixedDelta <= 0 {
		return nil, fmt.Errorf("recorder: %w: %s", clip.ErrInvalidSampleInterval, deps.Config.FixedDelta)
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	s := &System{
		scene:  deps.Scene,
		cfg:    deps.Config,
		logger: deps.Logger,
		sink:   deps.Sink,
		m:      m,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.sink == nil {
		s.sink = telemetry.Nop{}
	}
	return s, nil
}

// IsRecording reports whether a builder is active.
func (s *System) IsRecording() bool { return s.builder != nil }

// LastClip is the most recently completed clip, or nil.
func (s *System) LastClip() *clip.Clip { return s.lastClip }

// FramesSampled counts frames added to the active recording.
func (s *System) FramesSampled() int { return s.framesSampled }

// SampleInterval is the interval new recordings are sampled at.
func (s *System) SampleInterval() time.Duration { return s.cfg.FixedDelta }

// StartRecording fixes the set of enabled entities and begins sampling.
// A no-op while already recording.
func (s *System) StartRecording() {
	if s.IsRecording() {
		return
	}

	var entities []*entity.RecordableEntity
	for _, e := range s.scene.Recordables() {
		if e.Enabled() {
			entities = append(entities, e)
		}
	}
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID()
	}

	b, err := clip.NewBuilder(s.cfg.FixedDelta, ids)
	if err != nil {
		// interval is validated in New
		s.logger.Error("cannot start recording", "error", err)
		return
	}

	s.entities = entities
	s.builder = b
	s.framesSampled = 0
	s.startedAt = time.Now()
	s.logger.Info("recording started", "entities", len(entities), "sampleInterval", s.cfg.FixedDelta)
}

// FixedUpdate samples one frame when sampling on the fixed tick.
func (s *System) FixedUpdate(ctx context.Context) error {
	if !s.cfg.SampleInFixedUpdate {
		return nil
	}
	return s.Sample(ctx)
}

// Sample adds one frame of the fixed entity set to the active recording.
// An entity set that no longer matches aborts the recording; the previous
// LastClip is kept.
func (s *System) Sample(ctx context.Context) error {
	if !s.IsRecording() {
		return nil
	}

	if err := s.builder.AddFrame(s.entities); err != nil {
		frames, elapsed := s.builder.FrameCount(), s.elapsed()
		s.discard()
		s.logger.Error("recording aborted", "error", err, "frames", frames)
		s.finish(ctx, OutcomeAborted, frames, 0, elapsed)
		return fmt.Errorf("%w: %w", ErrAborted, err)
	}

	s.framesSampled++
	s.m.framesSampled.Add(ctx, 1)
	return nil
}

// StopRecording freezes the active recording into LastClip. A no-op when idle.
func (s *System) StopRecording() {
	if !s.IsRecording() {
		return
	}
	ctx := context.Background()

	c, err := s.builder.Build()
	entities, elapsed := len(s.entities), s.elapsed()
	s.discard()
	if err != nil {
		s.logger.Error("recording could not be built", "error", err)
		s.finish(ctx, OutcomeAborted, 0, entities, elapsed)
		return
	}

	s.lastClip = c
	s.logger.Info("recording stopped",
		"frames", c.FrameCount(),
		"entities", c.EntityCount(),
		"duration", c.Duration(),
	)
	s.finish(ctx, OutcomeCompleted, c.FrameCount(), c.EntityCount(), elapsed)
}

// ResetRecording drops the active recording and LastClip without output.
func (s *System) ResetRecording() {
	hadWork := s.IsRecording() || s.lastClip != nil
	frames, elapsed := 0, s.elapsed()
	if s.builder != nil {
		frames = s.builder.FrameCount()
	}

	s.discard()
	s.lastClip = nil
	s.framesSampled = 0

	if hadWork {
		s.logger.Info("recording reset")
		s.finish(context.Background(), OutcomeReset, frames, 0, elapsed)
	}
}

func (s *System) discard() {
	s.builder = nil
	s.entities = nil
}

// elapsed is the wall time of the active recording.
func (s *System) elapsed() time.Duration {
	if !s.IsRecording() {
		return 0
	}
	return time.Since(s.startedAt)
}

func (s *System) finish(ctx context.Context, outcome string, frames, entities int, elapsed time.Duration) {
	s.m.sessions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	err := s.sink.WriteSession(ctx, telemetry.Session{
		Kind:     telemetry.KindRecording,
		Outcome:  outcome,
		Frames:   frames,
		Entities: entities,
		Duration: elapsed,
		Time:     time.Now(),
	})
	if err != nil {
		s.logger.Warn("session summary not written", "error", err)
	}
}
