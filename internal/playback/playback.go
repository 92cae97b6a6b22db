// Package playback replays a recorded clip onto the live scene. Exclusive
// actors are driven through ghost duplicates, shared ones are borrowed in
// place, and everything is handed back when playback stops.
package playback

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
	"github.com/ghostreplay/rewind/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// Session outcomes reported to metrics and telemetry.
const (
	OutcomeFinished = "finished"
	OutcomeStopped  = "stopped"
	OutcomeEmpty    = "empty"
)

// ErrNoTargets reports a clip none of whose entities could be bound.
var ErrNoTargets = errors.New("no playback targets bound")

// Scene is what playback needs from the world.
type Scene interface {
	Recordables() []*entity.RecordableEntity
	Instantiate(src core.Actor) (core.Actor, error)
	Destroy(a core.Actor)
	IgnoreCollision(a, b core.Actor)
}

// ClipSource provides the clip PlayLastClip replays.
type ClipSource interface {
	LastClip() *clip.Clip
}

// Dependencies holds everything the playback system needs.
type Dependencies struct {
	Scene  Scene
	Source ClipSource
	Config config.PlaybackConfig
	Logger *slog.Logger
	Sink   telemetry.Sink
}

// PlayOption adjusts a single Play call.
type PlayOption func(*playOptions)

type playOptions struct {
	hold time.Duration
}

// WithHold overrides the configured frame-0 hold.
func WithHold(d time.Duration) PlayOption {
	return func(o *playOptions) {
		o.hold = d
	}
}

// System owns the playback lifecycle.
type System struct {
	scene  Scene
	source ClipSource
	cfg    config.PlaybackConfig
	logger *slog.Logger
	sink   telemetry.Sink
	m      *metrics

	clip        *clip.Clip
	targets     []*target
	frame       int
	accumulator time.Duration
	hold        time.Duration
	startedAt   time.Time
	ghosts      int

	// bumped on every start and stop so an apply loop can tell it was
	// interrupted
	generation uint64
}

// New creates an idle playback system.
func New(deps Dependencies) (*System, error) {
	if deps.Scene == nil {
		return nil, errors.New("playback: scene is required")
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	s := &System{
		scene:  deps.Scene,
		source: deps.Source,
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

// IsPlaying reports whether a clip is bound.
func (s *System) IsPlaying() bool { return s.clip != nil }

// IsHolding reports whether playback is waiting on frame 0.
func (s *System) IsHolding() bool { return s.clip != nil && s.hold > 0 }

// FrameIndex is the frame currently applied.
func (s *System) FrameIndex() int { return s.frame }

// TargetCount is the number of bound targets.
func (s *System) TargetCount() int { return len(s.targets) }

// Clip returns the clip being played, or nil.
func (s *System) Clip() *clip.Clip { return s.clip }

// PlayLastClip plays the source's last completed clip, if any.
func (s *System) PlayLastClip(opts ...PlayOption) {
	if s.source == nil {
		return
	}
	s.Play(s.source.LastClip(), opts...)
}

// Play binds a clip to the scene and applies its first frame. A running
// playback is stopped and restored first. Nil clips are ignored; a clip
// with no frames, or none of whose entities can be bound, stops again
// immediately.
func (s *System) Play(c *clip.Clip, opts ...PlayOption) {
	if c == nil {
		return
	}
	s.StopPlayback()

	o := playOptions{hold: s.cfg.StartHold}
	for _, opt := range opts {
		opt(&o)
	}

	ctx := context.Background()
	s.generation++
	s.clip = c
	s.frame = 0
	s.accumulator = 0
	s.hold = o.hold
	s.ghosts = 0
	s.startedAt = time.Now()

	if c.FrameCount() == 0 {
		s.logger.Warn("clip has no frames", "entities", c.EntityCount())
		s.stop(ctx, OutcomeEmpty)
		return
	}

	s.bindTargets(ctx)
	if len(s.targets) == 0 {
		s.logger.Warn("no playback targets bound", "entities", c.EntityCount())
		s.stop(ctx, OutcomeEmpty)
		return
	}

	s.logger.Info("playback started",
		"frames", c.FrameCount(),
		"targets", len(s.targets),
		"ghosts", s.ghosts,
		"hold", o.hold,
	)
	s.applyFrame(ctx)
}

// StopPlayback restores every bound actor and clears all playback state.
// Safe to call at any time, any number of times.
func (s *System) StopPlayback() {
	if s.clip == nil && len(s.targets) == 0 {
		return
	}
	s.stop(context.Background(), OutcomeStopped)
}

// FixedUpdate advances playback by one fixed tick of dt.
func (s *System) FixedUpdate(ctx context.Context, dt time.Duration) {
	c := s.clip
	if c == nil {
		return
	}

	if s.hold > 0 {
		s.hold = max(s.hold-dt, 0)
		return
	}

	gen := s.generation
	s.accumulator += dt
	for s.accumulator >= c.SampleInterval() {
		s.accumulator -= c.SampleInterval()
		s.frame++
		if s.frame >= c.FrameCount() {
			s.stop(ctx, OutcomeFinished)
			return
		}
		s.applyFrame(ctx)
		if s.generation != gen {
			return
		}
	}
}

// bindTargets resolves every clip entity against the live scene.
func (s *System) bindTargets(ctx context.Context) {
	live := make(map[string]*entity.RecordableEntity)
	for _, e := range s.scene.Recordables() {
		if !e.Enabled() || e.ID() == "" {
			continue
		}
		if _, dup := live[e.ID()]; !dup {
			live[e.ID()] = e
		}
	}

	ids := s.clip.EntityIDs()
	for i, id := range ids {
		e, ok := live[id]
		if !ok {
			s.logger.Warn("no live actor for recorded entity", "entity", id, "index", i)
			continue
		}

		src := e.Host()
		t := &target{
			index:   i,
			binding: classify(src, s.cfg.ExclusiveTags),
			actor:   src,
			source:  src,
			caps:    e.Capabilities(),
		}

		if t.binding == bindExclusive {
			ghost, err := s.spawnGhost(src, id)
			if err != nil {
				s.logger.Warn("ghost not spawned", "entity", id, "error", err)
				continue
			}
			t.actor = ghost
			t.caps = entity.Probe(ghost)
			t.owned = true
			s.ghosts++
			s.m.ghostsSpawned.Add(ctx, 1)
		}

		t.capture()
		s.targets = append(s.targets, t)
		s.logger.Debug("playback target bound", "entity", id, "binding", t.binding.String(), "actor", t.actor.Name())
	}

	s.m.targetCount.Store(int64(len(s.targets)))
}

// spawnGhost duplicates an exclusive actor so it can replay next to the
// live original without touching it.
func (s *System) spawnGhost(src core.Actor, id string) (core.Actor, error) {
	ghost, err := s.scene.Instantiate(src)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", src.Name(), err)
	}

	ghost.SetName(src.Name() + s.cfg.GhostSuffix)
	if tg, ok := ghost.(core.Tagged); ok {
		if s.cfg.GhostLayer != "" {
			tg.SetLayer(s.cfg.GhostLayer)
		}
		if s.cfg.GhostTag != "" {
			tg.SetTag(s.cfg.GhostTag)
		}
	}
	if h, ok := ghost.(recordableHolder); ok && h.Recordable() != nil {
		h.Recordable().ForceSetID(id)
	}
	s.scene.IgnoreCollision(ghost, src)

	return ghost, nil
}

// applyFrame writes the current frame to every target. It returns early
// if a target's reaction stopped or restarted playback.
func (s *System) applyFrame(ctx context.Context) {
	gen := s.generation
	c := s.clip
	targets := s.targets

	frame := s.frame
	for _, t := range targets {
		if !s.applyTarget(c, t, frame, gen) {
			return
		}
	}
	s.m.framesApplied.Add(ctx, 1)
}

// applyTarget writes one frame to one target. It reports false when the
// actor's own reaction ended the session, in which case nothing more of the
// frame may be written.
func (s *System) applyTarget(c *clip.Clip, t *target, frame int, gen uint64) bool {
	i := t.index
	a := t.actor

	active := c.Active(frame, i)
	if a.Active() != active {
		a.SetActive(active)
		if s.generation != gen {
			return false
		}
	}

	if lc := t.caps.Lifecycle; lc != nil && c.HasDeadTrack() {
		dead := c.EnemyDead(frame, i)
		if lc.IsDead() != dead {
			lc.ApplyRecordedDeathState(dead)
			if s.generation != gen {
				return false
			}
			t.suppress()
		}
	}

	if sp := t.caps.Sprite; sp != nil && c.HasSpriteTrack() {
		sp.SetFlipX(c.SpriteFlipX(frame, i))
	}

	pos := c.Position(frame, i)
	tf := a.Transform()
	if body := t.caps.Body; body != nil {
		body.MovePosition(mgl64.Vec2{pos.X(), pos.Y()})
		cur := tf.Position()
		if cur.Z() != pos.Z() {
			cur[2] = pos.Z()
			tf.SetPosition(cur)
		}
	} else {
		tf.SetPosition(pos)
	}
	tf.SetRotation(c.Rotation(frame, i))

	if anim := t.caps.Animator; anim != nil && active && c.HasAnimatorTracks() {
		anim.SetFloat(core.ParamSpeed, c.AnimatorSpeed(frame, i))
		anim.SetBool(core.ParamJump, c.AnimatorJump(frame, i))

		attack := c.AnimatorAttack(frame, i)
		if attack && !t.lastAttack {
			anim.SetTrigger(core.ParamAttack)
		}
		t.lastAttack = attack

		if s.cfg.SyncAnimatorState {
			if hash, nt, ok := c.AnimatorState(frame, i); ok {
				anim.Play(hash, nt)
			}
		}
	}
	return true
}

// stop is the single restoration path for every way playback ends.
func (s *System) stop(ctx context.Context, outcome string) {
	c := s.clip
	targets := s.targets
	frame := s.frame

	s.generation++
	s.clip = nil
	s.targets = nil
	s.frame = 0
	s.accumulator = 0
	s.hold = 0
	s.m.targetCount.Store(0)

	destroyed := 0
	for _, t := range targets {
		t.restore()
		if !t.owned {
			continue
		}
		if s.cfg.DestroyGhostOnStop {
			s.scene.Destroy(t.actor)
			destroyed++
			continue
		}
		// a kept ghost becomes its own entity
		if h, ok := t.actor.(recordableHolder); ok && h.Recordable() != nil {
			h.Recordable().ForceSetID(entity.NewID())
		}
	}

	s.logger.Info("playback stopped",
		"outcome", outcome,
		"frame", frame,
		"targets", len(targets),
		"ghostsDestroyed", destroyed,
	)
	s.m.sessions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	var frames, entities int
	if c != nil {
		frames, entities = c.FrameCount(), c.EntityCount()
	}
	err := s.sink.WriteSession(ctx, telemetry.Session{
		Kind:     telemetry.KindPlayback,
		Outcome:  outcome,
		Frames:   frames,
		Entities: entities,
		Ghosts:   s.ghosts,
		Duration: time.Since(s.startedAt),
		Time:     time.Now(),
	})
	if err != nil {
		s.logger.Warn("session summary not written", "error", err)
	}
	s.ghosts = 0
}
