package clip

import (
	"fmt"
	"slices"
	"time"

	"github.com/ghostreplay/rewind/internal/entity"
)

// Builder accumulates frames for a fixed ordered entity list.
// It lives only for the duration of one recording.
type Builder struct {
	sampleInterval time.Duration
	entityIDs      []string
	frameCount     int
	tracks         Tracks

	// Optional tracks are written with defaults for entities lacking the
	// capability, then dropped at Build if nobody ever had it.
	sawAnimator  bool
	sawSprite    bool
	sawLifecycle bool

	scratch []entity.Sample
}

// NewBuilder creates a builder for the given ordered entity ids.
func NewBuilder(sampleInterval time.Duration, entityIDs []string) (*Builder, error) {
	if sampleInterval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSampleInterval, sampleInterval)
	}
	ids := slices.Clone(entityIDs)
	return &Builder{
		sampleInterval: sampleInterval,
		entityIDs:      ids,
		scratch:        make([]entity.Sample, len(ids)),
	}, nil
}

// FrameCount is the number of frames added so far.
func (b *Builder) FrameCount() int { return b.frameCount }

// EntityCount is the fixed frame width.
func (b *Builder) EntityCount() int { return len(b.entityIDs) }

// AddFrame samples every entity once. The list must match the ids the
// builder was created with, in order; otherwise ErrInvalidState is returned
// and nothing is appended.
func (b *Builder) AddFrame(entities []*entity.RecordableEntity) error {
	if len(entities) != len(b.entityIDs) {
		return fmt.Errorf("%w: got %d entities, want %d", ErrInvalidState, len(entities), len(b.entityIDs))
	}
	for i, e := range entities {
		if e == nil || e.Host() == nil {
			return fmt.Errorf("%w: entity %d is gone", ErrInvalidState, i)
		}
		if e.ID() != b.entityIDs[i] {
			return fmt.Errorf("%w: entity %d is %q, want %q", ErrInvalidState, i, e.ID(), b.entityIDs[i])
		}
	}

	for i, e := range entities {
		b.scratch[i] = e.Sample()
	}

	t := &b.tracks
	for _, s := range b.scratch {
		t.Positions = append(t.Positions, s.Pose.Position)
		t.Rotations = append(t.Rotations, s.Pose.Rotation)
		t.Active = append(t.Active, s.Active)

		t.AnimatorStateHashes = append(t.AnimatorStateHashes, s.Animator.StateHash)
		t.AnimatorNormalizedTimes = append(t.AnimatorNormalizedTimes, s.Animator.NormalizedTime)
		t.AnimatorSpeeds = append(t.AnimatorSpeeds, s.Animator.Speed)
		t.AnimatorJump = append(t.AnimatorJump, s.Animator.Jump)
		t.AnimatorAttack = append(t.AnimatorAttack, s.Animator.Attack)
		b.sawAnimator = b.sawAnimator || s.HasAnimator

		t.SpriteFlipX = append(t.SpriteFlipX, s.FlipX)
		b.sawSprite = b.sawSprite || s.HasSprite

		t.EnemyDead = append(t.EnemyDead, s.Dead)
		b.sawLifecycle = b.sawLifecycle || s.HasLifecycle
	}

	b.frameCount++
	return nil
}

// Build freezes everything accumulated so far into a clip. The builder is
// left as is; callers discard it.
func (b *Builder) Build() (*Clip, error) {
	t := Tracks{
		Positions: b.tracks.Positions,
		Rotations: b.tracks.Rotations,
		Active:    b.tracks.Active,
	}
	if b.sawAnimator {
		t.AnimatorStateHashes = b.tracks.AnimatorStateHashes
		t.AnimatorNormalizedTimes = b.tracks.AnimatorNormalizedTimes
		t.AnimatorSpeeds = b.tracks.AnimatorSpeeds
		t.AnimatorJump = b.tracks.AnimatorJump
		t.AnimatorAttack = b.tracks.AnimatorAttack
	}
	if b.sawSprite {
		t.SpriteFlipX = b.tracks.SpriteFlipX
	}
	if b.sawLifecycle {
		t.EnemyDead = b.tracks.EnemyDead
	}
	return New(b.sampleInterval, b.entityIDs, b.frameCount, t)
}
