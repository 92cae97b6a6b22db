// Package clip holds the immutable recorded time series and the builder
// that accumulates it.
//
// Every track is a flat buffer addressed as frame*entityCount + entityIndex.
// A track is either fully populated (frameCount*entityCount samples) or
// empty, in which case every read returns the track's default.
package clip

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrInvalidSampleInterval is returned for a non-positive sample interval.
	ErrInvalidSampleInterval = errors.New("sample interval must be positive")
	// ErrInvalidState is returned when the entity set changes during a recording.
	ErrInvalidState = errors.New("entity set changed during recording")
	// ErrTrackLength is returned when a populated track does not match frameCount*entityCount.
	ErrTrackLength = errors.New("track length does not match frame and entity count")
)

// Tracks are the flattened per-frame per-entity buffers of a clip.
type Tracks struct {
	Positions []mgl64.Vec3
	Rotations []mgl64.Quat
	Active    []bool

	AnimatorStateHashes     []int32
	AnimatorNormalizedTimes []float64
	AnimatorSpeeds          []float64
	AnimatorJump            []bool
	AnimatorAttack          []bool

	SpriteFlipX []bool
	EnemyDead   []bool
}

// Clip is an immutable recording of a fixed ordered set of entities.
type Clip struct {
	sampleInterval time.Duration
	entityIDs      []string
	frameCount     int
	tracks         Tracks
}

// New validates and freezes a clip. Inputs are copied.
func New(sampleInterval time.Duration, entityIDs []string, frameCount int, tracks Tracks) (*Clip, error) {
	if sampleInterval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSampleInterval, sampleInterval)
	}
	if frameCount < 0 {
		return nil, fmt.Errorf("%w: negative frame count %d", ErrInvalidState, frameCount)
	}

	want := frameCount * len(entityIDs)
	lengths := []struct {
		name string
		n    int
	}{
		{"positions", len(tracks.Positions)},
		{"rotations", len(tracks.Rotations)},
		{"active", len(tracks.Active)},
		{"animatorStateHashes", len(tracks.AnimatorStateHashes)},
		{"animatorNormalizedTimes", len(tracks.AnimatorNormalizedTimes)},
		{"animatorSpeeds", len(tracks.AnimatorSpeeds)},
		{"animatorJump", len(tracks.AnimatorJump)},
		{"animatorAttack", len(tracks.AnimatorAttack)},
		{"spriteFlipX", len(tracks.SpriteFlipX)},
		{"enemyDead", len(tracks.EnemyDead)},
	}
	for _, l := range lengths {
		if l.n != 0 && l.n != want {
			return nil, fmt.Errorf("%w: %s has %d samples, want %d", ErrTrackLength, l.name, l.n, want)
		}
	}

	return &Clip{
		sampleInterval: sampleInterval,
		entityIDs:      slices.Clone(entityIDs),
		frameCount:     frameCount,
		tracks: Tracks{
			Positions:               slices.Clone(tracks.Positions),
			Rotations:               slices.Clone(tracks.Rotations),
			Active:                  slices.Clone(tracks.Active),
			AnimatorStateHashes:     slices.Clone(tracks.AnimatorStateHashes),
			AnimatorNormalizedTimes: slices.Clone(tracks.AnimatorNormalizedTimes),
			AnimatorSpeeds:          slices.Clone(tracks.AnimatorSpeeds),
			AnimatorJump:            slices.Clone(tracks.AnimatorJump),
			AnimatorAttack:          slices.Clone(tracks.AnimatorAttack),
			SpriteFlipX:             slices.Clone(tracks.SpriteFlipX),
			EnemyDead:               slices.Clone(tracks.EnemyDead),
		},
	}, nil
}

// SampleInterval is the fixed time between frames.
func (c *Clip) SampleInterval() time.Duration { return c.sampleInterval }

// FrameCount is the number of sampled frames.
func (c *Clip) FrameCount() int { return c.frameCount }

// EntityCount is the width of every frame.
func (c *Clip) EntityCount() int { return len(c.entityIDs) }

// EntityIDs returns a copy of the ordered entity ids.
func (c *Clip) EntityIDs() []string { return slices.Clone(c.entityIDs) }

// EntityID returns the id at an entity index, or "" when out of range.
func (c *Clip) EntityID(entityIndex int) string {
	return at(c.entityIDs, entityIndex, "")
}

// Duration is (frameCount-1)*sampleInterval, or 0 for an empty clip.
func (c *Clip) Duration() time.Duration {
	if c.frameCount <= 0 {
		return 0
	}
	return time.Duration(c.frameCount-1) * c.sampleInterval
}

// EntityIndex finds the index of an entity id.
func (c *Clip) EntityIndex(entityID string) (int, bool) {
	if entityID == "" {
		return -1, false
	}
	i := slices.Index(c.entityIDs, entityID)
	return i, i >= 0
}

// index maps a sample to its flat track position, or -1 when the frame or
// entity is out of range.
func (c *Clip) index(frame, entityIndex int) int {
	n := len(c.entityIDs)
	if frame < 0 || frame >= c.frameCount || entityIndex < 0 || entityIndex >= n {
		return -1
	}
	return frame*n + entityIndex
}

// Every sample accessor below returns the track default for an empty track
// or an out-of-range frame or entity index.

// Position returns the recorded position; the origin by default.
func (c *Clip) Position(frame, entityIndex int) mgl64.Vec3 {
	return at(c.tracks.Positions, c.index(frame, entityIndex), mgl64.Vec3{})
}

// Rotation returns the recorded rotation; identity by default.
func (c *Clip) Rotation(frame, entityIndex int) mgl64.Quat {
	return at(c.tracks.Rotations, c.index(frame, entityIndex), mgl64.QuatIdent())
}

// Active returns the recorded enabled flag; true by default.
func (c *Clip) Active(frame, entityIndex int) bool {
	return at(c.tracks.Active, c.index(frame, entityIndex), true)
}

// AnimatorState returns the recorded state hash and normalized time.
// ok is false when nothing usable was recorded for that sample.
func (c *Clip) AnimatorState(frame, entityIndex int) (stateHash int32, normalizedTime float64, ok bool) {
	i := c.index(frame, entityIndex)
	if i < 0 || i >= len(c.tracks.AnimatorStateHashes) || i >= len(c.tracks.AnimatorNormalizedTimes) {
		return 0, 0, false
	}
	stateHash = c.tracks.AnimatorStateHashes[i]
	normalizedTime = c.tracks.AnimatorNormalizedTimes[i]
	return stateHash, normalizedTime, stateHash != 0
}

// AnimatorSpeed returns the recorded Speed parameter.
func (c *Clip) AnimatorSpeed(frame, entityIndex int) float64 {
	return at(c.tracks.AnimatorSpeeds, c.index(frame, entityIndex), 0)
}

// AnimatorJump returns the recorded Jump parameter.
func (c *Clip) AnimatorJump(frame, entityIndex int) bool {
	return at(c.tracks.AnimatorJump, c.index(frame, entityIndex), false)
}

// AnimatorAttack reports whether the animator was in its attack state.
func (c *Clip) AnimatorAttack(frame, entityIndex int) bool {
	return at(c.tracks.AnimatorAttack, c.index(frame, entityIndex), false)
}

// SpriteFlipX returns the recorded horizontal flip.
func (c *Clip) SpriteFlipX(frame, entityIndex int) bool {
	return at(c.tracks.SpriteFlipX, c.index(frame, entityIndex), false)
}

// EnemyDead returns the recorded dead flag; false by default.
func (c *Clip) EnemyDead(frame, entityIndex int) bool {
	return at(c.tracks.EnemyDead, c.index(frame, entityIndex), false)
}

// HasAnimatorTracks reports whether animator parameters were recorded.
func (c *Clip) HasAnimatorTracks() bool {
	return len(c.tracks.AnimatorSpeeds) > 0 || len(c.tracks.AnimatorJump) > 0 || len(c.tracks.AnimatorAttack) > 0
}

// HasSpriteTrack reports whether sprite facing was recorded.
func (c *Clip) HasSpriteTrack() bool { return len(c.tracks.SpriteFlipX) > 0 }

// HasDeadTrack reports whether the dead flag was recorded.
func (c *Clip) HasDeadTrack() bool { return len(c.tracks.EnemyDead) > 0 }

func at[T any](track []T, i int, def T) T {
	if i < 0 || i >= len(track) {
		return def
	}
	return track[i]
}
