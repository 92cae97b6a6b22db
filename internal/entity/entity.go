// Package entity gives scene actors a stable identity and a capture
// operation so they can be recorded and bound again during playback.
package entity

import (
	"math"
	"strings"

	"github.com/ghostreplay/rewind/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Capabilities caches which optional components the host actor exposes.
// Probed once when the entity is attached.
type Capabilities struct {
	Body      core.Body
	Animator  core.Animator
	Sprite    core.Sprite
	Lifecycle core.Mortal
}

// Probe inspects an actor for its optional components.
func Probe(a core.Actor) Capabilities {
	var c Capabilities
	if h, ok := a.(core.BodyHolder); ok {
		c.Body = h.Body()
	}
	if h, ok := a.(core.AnimatorHolder); ok {
		c.Animator = h.Animator()
	}
	if h, ok := a.(core.SpriteHolder); ok {
		c.Sprite = h.Sprite()
	}
	if h, ok := a.(core.MortalHolder); ok {
		c.Lifecycle = h.Lifecycle()
	}
	return c
}

// AnimatorSample is one frame of animator state.
type AnimatorSample struct {
	StateHash      int32
	NormalizedTime float64 // wrapped into [0,1)
	Speed          float64
	Jump           bool
	Attack         bool
}

// Sample is everything captured for one entity on one frame. The Has*
// fields tell the builder whether the optional part was observed at all.
type Sample struct {
	Pose   core.Pose
	Active bool

	HasAnimator bool
	Animator    AnimatorSample

	HasSprite bool
	FlipX     bool

	HasLifecycle bool
	Dead         bool
}

// RecordableEntity is the identity and capture capability of one actor.
type RecordableEntity struct {
	id   string
	host core.Actor
	caps Capabilities
}

// New attaches a recordable identity to an actor. A blank id is replaced
// with a generated one.
func New(host core.Actor, id string) *RecordableEntity {
	e := &RecordableEntity{
		id:   id,
		host: host,
		caps: Probe(host),
	}
	e.EnsureID()
	return e
}

// NewID returns a fresh 32 character hex id.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ID returns the entity id.
func (e *RecordableEntity) ID() string {
	return e.id
}

// EnsureID assigns an id if none is set. Idempotent.
func (e *RecordableEntity) EnsureID() {
	if strings.TrimSpace(e.id) == "" {
		e.id = NewID()
	}
}

// ForceSetID overrides the id, so a duplicate can claim its source's
// identity. Blank ids are ignored.
func (e *RecordableEntity) ForceSetID(id string) {
	if strings.TrimSpace(id) == "" {
		return
	}
	e.id = id
}

// Host returns the actor this entity belongs to.
func (e *RecordableEntity) Host() core.Actor {
	return e.host
}

// Capabilities returns the cached capability probe.
func (e *RecordableEntity) Capabilities() Capabilities {
	return e.caps
}

// Enabled reports whether the host is present and active.
func (e *RecordableEntity) Enabled() bool {
	return e != nil && e.host != nil && e.host.Active()
}

// Capture returns the current pose. With a physics body the planar
// position comes from the body and depth from the transform.
func (e *RecordableEntity) Capture() core.Pose {
	t := e.host.Transform()
	pos := t.Position()
	if e.caps.Body != nil {
		bp := e.caps.Body.Position()
		pos = mgl64.Vec3{bp.X(), bp.Y(), pos.Z()}
	}
	return core.Pose{Position: pos, Rotation: t.Rotation()}
}

// Sample captures one full frame of state.
func (e *RecordableEntity) Sample() Sample {
	s := Sample{
		Pose:   e.Capture(),
		Active: e.host.Active(),
	}

	if anim := e.caps.Animator; anim != nil {
		s.HasAnimator = true
		s.Animator = AnimatorSample{
			StateHash:      anim.StateHash(),
			NormalizedTime: wrapUnit(anim.NormalizedTime()),
			Speed:          anim.Float(core.ParamSpeed),
			Jump:           anim.Bool(core.ParamJump),
			Attack:         anim.IsState(core.StateAttack),
		}
	}

	if sp := e.caps.Sprite; sp != nil {
		s.HasSprite = true
		s.FlipX = sp.FlipX()
	}

	if lc := e.caps.Lifecycle; lc != nil {
		s.HasLifecycle = true
		s.Dead = lc.IsDead()
	}

	return s
}

// wrapUnit maps a normalized time into [0,1).
func wrapUnit(t float64) float64 {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0
	}
	w := t - math.Floor(t)
	if w >= 1 {
		return 0
	}
	return w
}
