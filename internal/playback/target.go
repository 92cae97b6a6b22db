package playback

import (
	"slices"

	"github.com/ghostreplay/rewind/internal/entity"
	"github.com/ghostreplay/rewind/pkg/core"
)

// binding says how a clip entity is represented during playback.
type binding int

const (
	// bindShared repurposes the live actor in place
	bindShared binding = iota
	// bindExclusive drives a ghost duplicate of the live actor
	bindExclusive
)

func (b binding) String() string {
	if b == bindExclusive {
		return "exclusive"
	}
	return "shared"
}

// recordableHolder is implemented by actors that carry their entity.
type recordableHolder interface {
	Recordable() *entity.RecordableEntity
}

// target binds one clip entity index to the actor representing it and
// keeps what must be restored when playback stops.
type target struct {
	index   int
	binding binding
	actor   core.Actor
	source  core.Actor // live original, same as actor when shared
	caps    entity.Capabilities

	// owned is true for spawned ghosts
	owned bool

	hasBody     bool
	bodyType    core.BodyType
	disabled    []core.Behaviour
	hasAnimator bool
	animMode    core.AnimatorUpdateMode
	animSpeed   float64
	animCoupled bool
	hasSprite   bool
	flipX       bool
	wasActive   bool

	lastAttack bool
}

// classify decides between ghosting and repurposing an actor.
func classify(a core.Actor, exclusiveTags []string) binding {
	if x, ok := a.(core.Exclusive); ok && x.Exclusive() {
		return bindExclusive
	}
	if tg, ok := a.(core.Tagged); ok && slices.Contains(exclusiveTags, tg.Tag()) {
		return bindExclusive
	}
	if h, ok := a.(core.BehaviourHolder); ok {
		for _, b := range h.Behaviours() {
			if b.Kind() == core.BehaviourController {
				return bindExclusive
			}
		}
	}
	return bindShared
}

// capture takes over an actor: self-driving scripts off, body kinematic,
// animator on the fixed tick. Originals are kept on the target.
func (t *target) capture() {
	t.wasActive = t.actor.Active()
	t.silenceBehaviours()

	if body := t.caps.Body; body != nil {
		t.hasBody = true
		t.bodyType = body.BodyType()
		body.ResetVelocity()
		body.SetBodyType(core.BodyKinematic)
	}

	if anim := t.caps.Animator; anim != nil {
		t.hasAnimator = true
		t.animMode = anim.UpdateMode()
		t.animSpeed = anim.Speed()
		t.animCoupled = anim.PhysicsCoupled()
		anim.SetUpdateMode(core.AnimatorUpdateFixed)
		anim.SetSpeed(1)
		anim.SetPhysicsCoupled(false)
	}

	if sp := t.caps.Sprite; sp != nil {
		t.hasSprite = true
		t.flipX = sp.FlipX()
	}
}

// suppress re-asserts the playback overrides after something external
// (a death state change) flipped them back.
func (t *target) suppress() {
	t.silenceBehaviours()
	if body := t.caps.Body; body != nil && body.BodyType() == core.BodyDynamic {
		body.ResetVelocity()
		body.SetBodyType(core.BodyKinematic)
	}
}

// silenceBehaviours disables every enabled self-driving script and
// remembers it for restore.
func (t *target) silenceBehaviours() {
	h, ok := t.actor.(core.BehaviourHolder)
	if !ok {
		return
	}
	for _, b := range h.Behaviours() {
		if b.Kind().SelfDriving() && b.Enabled() {
			b.SetEnabled(false)
			if !slices.Contains(t.disabled, b) {
				t.disabled = append(t.disabled, b)
			}
		}
	}
}

// restore hands the actor back in the state it was captured in. The dead
// flag is left as replayed. An actor left dead keeps the body type and the
// movement scripts its lifecycle owns; every other silenced script is
// re-enabled.
func (t *target) restore() {
	dead := t.caps.Lifecycle != nil && t.caps.Lifecycle.IsDead()

	if t.hasBody && t.caps.Body != nil && !dead {
		t.caps.Body.SetBodyType(t.bodyType)
		t.caps.Body.ResetVelocity()
	}

	for _, b := range t.disabled {
		if dead && b.Kind() == core.BehaviourMovement {
			continue
		}
		b.SetEnabled(true)
	}
	t.disabled = nil

	if t.hasAnimator && t.caps.Animator != nil {
		anim := t.caps.Animator
		anim.SetUpdateMode(t.animMode)
		anim.SetSpeed(t.animSpeed)
		anim.SetPhysicsCoupled(t.animCoupled)
		anim.ResetTrigger(core.ParamAttack)
	}

	if t.hasSprite && t.caps.Sprite != nil {
		t.caps.Sprite.SetFlipX(t.flipX)
	}

	if t.binding == bindShared && t.actor.Active() != t.wasActive {
		t.actor.SetActive(t.wasActive)
	}
}
