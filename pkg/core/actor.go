// pkg/core/actor.go
package core

import "github.com/go-gl/mathgl/mgl64"

// Pose is the captured placement of an actor.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// Transform is the scene placement of an actor.
type Transform interface {
	Position() mgl64.Vec3
	SetPosition(p mgl64.Vec3)
	Rotation() mgl64.Quat
	SetRotation(q mgl64.Quat)
}

// Actor is the minimal contract every recorded scene object satisfies.
// Everything else is an optional capability probed through the holder
// interfaces below; a holder returning nil means the capability is absent.
type Actor interface {
	Name() string
	SetName(name string)

	// Active reports whether the actor is enabled in the scene.
	Active() bool
	SetActive(active bool)

	Transform() Transform
}

// Tagged actors carry a tag and a collision layer used by lookups and filters.
type Tagged interface {
	Tag() string
	SetTag(tag string)
	Layer() string
	SetLayer(layer string)
}

// Exclusive is implemented by actors that know whether only one live
// instance of them may exist (the player).
type Exclusive interface {
	Exclusive() bool
}

// BodyHolder exposes an optional physics body.
type BodyHolder interface {
	Body() Body
}

// AnimatorHolder exposes an optional animator.
type AnimatorHolder interface {
	Animator() Animator
}

// SpriteHolder exposes an optional sprite renderer.
type SpriteHolder interface {
	Sprite() Sprite
}

// MortalHolder exposes an optional health/lifecycle component.
type MortalHolder interface {
	Lifecycle() Mortal
}

// BehaviourHolder exposes the toggleable scripts attached to an actor.
type BehaviourHolder interface {
	Behaviours() []Behaviour
}

// Sprite is the facing part of a sprite renderer.
type Sprite interface {
	FlipX() bool
	SetFlipX(flip bool)
}

// Mortal is an alive/dead lifecycle. ApplyRecordedDeathState must support
// both directions: dead -> alive is a valid transition during playback.
type Mortal interface {
	IsDead() bool
	ApplyRecordedDeathState(dead bool)
}

// BehaviourKind classifies a script so playback knows which ones drive the
// actor on their own.
type BehaviourKind int

const (
	BehaviourOther BehaviourKind = iota
	BehaviourController
	BehaviourMovement
	BehaviourAnimationDriver
	BehaviourAttackHitbox
)

// SelfDriving reports whether behaviours of this kind move or animate the
// actor by themselves and must be silenced while playback drives it.
func (k BehaviourKind) SelfDriving() bool {
	switch k {
	case BehaviourController, BehaviourMovement, BehaviourAnimationDriver, BehaviourAttackHitbox:
		return true
	default:
		return false
	}
}

func (k BehaviourKind) String() string {
	switch k {
	case BehaviourController:
		return "controller"
	case BehaviourMovement:
		return "movement"
	case BehaviourAnimationDriver:
		return "animation-driver"
	case BehaviourAttackHitbox:
		return "attack-hitbox"
	default:
		return "other"
	}
}

// Behaviour is a script component that can be switched off and on.
type Behaviour interface {
	Kind() BehaviourKind
	Enabled() bool
	SetEnabled(enabled bool)
}
