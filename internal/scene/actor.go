package scene

import (
	"github.com/ghostreplay/rewind/internal/entity"
	"github.com/ghostreplay/rewind/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// Sprite is the facing flag of a sprite renderer.
type Sprite struct {
	flipX bool
}

func (s *Sprite) FlipX() bool { return s.flipX }
func (s *Sprite) SetFlipX(flip bool) { s.flipX = flip }

// ActorDef describes an actor to spawn.
type ActorDef struct {
	Name  string
	Tag   string
	Layer string

	Position mgl64.Vec3
	Size     mgl64.Vec2

	// Body adds a physics body of BodyType. Solid marks static level
	// geometry other bodies collide with.
	Body     bool
	BodyType core.BodyType
	Solid    bool

	Animator bool
	Sprite   bool
	Health   int // zero means no lifecycle

	Behaviours []*Behaviour

	// Recordable attaches an entity identity; EntityID may be blank.
	Recordable bool
	EntityID   string

	Exclusive bool
	Inactive  bool
}

// Actor is a scene object with optional components.
type Actor struct {
	world *World

	name      string
	tag       string
	layer     string
	active    bool
	exclusive bool
	destroyed bool

	transform  *transform
	body       *Body
	animator   *Animator
	sprite     *Sprite
	health     *Health
	behaviours []*Behaviour
	recordable *entity.RecordableEntity

	// Intent is read by the player controller each step.
	Intent Intent
}

func (a *Actor) Name() string { return a.name }
func (a *Actor) SetName(name string) { a.name = name }
func (a *Actor) Active() bool { return a.active && !a.destroyed }
func (a *Actor) SetActive(active bool) { a.active = active }
func (a *Actor) Transform() core.Transform { return a.transform }
func (a *Actor) Tag() string { return a.tag }
func (a *Actor) SetTag(tag string) { a.tag = tag }
func (a *Actor) Layer() string { return a.layer }
func (a *Actor) SetLayer(layer string) { a.layer = layer }
func (a *Actor) Exclusive() bool { return a.exclusive }

// Destroyed reports whether the actor was removed from its world.
func (a *Actor) Destroyed() bool { return a.destroyed }

// Body returns the physics body or nil.
func (a *Actor) Body() core.Body {
	if a.body == nil {
		return nil
	}
	return a.body
}

// Animator returns the animator or nil.
func (a *Actor) Animator() core.Animator {
	if a.animator == nil {
		return nil
	}
	return a.animator
}

// Sprite returns the sprite or nil.
func (a *Actor) Sprite() core.Sprite {
	if a.sprite == nil {
		return nil
	}
	return a.sprite
}

// Lifecycle returns the health component or nil.
func (a *Actor) Lifecycle() core.Mortal {
	if a.health == nil {
		return nil
	}
	return a.health
}

// Behaviours returns the attached scripts.
func (a *Actor) Behaviours() []core.Behaviour {
	out := make([]core.Behaviour, len(a.behaviours))
	for i, b := range a.behaviours {
		out[i] = b
	}
	return out
}

// Recordable returns the entity identity or nil.
func (a *Actor) Recordable() *entity.RecordableEntity { return a.recordable }

// Concrete component accessors for scene-side code and tests.
func (a *Actor) PhysicsBody() *Body { return a.body }
func (a *Actor) AnimatorState() *Animator { return a.animator }
func (a *Actor) Health() *Health { return a.health }

// Behaviour finds an attached script by name.
func (a *Actor) Behaviour(name string) *Behaviour {
	for _, b := range a.behaviours {
		if b.name == name {
			return b
		}
	}
	return nil
}
