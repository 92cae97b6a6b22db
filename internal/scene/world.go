// Package scene is a small 2D side-scroller world: actors with optional
// bodies, animators, sprites and health, stepped on a fixed tick and
// collided through a resolv space.
package scene

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ghostreplay/rewind/internal/entity"
	"github.com/ghostreplay/rewind/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
)

// ErrForeignActor is returned for actors that do not belong to the world.
var ErrForeignActor = errors.New("actor does not belong to this world")

const (
	cellSize       = 16
	DefaultGravity = 900.0
)

// World owns the actors and the collision space.
type World struct {
	space   *resolv.Space
	actors  []*Actor
	Gravity float64
}

// NewWorld creates an empty world of the given pixel size.
func NewWorld(width, height int) *World {
	return &World{
		space:   resolv.NewSpace(width, height, cellSize, cellSize),
		Gravity: DefaultGravity,
	}
}

// Spawn creates an actor from def and adds it to the world.
func (w *World) Spawn(def ActorDef) *Actor {
	a := &Actor{
		world:      w,
		name:       def.Name,
		tag:        def.Tag,
		layer:      def.Layer,
		active:     !def.Inactive,
		exclusive:  def.Exclusive,
		behaviours: def.Behaviours,
		transform:  &transform{position: def.Position, rotation: mgl64.QuatIdent()},
	}

	if def.Body || def.Solid {
		tag := TagActor
		bodyType := def.BodyType
		if def.Solid {
			tag = TagSolid
			bodyType = core.BodyStatic
		}
		size := def.Size
		if size == (mgl64.Vec2{}) {
			size = mgl64.Vec2{cellSize, cellSize}
		}
		a.body = newBody(def.Position.X(), def.Position.Y(), size.X(), size.Y(), bodyType, tag)
		a.transform.body = a.body
		w.space.Add(a.body.obj)
	}
	if def.Animator {
		a.animator = NewAnimator()
	}
	if def.Sprite {
		a.sprite = &Sprite{}
	}
	if def.Health > 0 {
		a.health = newHealth(a, def.Health)
	}
	if def.Recordable {
		a.recordable = entity.New(a, def.EntityID)
	}

	w.actors = append(w.actors, a)
	return a
}

// Actors returns the live actors in spawn order.
func (w *World) Actors() []*Actor {
	return slices.Clone(w.actors)
}

// FindByTag returns the live actors carrying tag.
func (w *World) FindByTag(tag string) []*Actor {
	var out []*Actor
	for _, a := range w.actors {
		if a.tag == tag {
			out = append(out, a)
		}
	}
	return out
}

// Recordables returns the entities of every active recordable actor, in
// spawn order.
func (w *World) Recordables() []*entity.RecordableEntity {
	var out []*entity.RecordableEntity
	for _, a := range w.actors {
		if a.recordable != nil && a.Active() {
			out = append(out, a.recordable)
		}
	}
	return out
}

func (w *World) own(a core.Actor) (*Actor, error) {
	sa, ok := a.(*Actor)
	if !ok || sa == nil || sa.world != w || sa.destroyed {
		return nil, fmt.Errorf("%w: %v", ErrForeignActor, a)
	}
	return sa, nil
}

// Instantiate duplicates an actor with all its components. The copy keeps
// the source's entity id, layer and tag; callers rename it as needed.
func (w *World) Instantiate(src core.Actor) (core.Actor, error) {
	s, err := w.own(src)
	if err != nil {
		return nil, err
	}

	behaviours := make([]*Behaviour, len(s.behaviours))
	for i, b := range s.behaviours {
		behaviours[i] = &Behaviour{name: b.name, kind: b.kind, enabled: b.enabled, update: b.update}
	}

	def := ActorDef{
		Name:       s.name,
		Tag:        s.tag,
		Layer:      s.layer,
		Position:   s.transform.Position(),
		Body:       s.body != nil,
		Behaviours: behaviours,
		Exclusive:  s.exclusive,
		Inactive:   !s.active,
		Sprite:     s.sprite != nil,
	}
	if s.body != nil {
		def.Size = mgl64.Vec2{s.body.obj.W, s.body.obj.H}
		def.BodyType = s.body.bodyType
	}
	c := w.Spawn(def)
	c.transform.rotation = s.transform.rotation

	if s.animator != nil {
		c.animator = s.animator.clone()
	}
	if s.sprite != nil {
		c.sprite.flipX = s.sprite.flipX
	}
	if s.health != nil {
		h := *s.health
		h.actor = c
		h.originalMovement = slices.Clone(s.health.originalMovement)
		c.health = &h
	}
	if s.recordable != nil {
		c.recordable = entity.New(c, s.recordable.ID())
	}
	return c, nil
}

// Destroy removes an actor from the world. Destroying twice is a no-op.
func (w *World) Destroy(a core.Actor) {
	sa, err := w.own(a)
	if err != nil {
		return
	}
	sa.destroyed = true
	if sa.body != nil && sa.body.obj.Space != nil {
		w.space.Remove(sa.body.obj)
	}
	w.actors = slices.DeleteFunc(w.actors, func(x *Actor) bool { return x == sa })
}

// IgnoreCollision makes two actors pass through each other.
func (w *World) IgnoreCollision(a, b core.Actor) {
	x, err := w.own(a)
	if err != nil {
		return
	}
	y, err := w.own(b)
	if err != nil {
		return
	}
	if x.body == nil || y.body == nil {
		return
	}
	x.body.obj.AddToIgnoreList(y.body.obj)
	y.body.obj.AddToIgnoreList(x.body.obj)
}

// Step advances the simulation by one fixed tick: enabled behaviours run,
// dynamic bodies integrate, fixed-mode animators advance.
func (w *World) Step(dt time.Duration) {
	sec := dt.Seconds()
	live := slices.Clone(w.actors)

	for _, a := range live {
		if !a.Active() {
			continue
		}
		for _, b := range a.behaviours {
			if b.enabled && b.update != nil {
				b.update(a, sec)
			}
		}
	}
	for _, a := range live {
		if a.Active() && a.body != nil {
			a.body.integrate(sec, w.Gravity)
		}
	}
	for _, a := range live {
		if a.Active() && a.animator != nil && a.animator.mode == core.AnimatorUpdateFixed {
			a.animator.advance(sec)
		}
	}
}

// Render advances the per-frame animators by a frame delta.
func (w *World) Render(dt time.Duration) {
	sec := dt.Seconds()
	for _, a := range w.actors {
		if a.Active() && a.animator != nil && a.animator.mode != core.AnimatorUpdateFixed {
			a.animator.advance(sec)
		}
	}
}
