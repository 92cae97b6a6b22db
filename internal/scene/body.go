package scene

import (
	"github.com/ghostreplay/rewind/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
)

// Collision tags.
const (
	TagSolid = "solid"
	TagActor = "actor"
)

// Body is a resolv-backed 2D physics body.
type Body struct {
	obj      *resolv.Object
	velocity mgl64.Vec2
	bodyType core.BodyType
	grounded bool
}

func newBody(x, y, w, h float64, t core.BodyType, tags ...string) *Body {
	obj := resolv.NewObject(x, y, w, h, tags...)
	obj.SetShape(resolv.NewRectangle(0, 0, w, h))
	return &Body{obj: obj, bodyType: t}
}

// Position returns the planar body position.
func (b *Body) Position() mgl64.Vec2 {
	return mgl64.Vec2{b.obj.X, b.obj.Y}
}

// MovePosition moves the body inside the collision space.
func (b *Body) MovePosition(p mgl64.Vec2) {
	b.obj.X = p.X()
	b.obj.Y = p.Y()
	b.obj.Update()
}

// Velocity returns the linear velocity in units per second.
func (b *Body) Velocity() mgl64.Vec2 { return b.velocity }

// SetVelocity sets the linear velocity.
func (b *Body) SetVelocity(v mgl64.Vec2) { b.velocity = v }

// ResetVelocity zeroes the velocity.
func (b *Body) ResetVelocity() { b.velocity = mgl64.Vec2{} }

// BodyType returns the simulation mode.
func (b *Body) BodyType() core.BodyType { return b.bodyType }

// SetBodyType switches the simulation mode.
func (b *Body) SetBodyType(t core.BodyType) { b.bodyType = t }

// Grounded reports whether the last step ended on something solid.
func (b *Body) Grounded() bool { return b.grounded }

// blocked reports whether moving by (dx, dy) would hit a collider.
// Ignore lists set through World.IgnoreCollision are honoured by resolv.
func (b *Body) blocked(dx, dy float64) bool {
	return b.obj.Check(dx, dy, TagSolid, TagActor) != nil
}

// integrate advances a dynamic body by sec seconds under gravity.
func (b *Body) integrate(sec, gravity float64) {
	if b.bodyType != core.BodyDynamic || b.obj.Space == nil {
		return
	}

	b.velocity[1] += gravity * sec

	dx := b.velocity[0] * sec
	if dx != 0 && b.blocked(dx, 0) {
		dx = 0
		b.velocity[0] = 0
	}
	b.obj.X += dx

	dy := b.velocity[1] * sec
	b.grounded = false
	if dy != 0 && b.blocked(0, dy) {
		if dy > 0 {
			b.grounded = true
		}
		dy = 0
		b.velocity[1] = 0
	}
	b.obj.Y += dy

	b.obj.Update()
}

// transform keeps depth and rotation; the planar position defers to the
// body when there is one.
type transform struct {
	body     *Body
	position mgl64.Vec3
	rotation mgl64.Quat
}

func (t *transform) Position() mgl64.Vec3 {
	if t.body != nil {
		return mgl64.Vec3{t.body.obj.X, t.body.obj.Y, t.position.Z()}
	}
	return t.position
}

func (t *transform) SetPosition(p mgl64.Vec3) {
	t.position = p
	if t.body != nil {
		t.body.MovePosition(mgl64.Vec2{p.X(), p.Y()})
	}
}

func (t *transform) Rotation() mgl64.Quat { return t.rotation }

func (t *transform) SetRotation(q mgl64.Quat) { t.rotation = q }
