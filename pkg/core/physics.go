// pkg/core/physics.go
package core

import "github.com/go-gl/mathgl/mgl64"

// BodyType is the simulation mode of a physics body.
type BodyType int

const (
	BodyDynamic BodyType = iota
	BodyKinematic
	BodyStatic
)

func (t BodyType) String() string {
	switch t {
	case BodyDynamic:
		return "dynamic"
	case BodyKinematic:
		return "kinematic"
	case BodyStatic:
		return "static"
	default:
		return "unknown"
	}
}

// Body is a 2D physics body. Its position is authoritative over the
// transform for the planar axes.
type Body interface {
	Position() mgl64.Vec2
	// MovePosition moves the body through the physics engine rather than
	// teleporting the transform.
	MovePosition(p mgl64.Vec2)
	Velocity() mgl64.Vec2
	// ResetVelocity zeroes linear and angular velocity.
	ResetVelocity()
	BodyType() BodyType
	SetBodyType(t BodyType)
}
