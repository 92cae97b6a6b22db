package scene

import (
	"math"

	"github.com/ghostreplay/rewind/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// UpdateFunc runs a behaviour for one fixed step of sec seconds.
type UpdateFunc func(a *Actor, sec float64)

// Behaviour is a toggleable script on an actor.
type Behaviour struct {
	name    string
	kind    core.BehaviourKind
	enabled bool
	update  UpdateFunc
}

// NewBehaviour creates an enabled behaviour.
func NewBehaviour(name string, kind core.BehaviourKind, update UpdateFunc) *Behaviour {
	return &Behaviour{name: name, kind: kind, enabled: true, update: update}
}

func (b *Behaviour) Name() string { return b.name }
func (b *Behaviour) Kind() core.BehaviourKind { return b.kind }
func (b *Behaviour) Enabled() bool { return b.enabled }
func (b *Behaviour) SetEnabled(enabled bool) { b.enabled = enabled }

// Intent is the input a player controller reads each step.
type Intent struct {
	MoveX  float64 // -1..1
	Jump   bool
	Attack bool
}

// Facing rotations: left is a half turn around Y.
var (
	FacingRight = mgl64.QuatIdent()
	FacingLeft  = mgl64.QuatRotate(math.Pi, mgl64.Vec3{0, 1, 0})
)

// PlayerController turns the actor's Intent into velocity, facing and the
// attack trigger.
func PlayerController(runSpeed, jumpSpeed float64) *Behaviour {
	return NewBehaviour("PlayerController", core.BehaviourController, func(a *Actor, sec float64) {
		if a.body == nil {
			return
		}
		v := a.body.velocity
		v[0] = a.Intent.MoveX * runSpeed
		if a.Intent.Jump && a.body.grounded {
			v[1] = -jumpSpeed
		}
		a.Intent.Jump = false
		a.body.velocity = v

		switch {
		case a.Intent.MoveX < 0:
			a.transform.rotation = FacingLeft
		case a.Intent.MoveX > 0:
			a.transform.rotation = FacingRight
		}

		if a.Intent.Attack && a.animator != nil && a.body.grounded {
			a.animator.SetTrigger(core.ParamAttack)
		}
		a.Intent.Attack = false
	})
}

// Patrol walks an enemy back and forth between two x coordinates.
func Patrol(minX, maxX, speed float64) *Behaviour {
	dir := 1.0
	return NewBehaviour("EnemyMove", core.BehaviourMovement, func(a *Actor, sec float64) {
		if a.body == nil {
			return
		}
		x := a.body.obj.X
		if x <= minX {
			dir = 1
		} else if x >= maxX {
			dir = -1
		}
		a.body.velocity[0] = dir * speed
		if dir < 0 {
			a.transform.rotation = FacingLeft
		} else {
			a.transform.rotation = FacingRight
		}
	})
}

// AnimationDriver feeds body motion into animator parameters.
func AnimationDriver() *Behaviour {
	return NewBehaviour("PlayerAnimation", core.BehaviourAnimationDriver, func(a *Actor, sec float64) {
		if a.body == nil || a.animator == nil {
			return
		}
		grounded := a.body.grounded
		if !grounded {
			a.animator.ResetTrigger(core.ParamAttack)
		}
		a.animator.SetFloat(core.ParamSpeed, math.Abs(a.body.velocity.X()))
		a.animator.SetBool(core.ParamJump, !grounded)
		if vx := a.body.velocity.X(); a.sprite != nil && vx != 0 {
			a.sprite.flipX = vx < 0
		}
	})
}
