// pkg/core/animator.go
package core

// Animator parameter and state names shared by recording and playback.
const (
	ParamSpeed  = "Speed"
	ParamJump   = "Jump"
	ParamAttack = "Attack"

	StateAttack = "Attack"
)

// AnimatorUpdateMode controls when an animator advances.
type AnimatorUpdateMode int

const (
	// AnimatorUpdateNormal advances once per rendered frame.
	AnimatorUpdateNormal AnimatorUpdateMode = iota
	// AnimatorUpdateFixed advances in lockstep with the fixed physics tick.
	AnimatorUpdateFixed
	// AnimatorUpdateUnscaled advances per frame ignoring time scale.
	AnimatorUpdateUnscaled
)

// Animator is a parameter-driven state machine on an actor.
type Animator interface {
	// StateHash identifies the current state on the base layer; 0 means none.
	StateHash() int32
	// NormalizedTime is the progress through the current state. It may
	// exceed 1 for looping states.
	NormalizedTime() float64
	IsState(name string) bool

	Float(name string) float64
	SetFloat(name string, v float64)
	Bool(name string) bool
	SetBool(name string, v bool)
	SetTrigger(name string)
	ResetTrigger(name string)

	// Play jumps straight to a state at the given normalized time.
	Play(stateHash int32, normalizedTime float64)

	UpdateMode() AnimatorUpdateMode
	SetUpdateMode(m AnimatorUpdateMode)
	Speed() float64
	SetSpeed(s float64)
	// PhysicsCoupled reports whether animation root motion feeds the body.
	PhysicsCoupled() bool
	SetPhysicsCoupled(coupled bool)
}
