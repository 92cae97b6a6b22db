package scene

import (
	"hash/fnv"

	"github.com/ghostreplay/rewind/pkg/core"
)

// Animator states of the reference character controller.
const (
	StateIdle = "Idle"
	StateRun  = "Run"
	StateJump = "Jump"
)

const runThreshold = 0.01

// StateHash hashes a state name the way recorded clips store it.
func StateHash(name string) int32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int32(h.Sum32())
}

var knownStates = map[int32]string{
	StateHash(StateIdle):        StateIdle,
	StateHash(StateRun):         StateRun,
	StateHash(StateJump):        StateJump,
	StateHash(core.StateAttack): core.StateAttack,
}

// Animator is a small parameter-driven state machine: Idle/Run/Jump driven
// by Speed and Jump, Attack entered on the Attack trigger and left after
// one pass.
type Animator struct {
	state          string
	normalizedTime float64
	stateLength    float64 // seconds per pass at speed 1

	floats   map[string]float64
	bools    map[string]bool
	triggers map[string]bool

	mode           core.AnimatorUpdateMode
	speed          float64
	physicsCoupled bool

	// TriggerCount counts SetTrigger calls per parameter.
	TriggerCount map[string]int
}

// NewAnimator creates an animator idling in update-per-frame mode.
func NewAnimator() *Animator {
	return &Animator{
		state:        StateIdle,
		stateLength:  0.5,
		floats:       make(map[string]float64),
		bools:        make(map[string]bool),
		triggers:     make(map[string]bool),
		speed:        1,
		TriggerCount: make(map[string]int),
	}
}

func (a *Animator) clone() *Animator {
	c := NewAnimator()
	c.state = a.state
	c.normalizedTime = a.normalizedTime
	c.stateLength = a.stateLength
	for k, v := range a.floats {
		c.floats[k] = v
	}
	for k, v := range a.bools {
		c.bools[k] = v
	}
	c.mode = a.mode
	c.speed = a.speed
	c.physicsCoupled = a.physicsCoupled
	return c
}

func (a *Animator) State() string { return a.state }
func (a *Animator) StateHash() int32 { return StateHash(a.state) }
func (a *Animator) NormalizedTime() float64 { return a.normalizedTime }
func (a *Animator) IsState(name string) bool {
	return a.state == name
}

func (a *Animator) Float(name string) float64 { return a.floats[name] }
func (a *Animator) SetFloat(name string, v float64) { a.floats[name] = v }
func (a *Animator) Bool(name string) bool { return a.bools[name] }
func (a *Animator) SetBool(name string, v bool) { a.bools[name] = v }

func (a *Animator) SetTrigger(name string) {
	a.triggers[name] = true
	a.TriggerCount[name]++
}

func (a *Animator) ResetTrigger(name string) { delete(a.triggers, name) }

// Play jumps to a known state; unknown hashes are ignored.
func (a *Animator) Play(stateHash int32, normalizedTime float64) {
	name, ok := knownStates[stateHash]
	if !ok {
		return
	}
	a.state = name
	a.normalizedTime = normalizedTime
}

func (a *Animator) UpdateMode() core.AnimatorUpdateMode { return a.mode }
func (a *Animator) SetUpdateMode(m core.AnimatorUpdateMode) { a.mode = m }
func (a *Animator) Speed() float64 { return a.speed }
func (a *Animator) SetSpeed(s float64) { a.speed = s }
func (a *Animator) PhysicsCoupled() bool { return a.physicsCoupled }
func (a *Animator) SetPhysicsCoupled(c bool) { a.physicsCoupled = c }

// advance moves the state machine forward by sec seconds.
func (a *Animator) advance(sec float64) {
	if a.triggers[core.ParamAttack] {
		delete(a.triggers, core.ParamAttack)
		a.enter(core.StateAttack)
	}

	if a.stateLength > 0 {
		a.normalizedTime += sec * a.speed / a.stateLength
	}

	if a.state == core.StateAttack && a.normalizedTime < 1 {
		return
	}

	next := StateIdle
	switch {
	case a.bools[core.ParamJump]:
		next = StateJump
	case a.floats[core.ParamSpeed] > runThreshold:
		next = StateRun
	}
	if next != a.state {
		a.enter(next)
	}
}

func (a *Animator) enter(state string) {
	a.state = state
	a.normalizedTime = 0
}
