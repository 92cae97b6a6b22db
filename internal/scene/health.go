package scene

import "github.com/ghostreplay/rewind/pkg/core"

// LayerGround is the layer a dead enemy moves to so it can be stood on.
const LayerGround = "Ground"

// Health is the enemy lifecycle: dying freezes the body, silences movement
// and turns the corpse into ground. Death can be reversed for playback.
type Health struct {
	actor   *Actor
	max     int
	current int
	dead    bool

	// taken once, before the first death
	snapshotTaken    bool
	originalLayer    string
	originalBodyType core.BodyType
	originalMovement []bool
}

func newHealth(a *Actor, max int) *Health {
	h := &Health{actor: a, max: max, current: max}
	h.snapshot()
	return h
}

// IsDead reports the lifecycle state.
func (h *Health) IsDead() bool { return h.dead }

// Current is the remaining health.
func (h *Health) Current() int { return h.current }

// TakeDamage subtracts health and dies at zero.
func (h *Health) TakeDamage(n int) {
	if h.dead {
		return
	}
	h.current -= n
	if h.current <= 0 {
		h.die()
	}
}

// ApplyRecordedDeathState forces the recorded state in either direction.
func (h *Health) ApplyRecordedDeathState(dead bool) {
	switch {
	case dead && !h.dead:
		h.die()
	case !dead && h.dead:
		h.revive()
	}
}

func (h *Health) snapshot() {
	if h.snapshotTaken {
		return
	}
	a := h.actor
	h.originalLayer = a.layer
	h.originalBodyType = core.BodyDynamic
	if a.body != nil {
		h.originalBodyType = a.body.bodyType
	}
	h.originalMovement = h.originalMovement[:0]
	for _, b := range a.behaviours {
		if b.kind == core.BehaviourMovement {
			h.originalMovement = append(h.originalMovement, b.enabled)
		}
	}
	h.snapshotTaken = true
}

func (h *Health) die() {
	h.snapshot()
	h.dead = true
	a := h.actor

	for _, b := range a.behaviours {
		if b.kind == core.BehaviourMovement {
			b.enabled = false
		}
	}
	if a.body != nil {
		a.body.bodyType = core.BodyStatic
		a.body.ResetVelocity()
	}
	a.layer = LayerGround
}

func (h *Health) revive() {
	h.snapshot()
	h.dead = false
	h.current = h.max
	a := h.actor

	i := 0
	for _, b := range a.behaviours {
		if b.kind == core.BehaviourMovement && i < len(h.originalMovement) {
			b.enabled = h.originalMovement[i]
			i++
		}
	}
	if a.body != nil {
		a.body.bodyType = h.originalBodyType
		a.body.ResetVelocity()
	}
	a.layer = h.originalLayer
}
