package main

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ghostreplay/rewind/internal/scene"
)

const (
	worldWidth  = 640
	worldHeight = 240
	groundY     = 200
)

// level is the demo stage: a floor, the player and two patrolling enemies.
type level struct {
	world   *scene.World
	player  *scene.Actor
	enemies []*scene.Actor
}

func buildLevel() *level {
	w := scene.NewWorld(worldWidth, worldHeight)

	w.Spawn(scene.ActorDef{
		Name:     "Ground",
		Layer:    "Ground",
		Solid:    true,
		Position: mgl64.Vec3{0, groundY, 0},
		Size:     mgl64.Vec2{worldWidth, 16},
	})

	player := w.Spawn(scene.ActorDef{
		Name:       "Player",
		Tag:        "Player",
		Layer:      "Player",
		Position:   mgl64.Vec3{32, groundY - 16, 0},
		Size:       mgl64.Vec2{16, 16},
		Body:       true,
		Animator:   true,
		Sprite:     true,
		Behaviours: []*scene.Behaviour{scene.PlayerController(120, 300), scene.AnimationDriver()},
		Recordable: true,
	})

	lv := &level{world: w, player: player}
	for i, x := range []float64{220, 420} {
		lv.enemies = append(lv.enemies, w.Spawn(scene.ActorDef{
			Name:       enemyName(i),
			Tag:        "Enemy",
			Layer:      "Enemy",
			Position:   mgl64.Vec3{x, groundY - 16, 0},
			Size:       mgl64.Vec2{16, 16},
			Body:       true,
			Health:     1,
			Behaviours: []*scene.Behaviour{scene.Patrol(x-40, x+40, 40)},
			Recordable: true,
		}))
	}
	return lv
}

func enemyName(i int) string {
	return "Enemy" + string(rune('A'+i))
}

// drive scripts the player for tick n: run right, jump once, and strike the
// first enemy when close enough.
func (lv *level) drive(n int) {
	in := scene.Intent{MoveX: 1}
	if n == 15 {
		in.Jump = true
	}
	lv.player.Intent = in

	target := lv.enemies[0]
	if target.Health().IsDead() {
		return
	}
	dx := target.Transform().Position().X() - lv.player.Transform().Position().X()
	if dx > -8 && dx < 24 {
		lv.player.Intent.Attack = true
		target.Health().TakeDamage(1)
	}
}
