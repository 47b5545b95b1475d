package system

import (
	"time"

	"github.com/valewood/simcore/internal/component"
	"github.com/valewood/simcore/internal/core/ecs"
	coresys "github.com/valewood/simcore/internal/core/system"
	"github.com/valewood/simcore/internal/world"
)

// MovementSystem integrates move intents into positions and keeps the
// spatial grid current. Runs after behavior, before any spatial consumer.
// Phase 2 (Movement).
type MovementSystem struct {
	world *world.World
}

func NewMovementSystem(w *world.World) *MovementSystem {
	return &MovementSystem{world: w}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *MovementSystem) Update(dt time.Duration) {
	type move struct {
		h   ecs.Handle
		pos component.Vec2
		rot float64
	}
	// Collect then apply: SetTransform mutates the table being walked.
	var moves []move
	ecs.EachWith(s.world.Transforms, s.world.Behaviors,
		func(h ecs.Handle, t *component.Transform, b *component.Behavior) {
			if b.Speed <= 0 || b.MoveDir.Len() == 0 {
				return
			}
			pos := t.Position.Add(b.MoveDir.Scale(b.Speed * dt.Seconds()))
			moves = append(moves, move{h: h, pos: pos, rot: vecAngle(b.MoveDir)})
		})
	for _, m := range moves {
		s.world.SetTransform(m.h, m.pos, m.rot)
	}
}
