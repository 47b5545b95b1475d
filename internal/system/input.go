package system

import (
	"time"

	"github.com/valewood/simcore/internal/boundary"
	"github.com/valewood/simcore/internal/component"
	coresys "github.com/valewood/simcore/internal/core/system"
	"github.com/valewood/simcore/internal/world"
)

// InputSystem applies the tick's coalesced input snapshot to the observer
// entity. Phase 0 (Input).
type InputSystem struct {
	world *world.World
	input *boundary.InputState
	speed float64
}

func NewInputSystem(w *world.World, input *boundary.InputState, speed float64) *InputSystem {
	return &InputSystem{world: w, input: input, speed: speed}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(dt time.Duration) {
	if !s.input.Fresh {
		return
	}
	h := s.world.Observer
	t, ok := s.world.Transforms.Get(h)
	if !ok {
		return
	}
	move := component.Vec2{X: s.input.Current.Move.X, Y: s.input.Current.Move.Y}
	dir := move.Normalized()
	if dir.Len() == 0 {
		return
	}
	pos := t.Position.Add(dir.Scale(s.speed * dt.Seconds()))
	rot := t.Rotation
	look := component.Vec2{X: s.input.Current.Look.X, Y: s.input.Current.Look.Y}
	if look.Len() > 0 {
		rot = vecAngle(look)
	}
	s.world.SetTransform(h, pos, rot)
}
