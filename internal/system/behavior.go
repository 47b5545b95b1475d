package system

import (
	"math"
	"time"

	"github.com/valewood/simcore/internal/component"
	"github.com/valewood/simcore/internal/core/ecs"
	"github.com/valewood/simcore/internal/core/rng"
	coresys "github.com/valewood/simcore/internal/core/system"
	"github.com/valewood/simcore/internal/scripting"
	"github.com/valewood/simcore/internal/world"
	"go.uber.org/zap"
)

// behaviorInterval is how many ticks an entity waits between script
// decisions; the written move intent persists in between.
const behaviorInterval = 10

// BehaviorSystem runs scripted AI decisions for NPCs and animals, writing
// move intents for the movement system. Walks the dense transform table so
// decision order is deterministic. Phase 1 (Behavior).
type BehaviorSystem struct {
	world   *world.World
	scripts *scripting.Engine
	log     *zap.Logger
	ticks   int64
}

func NewBehaviorSystem(w *world.World, scripts *scripting.Engine, log *zap.Logger) *BehaviorSystem {
	return &BehaviorSystem{world: w, scripts: scripts, log: log}
}

func (s *BehaviorSystem) Phase() coresys.Phase { return coresys.PhaseBehavior }

func (s *BehaviorSystem) Update(_ time.Duration) {
	s.ticks++
	ecs.EachWith(s.world.Transforms, s.world.Behaviors,
		func(h ecs.Handle, t *component.Transform, b *component.Behavior) {
			if b.Cooldown > 0 {
				b.Cooldown--
				return
			}
			b.Cooldown = behaviorInterval
			s.decide(h, t, b)
		})
}

func (s *BehaviorSystem) decide(h ecs.Handle, t *component.Transform, b *component.Behavior) {
	decRand := rng.Stream(b.Seed, "decide", s.ticks)
	view := scripting.BehaviorView{
		X:           t.Position.X,
		Y:           t.Position.Y,
		Rotation:    t.Rotation,
		State:       b.State,
		NearbyCount: len(s.world.Grid.QueryNeighborCells(h)),
		Rand:        decRand.Float64(),
		Rand2:       decRand.Float64(),
	}
	if st, ok := s.world.Stats.Get(h); ok {
		view.Health = st.Health
		view.Hunger = st.Hunger
		view.Thirst = st.Thirst
	}

	if s.scripts != nil && b.Script != "" {
		intent, found, err := s.scripts.Decide(b.Script, view)
		if err != nil {
			s.log.Error("behavior script failed",
				zap.String("script", b.Script), zap.Error(err))
		} else if found {
			s.apply(h, b, intent)
			return
		}
	}
	s.apply(h, b, wander(view))
}

func (s *BehaviorSystem) apply(h ecs.Handle, b *component.Behavior, intent scripting.BehaviorIntent) {
	b.MoveDir = component.Vec2{X: intent.MoveX, Y: intent.MoveY}.Normalized()
	if intent.State != "" && intent.State != b.State {
		s.world.SetState(h, intent.State)
	}
}

// wander is the built-in fallback when no script claims the entity: drift in
// a seeded random direction, idling some of the time.
func wander(view scripting.BehaviorView) scripting.BehaviorIntent {
	if view.Rand < 0.3 {
		return scripting.BehaviorIntent{State: "idle"}
	}
	angle := view.Rand2 * 2 * math.Pi
	return scripting.BehaviorIntent{
		MoveX: math.Cos(angle),
		MoveY: math.Sin(angle),
		State: "wander",
	}
}

// vecAngle converts a direction vector to a rotation in radians.
func vecAngle(v component.Vec2) float64 {
	return math.Atan2(v.Y, v.X)
}
