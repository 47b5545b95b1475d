package system

import (
	"time"

	coresys "github.com/valewood/simcore/internal/core/system"
	"github.com/valewood/simcore/internal/planner"
	"github.com/valewood/simcore/internal/world"
)

// PlannerSystem hands the clock to the daily planner each tick. Phase 3
// (PostUpdate).
type PlannerSystem struct {
	world   *world.World
	planner *planner.Planner
}

func NewPlannerSystem(w *world.World, p *planner.Planner) *PlannerSystem {
	return &PlannerSystem{world: w, planner: p}
}

func (s *PlannerSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *PlannerSystem) Update(_ time.Duration) {
	s.planner.Tick(s.world.Clock)
}
