package system

import (
	"math"
	"time"

	"github.com/valewood/simcore/internal/component"
	"github.com/valewood/simcore/internal/core/command"
	"github.com/valewood/simcore/internal/core/ecs"
	coresys "github.com/valewood/simcore/internal/core/system"
	"github.com/valewood/simcore/internal/data"
	"github.com/valewood/simcore/internal/world"
)

// VitalsSystem decays hunger/thirst per definition rates and starves health
// when either hits zero. Death is expressed as a despawn command, applied in
// the drain, not mid-iteration. Phase 3 (PostUpdate).
type VitalsSystem struct {
	world    *world.World
	defs     *data.DefTable
	commands *command.Buffer
}

func NewVitalsSystem(w *world.World, defs *data.DefTable, commands *command.Buffer) *VitalsSystem {
	return &VitalsSystem{world: w, defs: defs, commands: commands}
}

func (s *VitalsSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *VitalsSystem) Update(dt time.Duration) {
	hours := 24 * float64(dt) / float64(s.world.Clock.DayLength())
	ecs.EachWith(s.world.Transforms, s.world.Stats,
		func(h ecs.Handle, _ *component.Transform, st *component.Stats) {
			rec, ok := s.world.Entities.Metadata(h)
			if !ok || rec.Kind == ecs.KindPlayer {
				return
			}
			def, ok := s.defs.Get(rec.DefinitionID)
			if !ok {
				return
			}
			st.Hunger = math.Max(0, st.Hunger-def.HungerRate*hours)
			st.Thirst = math.Max(0, st.Thirst-def.ThirstRate*hours)
			if st.Hunger == 0 || st.Thirst == 0 {
				st.Health -= def.MaxHealth * 0.01 * hours
			}
			if st.Health <= 0 {
				s.commands.Push(command.DespawnEntity{Handle: h})
			}
		})
}
