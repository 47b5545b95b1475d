package world

import (
	"github.com/valewood/simcore/internal/component"
	"github.com/valewood/simcore/internal/core/ecs"
	"github.com/valewood/simcore/internal/core/rng"
	"github.com/valewood/simcore/internal/data"
)

// SpawnFromDef creates an entity from a definition template, populating
// stats and behavior. The behavior rng seed derives from the world seed and
// the claimed slot, so identical spawn sequences replay identically.
func (w *World) SpawnFromDef(def *data.EntityDef, pos component.Vec2, rot float64) (ecs.Handle, error) {
	kind, ok := ecs.KindFromString(def.Kind)
	if !ok {
		kind = ecs.KindNPC
	}
	h, err := w.Spawn(kind, def.DefID, pos, rot)
	if err != nil {
		return 0, err
	}
	w.Stats.Set(h, &component.Stats{
		Health:    def.MaxHealth,
		MaxHealth: def.MaxHealth,
		Hunger:    100,
		Thirst:    100,
	})
	if kind == ecs.KindNPC || kind == ecs.KindAnimal {
		w.Behaviors.Set(h, &component.Behavior{
			Script: def.Behavior,
			State:  "idle",
			Speed:  def.Speed,
			Seed:   rng.Derive(w.Seed, "behavior", int64(h.Index()), int64(h.Generation())),
		})
	}
	return h, nil
}
