package ecology

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/valewood/simcore/internal/component"
	"github.com/valewood/simcore/internal/core/ecs"
	"github.com/valewood/simcore/internal/core/rng"
	"github.com/valewood/simcore/internal/data"
	"github.com/valewood/simcore/internal/world"
	"go.uber.org/zap"
)

// Hydrator runs the Active ⇄ Virtual state machine. Sweep runs when the
// observer crosses a cell boundary; VirtualTick advances the pool on its own
// slow interval. Both run on the simulation goroutine.
type Hydrator struct {
	world      *world.World
	pool       *Pool
	defs       *data.DefTable
	loadRadius int32 // in cells, Chebyshev
	walk       *rand.Rand
	log        *zap.Logger
}

func NewHydrator(w *world.World, pool *Pool, defs *data.DefTable, loadRadiusCells int32, log *zap.Logger) *Hydrator {
	return &Hydrator{
		world:      w,
		pool:       pool,
		defs:       defs,
		loadRadius: loadRadiusCells,
		walk:       rng.Stream(w.Seed, "ecology-walk"),
		log:        log,
	}
}

// Sweep dehydrates active entities that fell outside the loaded radius and
// hydrates virtual agents that came back inside it.
func (h *Hydrator) Sweep(observer world.CellKey) {
	h.dehydrateFar(observer)
	h.hydrateNear(observer)
}

func (h *Hydrator) dehydrateFar(observer world.CellKey) {
	// Collect first: dehydration destroys entities, which would disturb the
	// dense-table walk.
	var far []ecs.Handle
	h.world.Transforms.Each(func(hd ecs.Handle, t *component.Transform) {
		rec, ok := h.world.Entities.Metadata(hd)
		if !ok || rec.Kind == ecs.KindPlayer {
			return
		}
		if def, ok := h.defs.Get(rec.DefinitionID); ok && def.AlwaysActive {
			return
		}
		cell := h.world.Grid.CellOf(t.Position)
		if cell.Chebyshev(observer) >= h.loadRadius {
			far = append(far, hd)
		}
	})
	for _, hd := range far {
		h.dehydrate(hd)
	}
}

func (h *Hydrator) dehydrate(hd ecs.Handle) {
	rec, ok := h.world.Entities.Metadata(hd)
	if !ok {
		return
	}
	t, ok := h.world.Transforms.Get(hd)
	if !ok {
		return
	}
	agent := VirtualAgent{
		LastHandle:   hd,
		Kind:         rec.Kind,
		DefinitionID: rec.DefinitionID,
		Position:     t.Position,
		Rotation:     t.Rotation,
	}
	if st, ok := h.world.Stats.Get(hd); ok {
		agent.Stats = *st
	}
	if b, ok := h.world.Behaviors.Get(hd); ok {
		agent.State = b.State
		agent.Target = ecs.Handle(b.Target)
	}
	if f, ok := h.world.Factions.Get(hd); ok {
		agent.FactionID = f.FactionID
	}
	h.world.Despawn(hd)
	h.pool.Add(agent)
}

func (h *Hydrator) hydrateNear(observer world.CellKey) {
	for i := 0; i < h.pool.Len(); {
		agent := h.pool.At(i)
		cell := h.world.Grid.CellOf(agent.Position)
		if cell.Chebyshev(observer) >= h.loadRadius {
			i++
			continue
		}
		if err := h.hydrate(*agent); err != nil {
			if errors.Is(err, ecs.ErrCapacityExhausted) {
				// Stay virtual; retry on the next observer crossing.
				h.log.Warn("hydration deferred, entity store full",
					zap.String("definition", agent.DefinitionID))
				i++
				continue
			}
			h.log.Error("hydration failed", zap.Error(err))
			i++
			continue
		}
		h.pool.RemoveAt(i)
	}
}

// hydrate promotes a virtual agent back to full component-table presence,
// restoring the stat snapshot losslessly.
func (h *Hydrator) hydrate(agent VirtualAgent) error {
	def, ok := h.defs.Get(agent.DefinitionID)
	if !ok {
		return errors.New("unknown definition " + agent.DefinitionID)
	}
	hd, err := h.world.SpawnFromDef(def, agent.Position, agent.Rotation)
	if err != nil {
		return err
	}
	stats := agent.Stats
	if st, ok := h.world.Stats.Get(hd); ok {
		*st = stats
	} else {
		h.world.Stats.Set(hd, &stats)
	}
	if b, ok := h.world.Behaviors.Get(hd); ok {
		if agent.State != "" {
			b.State = agent.State
		}
		if h.world.Entities.Valid(agent.Target) {
			b.Target = uint64(agent.Target)
		}
	}
	if agent.FactionID != 0 {
		h.world.Factions.Set(hd, &component.FactionMember{FactionID: agent.FactionID})
	}
	return nil
}

// VirtualTick advances the pool on the slow ecology interval: simplified
// hunger/thirst decay and a coarse random walk, never the full pipeline.
func (h *Hydrator) VirtualTick(dt time.Duration) {
	// Convert the elapsed sim duration into in-game hours for decay rates.
	hours := 24 * float64(dt) / float64(h.world.Clock.DayLength())
	for i := 0; i < h.pool.Len(); i++ {
		agent := h.pool.At(i)
		def, ok := h.defs.Get(agent.DefinitionID)
		if !ok {
			continue
		}
		agent.Stats.Hunger = math.Max(0, agent.Stats.Hunger-def.HungerRate*hours)
		agent.Stats.Thirst = math.Max(0, agent.Stats.Thirst-def.ThirstRate*hours)

		if def.Speed > 0 {
			angle := h.walk.Float64() * 2 * math.Pi
			step := def.Speed * dt.Seconds() * 0.25 // coarse: quarter speed
			agent.Position.X += math.Cos(angle) * step
			agent.Position.Y += math.Sin(angle) * step
			agent.Rotation = angle
		}
	}
}

// LoadRadius exposes the configured radius for invariant checks in tests.
func (h *Hydrator) LoadRadius() int32 { return h.loadRadius }
