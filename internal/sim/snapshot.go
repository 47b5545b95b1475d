package sim

import (
	"time"

	"github.com/valewood/simcore/internal/component"
	"github.com/valewood/simcore/internal/core/ecs"
	"github.com/valewood/simcore/internal/data"
	"github.com/valewood/simcore/internal/ecology"
	"github.com/valewood/simcore/internal/planner"
	"github.com/valewood/simcore/internal/world"
)

// EntitySnapshot is one active entity flattened to value data for storage.
type EntitySnapshot struct {
	Kind         string
	DefinitionID string
	X, Y         float64
	Rotation     float64
	Stats        component.Stats
	State        string
	FactionID    int32
}

// WorldSnapshot is everything needed to restore a run: seed, sim clock,
// planner guard, active entities, and the virtual pool.
type WorldSnapshot struct {
	Seed           int64
	Elapsed        time.Duration
	LastPlannedDay int
	Entities       []EntitySnapshot
	Virtual        []ecology.VirtualAgent
	Relations      map[[2]int32]int
}

// Capture flattens the live world. Called between ticks on the simulation
// goroutine.
func Capture(w *world.World, pool *ecology.Pool, p *planner.Planner) WorldSnapshot {
	snap := WorldSnapshot{
		Seed:           w.Seed,
		Elapsed:        w.Clock.Elapsed(),
		LastPlannedDay: p.LastFiredDay(),
		Virtual:        append([]ecology.VirtualAgent(nil), pool.All()...),
		Relations:      w.Relations.Snapshot(),
	}
	for _, h := range w.Entities.AllActive() {
		rec, _ := w.Entities.Metadata(h)
		t, ok := w.Transforms.Get(h)
		if !ok {
			continue
		}
		es := EntitySnapshot{
			Kind:         rec.Kind.String(),
			DefinitionID: rec.DefinitionID,
			X:            t.Position.X,
			Y:            t.Position.Y,
			Rotation:     t.Rotation,
		}
		if st, ok := w.Stats.Get(h); ok {
			es.Stats = *st
		}
		if b, ok := w.Behaviors.Get(h); ok {
			es.State = b.State
		}
		if f, ok := w.Factions.Get(h); ok {
			es.FactionID = f.FactionID
		}
		snap.Entities = append(snap.Entities, es)
	}
	return snap
}

// Restore rebuilds a fresh world from a snapshot. Entities respawn in saved
// order, so slot assignment and derived behavior seeds replay identically.
func Restore(w *world.World, pool *ecology.Pool, p *planner.Planner, defs *data.DefTable, snap WorldSnapshot) error {
	w.Clock.SetElapsed(snap.Elapsed)
	p.SetLastFiredDay(snap.LastPlannedDay)
	for pair, standing := range snap.Relations {
		w.Relations.Set(pair[0], pair[1], standing)
	}
	for _, es := range snap.Entities {
		def, ok := defs.Get(es.DefinitionID)
		if !ok {
			continue
		}
		pos := component.Vec2{X: es.X, Y: es.Y}
		h, err := w.SpawnFromDef(def, pos, es.Rotation)
		if err != nil {
			return err
		}
		stats := es.Stats
		if st, ok := w.Stats.Get(h); ok {
			*st = stats
		} else {
			w.Stats.Set(h, &stats)
		}
		if b, ok := w.Behaviors.Get(h); ok && es.State != "" {
			b.State = es.State
		}
		if es.FactionID != 0 {
			w.Factions.Set(h, &component.FactionMember{FactionID: es.FactionID})
		}
		if rec, ok := w.Entities.Metadata(h); ok && rec.Kind == ecs.KindPlayer {
			w.Observer = h
		}
	}
	pool.Restore(snap.Virtual)
	return nil
}
