package world

import (
	"github.com/valewood/simcore/internal/boundary"
	"github.com/valewood/simcore/internal/component"
	"github.com/valewood/simcore/internal/core/ecs"
	"go.uber.org/zap"
)

// World aggregates the entity store, component tables, spatial grid, clock,
// and faction relations. Every system receives exactly the pieces it needs
// at construction; there is no ambient global lookup. Owned by the
// simulation goroutine.
type World struct {
	Seed int64

	Entities   *ecs.Store
	Registry   *ecs.Registry
	Transforms *ecs.DenseTable[component.Transform]
	Stats      *ecs.SparseTable[component.Stats]
	Behaviors  *ecs.SparseTable[component.Behavior]
	Factions   *ecs.SparseTable[component.FactionMember]
	Grid       *Grid
	Clock      *Clock
	Relations  *Relations

	Notify *boundary.Batch

	// Observer is the entity whose surroundings stay fully simulated.
	Observer ecs.Handle

	log *zap.Logger
}

func NewWorld(seed int64, capacity int, cellSize float64, clock *Clock, notify *boundary.Batch, log *zap.Logger) *World {
	w := &World{
		Seed:       seed,
		Entities:   ecs.NewStore(capacity, log),
		Registry:   ecs.NewRegistry(),
		Transforms: ecs.NewDenseTable[component.Transform](capacity),
		Stats:      ecs.NewSparseTable[component.Stats](),
		Behaviors:  ecs.NewSparseTable[component.Behavior](),
		Factions:   ecs.NewSparseTable[component.FactionMember](),
		Grid:       NewGrid(cellSize),
		Clock:      clock,
		Relations:  NewRelations(),
		Notify:     notify,
		log:        log,
	}
	w.Registry.Register(w.Transforms)
	w.Registry.Register(w.Stats)
	w.Registry.Register(w.Behaviors)
	w.Registry.Register(w.Factions)
	// Destroy tears the entity out of every table and the grid in one pass.
	w.Entities.AddEvictor(w.Registry)
	w.Entities.AddEvictor(w.Grid)
	return w
}

// Spawn creates an entity with a transform, indexes it, and queues the
// spawn notification.
func (w *World) Spawn(kind ecs.Kind, definitionID string, pos component.Vec2, rot float64) (ecs.Handle, error) {
	h, err := w.Entities.Create(kind, definitionID)
	if err != nil {
		return 0, err
	}
	w.Transforms.Set(h, component.Transform{Position: pos, Rotation: rot})
	w.Grid.Upsert(h, pos)
	w.Notify.Add(boundary.EntitySpawned{
		Handle:       uint64(h),
		Kind:         kind.String(),
		DefinitionID: definitionID,
		Position:     boundary.Vec2JSON{X: pos.X, Y: pos.Y},
		Rotation:     rot,
	})
	return h, nil
}

// Despawn destroys the entity; the store's evictors clear its components
// and grid cell. False on a stale handle.
func (w *World) Despawn(h ecs.Handle) bool {
	if !w.Entities.Destroy(h) {
		return false
	}
	w.Notify.Add(boundary.EntityDespawned{Handle: uint64(h)})
	return true
}

// SetTransform writes position/rotation, keeps the grid in agreement, and
// queues the move notification. Re-inserting through Upsert also self-heals
// a grid entry that went missing.
func (w *World) SetTransform(h ecs.Handle, pos component.Vec2, rot float64) bool {
	if !w.Entities.Valid(h) {
		w.log.Debug("transform write to stale handle", zap.Uint64("handle", uint64(h)))
		return false
	}
	w.Transforms.Set(h, component.Transform{Position: pos, Rotation: rot})
	w.Grid.Upsert(h, pos)
	w.Notify.Add(boundary.EntityMoved{
		Handle:   uint64(h),
		Position: boundary.Vec2JSON{X: pos.X, Y: pos.Y},
		Rotation: rot,
	})
	return true
}

// SetState changes an entity's coarse behavior state and notifies.
func (w *World) SetState(h ecs.Handle, state string) bool {
	if !w.Entities.Valid(h) {
		w.log.Debug("state write to stale handle", zap.Uint64("handle", uint64(h)))
		return false
	}
	b, ok := w.Behaviors.Get(h)
	if !ok {
		return false
	}
	old := b.State
	if old == state {
		return true
	}
	b.State = state
	w.Notify.Add(boundary.EntityStateChanged{
		Handle:   uint64(h),
		OldState: old,
		NewState: state,
	})
	return true
}

// ObserverCell is the cell of the observer's current position.
func (w *World) ObserverCell() (CellKey, bool) {
	if !w.Entities.Valid(w.Observer) {
		return CellKey{}, false
	}
	return w.Grid.Cell(w.Observer)
}
