// Package command defines the closed set of deferred world mutations and the
// multi-producer buffer they travel through. Workers and job completions
// enqueue; only the simulation goroutine applies, during its drain step.
package command

import (
	"github.com/valewood/simcore/internal/component"
	"github.com/valewood/simcore/internal/core/ecs"
)

// Command is one deferred mutation. The set is closed so the drain switch
// handles every case exhaustively.
type Command interface {
	isCommand()
}

// SpawnEntity creates an entity with a transform and optional stats.
type SpawnEntity struct {
	Kind         ecs.Kind
	DefinitionID string
	Position     component.Vec2
	Rotation     float64
	Stats        *component.Stats // nil = no stats component
}

// DespawnEntity destroys an entity. Stale handles are dropped silently;
// a job completion may race a despawn that already happened.
type DespawnEntity struct {
	Handle ecs.Handle
}

// WriteStats replaces an entity's stats component.
type WriteStats struct {
	Handle ecs.Handle
	Stats  component.Stats
}

// SetState changes an entity's coarse behavior state.
type SetState struct {
	Handle ecs.Handle
	State  string
}

// SetRelation adjusts the standing between two factions by a delta.
type SetRelation struct {
	FactionA int32
	FactionB int32
	Delta    int
}

// Deferred runs a thunk on the simulation goroutine. Job completion
// callbacks travel as Deferred entries; the thunk may push further commands,
// which land in the same drain.
type Deferred struct {
	Fn func()
}

func (SpawnEntity) isCommand()   {}
func (DespawnEntity) isCommand() {}
func (WriteStats) isCommand()    {}
func (SetState) isCommand()      {}
func (SetRelation) isCommand()   {}
func (Deferred) isCommand()      {}
