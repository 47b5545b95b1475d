// Package sim wires the tick state machine: ReceiveInput → RunSystems →
// DrainCommands → EmitNotifications, in that order, never reentrant.
package sim

import (
	"time"

	"github.com/valewood/simcore/internal/boundary"
	"github.com/valewood/simcore/internal/component"
	"github.com/valewood/simcore/internal/core/command"
	"github.com/valewood/simcore/internal/core/ecs"
	"github.com/valewood/simcore/internal/core/rng"
	coresys "github.com/valewood/simcore/internal/core/system"
	"github.com/valewood/simcore/internal/data"
	"github.com/valewood/simcore/internal/world"
	"go.uber.org/zap"
)

// Loop drives the fixed-timestep simulation. All world mutation funnels
// through Step on a single goroutine; the drain is the only place deferred
// commands touch shared state.
type Loop struct {
	world    *world.World
	runner   *coresys.Runner
	commands *command.Buffer
	mailbox  *boundary.Mailbox
	input    *boundary.InputState
	notify   *boundary.Batch
	defs     *data.DefTable
	log      *zap.Logger

	ticks    uint64
	stepping bool
}

func NewLoop(w *world.World, runner *coresys.Runner, commands *command.Buffer, mailbox *boundary.Mailbox, input *boundary.InputState, notify *boundary.Batch, defs *data.DefTable, log *zap.Logger) *Loop {
	return &Loop{
		world:    w,
		runner:   runner,
		commands: commands,
		mailbox:  mailbox,
		input:    input,
		notify:   notify,
		defs:     defs,
		log:      log,
	}
}

func (l *Loop) Ticks() uint64 { return l.ticks }

// Step advances the simulation by one fixed tick.
func (l *Loop) Step(dt time.Duration) {
	if l.stepping {
		panic("sim: tick reentered")
	}
	l.stepping = true
	defer func() { l.stepping = false }()

	// ReceiveInput: newest snapshot only, older ones already discarded.
	snap, fresh := l.mailbox.Take()
	l.input.Current = snap
	l.input.Fresh = fresh

	l.world.Clock.Advance(dt)

	// RunSystems in explicit phase order.
	l.runner.Tick(dt)

	// DrainCommands: loop until empty so Deferred completion thunks that
	// push follow-up commands apply within this same tick.
	for {
		batch := l.commands.TakeAll()
		if len(batch) == 0 {
			break
		}
		for _, c := range batch {
			l.apply(c)
		}
	}

	// EmitNotifications: presentation sees the tick only once fully applied.
	l.notify.Flush()
	l.ticks++
}

// apply executes one drained command. Stale handles are dropped at debug
// level; they are expected in the window between a despawn and an in-flight
// job completion.
func (l *Loop) apply(c command.Command) {
	switch cmd := c.(type) {
	case command.SpawnEntity:
		l.applySpawn(cmd)
	case command.DespawnEntity:
		if !l.world.Despawn(cmd.Handle) {
			l.log.Debug("despawn command for stale handle",
				zap.Uint64("handle", uint64(cmd.Handle)))
		}
	case command.WriteStats:
		if !l.world.Entities.Valid(cmd.Handle) {
			l.log.Debug("stats command for stale handle",
				zap.Uint64("handle", uint64(cmd.Handle)))
			return
		}
		stats := cmd.Stats
		if st, ok := l.world.Stats.Get(cmd.Handle); ok {
			*st = stats
		} else {
			l.world.Stats.Set(cmd.Handle, &stats)
		}
	case command.SetState:
		l.world.SetState(cmd.Handle, cmd.State)
	case command.SetRelation:
		l.world.Relations.Adjust(cmd.FactionA, cmd.FactionB, cmd.Delta)
	case command.Deferred:
		cmd.Fn()
	}
}

func (l *Loop) applySpawn(cmd command.SpawnEntity) {
	var err error
	if def, ok := l.defs.Get(cmd.DefinitionID); ok {
		var handle ecs.Handle
		handle, err = l.world.SpawnFromDef(def, cmd.Position, cmd.Rotation)
		if err == nil && cmd.Stats != nil {
			stats := *cmd.Stats
			if st, ok := l.world.Stats.Get(handle); ok {
				*st = stats
			} else {
				l.world.Stats.Set(handle, &stats)
			}
		}
	} else {
		_, err = l.world.Spawn(cmd.Kind, cmd.DefinitionID, cmd.Position, cmd.Rotation)
	}
	if err != nil {
		l.log.Warn("spawn command failed", zap.String("definition", cmd.DefinitionID), zap.Error(err))
	}
}

// SpawnPopulation seeds the initial world from the spawn list, scattering
// entities with a seed-derived stream.
func SpawnPopulation(w *world.World, defs *data.DefTable, entries []data.SpawnEntry, log *zap.Logger) int {
	spawned := 0
	scatter := rng.Stream(w.Seed, "scatter")
	for _, entry := range entries {
		def, ok := defs.Get(entry.DefID)
		if !ok {
			log.Warn("spawn entry references unknown definition", zap.String("def_id", entry.DefID))
			continue
		}
		for i := 0; i < entry.Count; i++ {
			pos := component.Vec2{
				X: entry.X + (scatter.Float64()*2-1)*entry.ScatterX,
				Y: entry.Y + (scatter.Float64()*2-1)*entry.ScatterY,
			}
			h, err := w.SpawnFromDef(def, pos, 0)
			if err != nil {
				log.Warn("initial spawn failed", zap.String("def_id", entry.DefID), zap.Error(err))
				return spawned
			}
			if entry.Faction != 0 {
				w.Factions.Set(h, &component.FactionMember{FactionID: entry.Faction})
			}
			spawned++
		}
	}
	return spawned
}
