package sim

import (
	"reflect"
	"testing"
	"time"

	"github.com/valewood/simcore/internal/boundary"
	"github.com/valewood/simcore/internal/component"
	"github.com/valewood/simcore/internal/core/command"
	"github.com/valewood/simcore/internal/core/ecs"
	"github.com/valewood/simcore/internal/core/job"
	coresys "github.com/valewood/simcore/internal/core/system"
	"github.com/valewood/simcore/internal/data"
	"github.com/valewood/simcore/internal/ecology"
	"github.com/valewood/simcore/internal/planner"
	"github.com/valewood/simcore/internal/system"
	"github.com/valewood/simcore/internal/world"
	"go.uber.org/zap"
)

const tick = 50 * time.Millisecond

type recordSink struct {
	batches [][]boundary.Notification
}

func (r *recordSink) Publish(batch []boundary.Notification) {
	cp := make([]boundary.Notification, len(batch))
	copy(cp, batch)
	r.batches = append(r.batches, cp)
}

type stack struct {
	world    *world.World
	loop     *Loop
	mailbox  *boundary.Mailbox
	input    *boundary.InputState
	commands *command.Buffer
	runner   *coresys.Runner
	sink     *recordSink
	defs     *data.DefTable
	pool     *ecology.Pool
	planner  *planner.Planner
	jobs     *job.Scheduler
}

func testDefs() *data.DefTable {
	return data.NewDefTable([]*data.EntityDef{
		{DefID: "player", Name: "Player", Kind: "player", MaxHealth: 100, Speed: 4},
		{DefID: "deer", Name: "Deer", Kind: "animal", MaxHealth: 30, Speed: 5, HungerRate: 2, ThirstRate: 3},
		{DefID: "villager", Name: "Villager", Kind: "npc", MaxHealth: 60, Speed: 2, HungerRate: 1, ThirstRate: 1},
	})
}

// newStack wires a full simulation minus the gateway and database, the way
// the server binary does.
func newStack(t *testing.T, seed int64) *stack {
	t.Helper()
	log := zap.NewNop()
	defs := testDefs()
	sink := &recordSink{}
	notify := boundary.NewBatch()
	notify.AddSink(sink)
	mailbox := boundary.NewMailbox()
	input := &boundary.InputState{}
	w := world.NewWorld(seed, 256, 128, world.NewClock(24*time.Minute), notify, log)
	commands := command.NewBuffer()
	jobs := job.NewScheduler(1, 16, commands, log)
	t.Cleanup(jobs.Close)
	pool := ecology.NewPool()
	hydrator := ecology.NewHydrator(w, pool, defs, 3, log)
	p := planner.New(seed, 6, 8, nil, w.Relations, jobs, log)

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(w, input, 4))
	runner.Register(system.NewBehaviorSystem(w, nil, log))
	runner.Register(system.NewMovementSystem(w))
	runner.Register(system.NewVitalsSystem(w, defs, commands))
	runner.Register(system.NewEcologySystem(w, hydrator, 10*time.Second))
	runner.Register(system.NewPlannerSystem(w, p))

	return &stack{
		world:    w,
		loop:     NewLoop(w, runner, commands, mailbox, input, notify, defs, log),
		mailbox:  mailbox,
		input:    input,
		commands: commands,
		runner:   runner,
		sink:     sink,
		defs:     defs,
		pool:     pool,
		planner:  p,
		jobs:     jobs,
	}
}

func TestStepAppliesQueuedCommands(t *testing.T) {
	s := newStack(t, 1)

	s.commands.Push(command.SpawnEntity{
		DefinitionID: "deer",
		Position:     component.Vec2{X: 10, Y: 10},
	})
	s.loop.Step(tick)

	if s.world.Entities.Active() != 1 {
		t.Fatalf("active = %d, want 1", s.world.Entities.Active())
	}
	// The spawn notification flushed in the same tick, after the drain.
	if len(s.sink.batches) != 1 {
		t.Fatalf("flushes = %d, want 1", len(s.sink.batches))
	}
	found := false
	for _, n := range s.sink.batches[0] {
		if sp, ok := n.(boundary.EntitySpawned); ok && sp.DefinitionID == "deer" {
			found = true
		}
	}
	if !found {
		t.Fatalf("spawn notification missing from the tick batch: %v", s.sink.batches[0])
	}
}

func TestStepDrainsDeferredFollowups(t *testing.T) {
	s := newStack(t, 1)

	// A completion thunk that pushes a further command must land in the
	// same tick's drain.
	s.commands.Push(command.Deferred{Fn: func() {
		s.commands.Push(command.SetRelation{FactionA: 1, FactionB: 2, Delta: 7})
	}})
	s.loop.Step(tick)

	if got := s.world.Relations.Standing(1, 2); got != 7 {
		t.Fatalf("standing = %d, want 7 applied within one tick", got)
	}
}

func TestStepCoalescesInput(t *testing.T) {
	s := newStack(t, 1)

	s.mailbox.Post(boundary.Snapshot{Timestamp: 1})
	s.mailbox.Post(boundary.Snapshot{Timestamp: 2, Move: boundary.Vec2JSON{X: 1}})
	s.loop.Step(tick)

	if !s.input.Fresh || s.input.Current.Timestamp != 2 {
		t.Fatalf("input = %+v fresh=%v, want newest snapshot", s.input.Current, s.input.Fresh)
	}

	s.loop.Step(tick)
	if s.input.Fresh {
		t.Fatalf("second tick with no post must see stale input")
	}
}

func TestStepMovesObserverFromInput(t *testing.T) {
	s := newStack(t, 1)

	def, _ := s.defs.Get("player")
	h, err := s.world.SpawnFromDef(def, component.Vec2{}, 0)
	if err != nil {
		t.Fatalf("spawn player: %v", err)
	}
	s.world.Observer = h

	s.mailbox.Post(boundary.Snapshot{Move: boundary.Vec2JSON{X: 1}})
	s.loop.Step(tick)

	tr, _ := s.world.Transforms.Get(h)
	wantX := 4 * tick.Seconds()
	if tr.Position.X < wantX-1e-9 || tr.Position.X > wantX+1e-9 {
		t.Fatalf("observer X = %f, want %f", tr.Position.X, wantX)
	}
}

func TestStepDropsStaleHandleCommands(t *testing.T) {
	s := newStack(t, 1)

	h, _ := s.world.Spawn(ecs.KindAnimal, "deer", component.Vec2{}, 0)
	s.world.Despawn(h)

	s.commands.Push(command.DespawnEntity{Handle: h})
	s.commands.Push(command.WriteStats{Handle: h, Stats: component.Stats{Health: 1}})
	s.commands.Push(command.SetState{Handle: h, State: "x"})
	s.loop.Step(tick)

	if s.world.Entities.Active() != 0 {
		t.Fatalf("stale commands must not resurrect entities")
	}
	if s.world.Stats.Has(h) {
		t.Fatalf("stale stats write landed")
	}
}

func TestStepRejectsReentry(t *testing.T) {
	s := newStack(t, 1)

	s.commands.Push(command.Deferred{Fn: func() {
		defer func() {
			if recover() == nil {
				t.Errorf("reentrant Step must panic")
			}
		}()
		s.loop.Step(tick)
	}})
	s.loop.Step(tick)
}

func TestReplayIsDeterministic(t *testing.T) {
	run := func() WorldSnapshot {
		s := newStack(t, 77)
		entries := []data.SpawnEntry{
			{DefID: "deer", Count: 12, ScatterX: 300, ScatterY: 300},
			{DefID: "villager", Count: 6, X: 100, Y: 100, ScatterX: 50, ScatterY: 50, Faction: 1},
		}
		if n := SpawnPopulation(s.world, s.defs, entries, zap.NewNop()); n != 18 {
			t.Fatalf("spawned %d, want 18", n)
		}
		for i := 0; i < 200; i++ {
			s.loop.Step(tick)
		}
		return Capture(s.world, s.pool, s.planner)
	}

	a := run()
	b := run()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two runs with the same seed diverged")
	}

	s := newStack(t, 78)
	entries := []data.SpawnEntry{{DefID: "deer", Count: 12, ScatterX: 300, ScatterY: 300}}
	SpawnPopulation(s.world, s.defs, entries, zap.NewNop())
	for i := 0; i < 200; i++ {
		s.loop.Step(tick)
	}
	c := Capture(s.world, s.pool, s.planner)
	if reflect.DeepEqual(a.Entities, c.Entities) {
		t.Fatalf("different seeds should not replay identically")
	}
}

func TestCaptureRestoreRoundTrip(t *testing.T) {
	src := newStack(t, 5)
	def, _ := src.defs.Get("player")
	ph, _ := src.world.SpawnFromDef(def, component.Vec2{X: 1, Y: 2}, 0)
	src.world.Observer = ph
	entries := []data.SpawnEntry{{DefID: "villager", Count: 5, ScatterX: 100, ScatterY: 100, Faction: 2}}
	SpawnPopulation(src.world, src.defs, entries, zap.NewNop())
	src.world.Relations.Set(1, 2, -15)
	for i := 0; i < 50; i++ {
		src.loop.Step(tick)
	}
	snap := Capture(src.world, src.pool, src.planner)

	dst := newStack(t, 5)
	if err := Restore(dst.world, dst.pool, dst.planner, dst.defs, snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if !dst.world.Entities.Valid(dst.world.Observer) {
		t.Fatalf("restore must reattach the observer")
	}
	if dst.world.Clock.Elapsed() != snap.Elapsed {
		t.Fatalf("clock = %v, want %v", dst.world.Clock.Elapsed(), snap.Elapsed)
	}
	if dst.world.Relations.Standing(1, 2) != src.world.Relations.Standing(1, 2) {
		t.Fatalf("relations not restored")
	}

	again := Capture(dst.world, dst.pool, dst.planner)
	if !reflect.DeepEqual(snap.Entities, again.Entities) {
		t.Fatalf("capture after restore differs:\n%v\n%v", snap.Entities, again.Entities)
	}
	if snap.LastPlannedDay != again.LastPlannedDay {
		t.Fatalf("planner guard not restored")
	}
}

func TestSpawnPopulationSkipsUnknownDefs(t *testing.T) {
	s := newStack(t, 1)
	entries := []data.SpawnEntry{
		{DefID: "ghost", Count: 3},
		{DefID: "deer", Count: 2},
	}
	if n := SpawnPopulation(s.world, s.defs, entries, zap.NewNop()); n != 2 {
		t.Fatalf("spawned %d, want 2", n)
	}
}
