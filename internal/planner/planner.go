// Package planner batches the daily faction planning across the worker
// pool. Each batch is one job with a day-derived seed; proposed relation
// deltas come back as commands through the drain.
package planner

import (
	"errors"

	"github.com/valewood/simcore/internal/core/job"
	"github.com/valewood/simcore/internal/core/rng"
	"github.com/valewood/simcore/internal/data"
	"github.com/valewood/simcore/internal/world"
	"go.uber.org/zap"
)

// Planner fires once per in-game day when the clock crosses the trigger
// hour. The last-fired guard keeps variable tick timing from double-firing;
// a large delta that crosses several day boundaries fires once per crossed
// day, oldest first, each with that day's seed.
type Planner struct {
	worldSeed   int64
	triggerHour float64
	batchSize   int
	factions    []data.Faction
	relations   *world.Relations
	jobs        *job.Scheduler
	log         *zap.Logger

	lastFiredDay int
	pending      []job.Job // batches deferred by queue backpressure
}

func New(worldSeed int64, triggerHour int, batchSize int, factions []data.Faction, relations *world.Relations, jobs *job.Scheduler, log *zap.Logger) *Planner {
	if batchSize < 1 {
		batchSize = 8
	}
	return &Planner{
		worldSeed:    worldSeed,
		triggerHour:  float64(triggerHour),
		batchSize:    batchSize,
		factions:     factions,
		relations:    relations,
		jobs:         jobs,
		log:          log,
		lastFiredDay: -1,
	}
}

// Tick checks the clock for crossed day boundaries and schedules planning
// work. Called once per simulation tick.
func (p *Planner) Tick(clock *world.Clock) {
	p.flushPending()

	due := clock.Day()
	if clock.HourOfDay() < p.triggerHour {
		due--
	}
	for day := p.lastFiredDay + 1; day <= due; day++ {
		p.fire(day)
		p.lastFiredDay = day
	}
}

// LastFiredDay reports the most recent planned day, for persistence.
func (p *Planner) LastFiredDay() int { return p.lastFiredDay }

// SetLastFiredDay restores the guard from a snapshot.
func (p *Planner) SetLastFiredDay(day int) { p.lastFiredDay = day }

func (p *Planner) fire(day int) {
	if len(p.factions) == 0 {
		return
	}
	standings := p.relations.Snapshot()
	for batch := 0; batch*p.batchSize < len(p.factions); batch++ {
		lo := batch * p.batchSize
		hi := lo + p.batchSize
		if hi > len(p.factions) {
			hi = len(p.factions)
		}
		j := &planBatch{
			day:       day,
			seed:      rng.Derive(p.worldSeed, "planner", int64(day), int64(batch)),
			subjects:  append([]data.Faction(nil), p.factions[lo:hi]...),
			all:       p.factions,
			standings: standings,
		}
		p.schedule(j)
	}
	p.log.Info("faction planning scheduled",
		zap.Int("day", day),
		zap.Int("factions", len(p.factions)))
}

func (p *Planner) schedule(j job.Job) {
	if err := p.jobs.Schedule(j, nil); err != nil {
		if errors.Is(err, job.ErrQueueFull) {
			// Backpressure: wait a tick rather than block the simulation.
			p.pending = append(p.pending, j)
			return
		}
		p.log.Error("schedule planning batch", zap.Error(err))
	}
}

func (p *Planner) flushPending() {
	for len(p.pending) > 0 {
		if err := p.jobs.Schedule(p.pending[0], nil); err != nil {
			return
		}
		p.pending = p.pending[1:]
	}
}
