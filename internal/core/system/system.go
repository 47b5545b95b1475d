package system

import "time"

// Phase fixes execution ordering within a single tick. Systems run in
// explicit phase order, never in declaration order; cross-system data
// dependencies (movement before spatial consumers, behavior before
// movement) are encoded here.
type Phase int

const (
	PhaseInput      Phase = iota // apply the coalesced input snapshot
	PhaseBehavior                // AI decisions, intent writes
	PhaseMovement                // integrate positions, update spatial grid
	PhasePostUpdate              // vitals, ecology sweep, planner trigger
	PhaseCleanup                 // bookkeeping after command drain scheduling
)

// System is the interface every tick system implements. Update runs on the
// simulation goroutine and mutates component tables directly; any work a
// system wants off-thread goes through the job scheduler.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
