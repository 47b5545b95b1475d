package system

import (
	"time"

	coresys "github.com/valewood/simcore/internal/core/system"
	"github.com/valewood/simcore/internal/ecology"
	"github.com/valewood/simcore/internal/world"
)

// EcologySystem drives the hydrator: a dehydration/hydration sweep whenever
// the observer crosses a cell boundary, and the slow virtual tick on its own
// sim-time interval. Phase 3 (PostUpdate), after movement has settled.
type EcologySystem struct {
	world    *world.World
	hydrator *ecology.Hydrator
	interval time.Duration

	haveCell bool
	lastCell world.CellKey
	acc      time.Duration
}

// A non-positive interval disables the virtual tick entirely; sweeps on
// observer cell crossings still run.
func NewEcologySystem(w *world.World, h *ecology.Hydrator, virtualTickInterval time.Duration) *EcologySystem {
	if virtualTickInterval <= 0 {
		virtualTickInterval = 0
	}
	return &EcologySystem{world: w, hydrator: h, interval: virtualTickInterval}
}

func (s *EcologySystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *EcologySystem) Update(dt time.Duration) {
	if cell, ok := s.world.ObserverCell(); ok {
		if !s.haveCell || cell != s.lastCell {
			s.hydrator.Sweep(cell)
			s.lastCell = cell
			s.haveCell = true
		}
	}

	if s.interval <= 0 {
		return
	}
	s.acc += dt
	for s.acc >= s.interval {
		s.acc -= s.interval
		s.hydrator.VirtualTick(s.interval)
	}
}
