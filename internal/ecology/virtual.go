// Package ecology demotes far-away entities to lightweight virtual agents
// and promotes them back when the observer approaches, bounding the cost of
// the full simulation by proximity instead of population.
package ecology

import (
	"github.com/valewood/simcore/internal/component"
	"github.com/valewood/simcore/internal/core/ecs"
)

// VirtualAgent is the dehydrated snapshot of one logical entity. Exactly one
// of {active component-table presence, VirtualAgent} exists per entity.
type VirtualAgent struct {
	LastHandle   ecs.Handle // handle at dehydration; stale once destroyed
	Kind         ecs.Kind
	DefinitionID string
	Position     component.Vec2
	Rotation     float64
	Stats        component.Stats
	State        string
	Target       ecs.Handle // revalidated on hydration
	FactionID    int32
}

// Pool holds virtual agents in a stable slice order so the slow virtual
// tick advances them deterministically.
type Pool struct {
	agents []VirtualAgent
}

func NewPool() *Pool {
	return &Pool{
		agents: make([]VirtualAgent, 0, 256),
	}
}

func (p *Pool) Add(a VirtualAgent) {
	p.agents = append(p.agents, a)
}

// RemoveAt drops the agent by shifting, preserving slice order; order is
// part of the deterministic replay contract.
func (p *Pool) RemoveAt(i int) {
	p.agents = append(p.agents[:i], p.agents[i+1:]...)
}

func (p *Pool) Len() int { return len(p.agents) }

func (p *Pool) At(i int) *VirtualAgent { return &p.agents[i] }

// All exposes the backing slice for persistence snapshots.
func (p *Pool) All() []VirtualAgent { return p.agents }

// Restore replaces the pool contents from a saved snapshot.
func (p *Pool) Restore(agents []VirtualAgent) {
	p.agents = append(p.agents[:0], agents...)
}
