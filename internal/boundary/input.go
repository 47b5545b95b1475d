// Package boundary defines the two one-way surfaces between the simulation
// core and the presentation process: coalesced input snapshots in,
// fire-and-forget notifications out. Only primitive/value data crosses.
package boundary

import "sync"

// Snapshot is one coalesced frame of presentation input.
type Snapshot struct {
	Move        Vec2JSON `json:"move"`
	Look        Vec2JSON `json:"look"`
	Held        []string `json:"held,omitempty"`
	JustPressed []string `json:"just_pressed,omitempty"`
	Timestamp   int64    `json:"timestamp"` // presentation-side millis
}

// Vec2JSON mirrors component.Vec2 for the wire, kept separate so the
// boundary never references simulation memory.
type Vec2JSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Mailbox keeps only the newest snapshot posted since the last Take.
// Last-write-wins: presentation sampling jitter must not queue up as
// simulation lag.
type Mailbox struct {
	mu     sync.Mutex
	latest Snapshot
	fresh  bool
}

func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Post replaces any snapshot not yet taken.
func (m *Mailbox) Post(s Snapshot) {
	m.mu.Lock()
	m.latest = s
	m.fresh = true
	m.mu.Unlock()
}

// Take returns the newest snapshot posted since the previous Take, if any.
func (m *Mailbox) Take() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.fresh {
		return Snapshot{}, false
	}
	m.fresh = false
	return m.latest, true
}
