package component

// Stats is the sparse vitals component carried by players, NPCs, and animals.
type Stats struct {
	Health    float64
	MaxHealth float64
	Hunger    float64 // 0 = starving, 100 = sated
	Thirst    float64
}

// Behavior is the sparse AI-state component for script-driven entities.
type Behavior struct {
	Script   string // lua decide function; empty = built-in wander
	State    string // coarse state label, e.g. "idle", "wander", "seek"
	Target   uint64 // Handle of the current target; revalidated before use
	MoveDir  Vec2   // intent written by the behavior system, consumed by movement
	Speed    float64
	Seed     int64 // per-entity rng stream seed, fixed at spawn
	Cooldown int   // ticks until next script decision
}

// FactionMember links an entity to the faction whose daily planning it
// participates in.
type FactionMember struct {
	FactionID int32
}
