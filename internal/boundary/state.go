package boundary

// InputState is the tick-local view of the coalesced input. The loop fills
// it from the mailbox at the start of each tick; the input system consumes
// it. Fresh is false when no snapshot arrived since the previous tick.
type InputState struct {
	Current Snapshot
	Fresh   bool
}
