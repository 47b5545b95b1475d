package world

// Relations tracks the standing between faction pairs, keyed order-
// independently. Mutated only through drained SetRelation commands.
type Relations struct {
	standing map[[2]int32]int
}

func NewRelations() *Relations {
	return &Relations{
		standing: make(map[[2]int32]int),
	}
}

func pairKey(a, b int32) [2]int32 {
	if a > b {
		a, b = b, a
	}
	return [2]int32{a, b}
}

func (r *Relations) Standing(a, b int32) int {
	return r.standing[pairKey(a, b)]
}

func (r *Relations) Adjust(a, b int32, delta int) {
	r.standing[pairKey(a, b)] += delta
}

func (r *Relations) Set(a, b int32, value int) {
	r.standing[pairKey(a, b)] = value
}

// Snapshot copies the full standing table for a job payload.
func (r *Relations) Snapshot() map[[2]int32]int {
	out := make(map[[2]int32]int, len(r.standing))
	for k, v := range r.standing {
		out[k] = v
	}
	return out
}
