package ecs

// Each2 iterates over entities that have both sparse components A and B.
// It walks the smaller store and checks the larger one.
func Each2[A, B any](sa *SparseTable[A], sb *SparseTable[B], fn func(Handle, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for h, a := range sa.data {
			if b, ok := sb.data[h]; ok {
				fn(h, a, b)
			}
		}
	} else {
		for h, b := range sb.data {
			if a, ok := sa.data[h]; ok {
				fn(h, a, b)
			}
		}
	}
}

// EachWith walks the dense table in slot order and joins the sparse table,
// for per-tick systems that must iterate deterministically.
func EachWith[A, B any](da *DenseTable[A], sb *SparseTable[B], fn func(Handle, *A, *B)) {
	da.Each(func(h Handle, a *A) {
		if b, ok := sb.data[h]; ok {
			fn(h, a, b)
		}
	})
}
