package ecs

// Component tables. Two shapes: DenseTable for hot components every entity
// carries (iterated each tick), SparseTable for data only some kinds carry.
// Both check handle generations, so a stale handle reads as absent instead
// of addressing the slot's new owner. No reflect, no interface{} values.

// DenseTable stores values in a flat arena sized to the entity capacity,
// addressed by slot index. Iteration runs in slot order, which keeps every
// per-tick walk deterministic.
type DenseTable[T any] struct {
	values  []T
	gens    []uint32
	present []bool
	count   int
}

func NewDenseTable[T any](capacity int) *DenseTable[T] {
	return &DenseTable[T]{
		values:  make([]T, capacity),
		gens:    make([]uint32, capacity),
		present: make([]bool, capacity),
	}
}

func (t *DenseTable[T]) Set(h Handle, v T) {
	idx := h.Index()
	if int(idx) >= len(t.values) {
		return
	}
	if !t.present[idx] {
		t.count++
	}
	t.values[idx] = v
	t.gens[idx] = h.Generation()
	t.present[idx] = true
}

func (t *DenseTable[T]) Get(h Handle) (T, bool) {
	idx := h.Index()
	if int(idx) >= len(t.values) || !t.present[idx] || t.gens[idx] != h.Generation() {
		var zero T
		return zero, false
	}
	return t.values[idx], true
}

// Ptr returns a write-through pointer into the arena. The pointer must not
// be retained across a Set/Evict of the same slot.
func (t *DenseTable[T]) Ptr(h Handle) (*T, bool) {
	idx := h.Index()
	if int(idx) >= len(t.values) || !t.present[idx] || t.gens[idx] != h.Generation() {
		return nil, false
	}
	return &t.values[idx], true
}

func (t *DenseTable[T]) Has(h Handle) bool {
	_, ok := t.Get(h)
	return ok
}

func (t *DenseTable[T]) Evict(h Handle) {
	idx := h.Index()
	if int(idx) >= len(t.values) || !t.present[idx] || t.gens[idx] != h.Generation() {
		return
	}
	var zero T
	t.values[idx] = zero
	t.present[idx] = false
	t.count--
}

func (t *DenseTable[T]) Len() int { return t.count }

// Each visits occupied slots in index order.
func (t *DenseTable[T]) Each(fn func(Handle, *T)) {
	for i := range t.values {
		if t.present[i] {
			fn(NewHandle(uint32(i), t.gens[i]), &t.values[i])
		}
	}
}

// SparseTable is a map store for components only a subset of entities carry.
type SparseTable[T any] struct {
	data map[Handle]*T
}

func NewSparseTable[T any]() *SparseTable[T] {
	return &SparseTable[T]{
		data: make(map[Handle]*T, 256),
	}
}

func (s *SparseTable[T]) Set(h Handle, c *T) {
	s.data[h] = c
}

func (s *SparseTable[T]) Get(h Handle) (*T, bool) {
	c, ok := s.data[h]
	return c, ok
}

func (s *SparseTable[T]) Has(h Handle) bool {
	_, ok := s.data[h]
	return ok
}

func (s *SparseTable[T]) Evict(h Handle) {
	delete(s.data, h)
}

func (s *SparseTable[T]) Len() int {
	return len(s.data)
}

// Each iterates in map order. Systems that need deterministic order must
// walk a DenseTable and look entities up here instead.
func (s *SparseTable[T]) Each(fn func(Handle, *T)) {
	for h, c := range s.data {
		fn(h, c)
	}
}

// Registry tracks every component table so destroy can bulk-evict.
type Registry struct {
	tables []Evictor
}

func NewRegistry() *Registry {
	return &Registry{
		tables: make([]Evictor, 0, 16),
	}
}

func (r *Registry) Register(t Evictor) {
	r.tables = append(r.tables, t)
}

func (r *Registry) Evict(h Handle) {
	for _, t := range r.tables {
		t.Evict(h)
	}
}
