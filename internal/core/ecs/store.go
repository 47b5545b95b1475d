package ecs

import (
	"errors"

	"go.uber.org/zap"
)

// ErrCapacityExhausted is returned by Create when every slot is in use.
// Callers surface this as a world-population-limit condition; it never
// causes silent slot reuse.
var ErrCapacityExhausted = errors.New("entity store capacity exhausted")

// Record is the per-slot identity data owned exclusively by the Store.
type Record struct {
	Generation   uint32
	Active       bool
	Kind         Kind
	DefinitionID string
}

// Evictor is implemented by everything that keys data by Handle (component
// tables, spatial grid) so the Store can tear an entity out of all of them
// on destroy.
type Evictor interface {
	Evict(h Handle)
}

// Store owns entity identity and lifecycle. Fixed capacity, free-list slot
// reuse, generational handles. Tick goroutine only.
type Store struct {
	slots    []Record
	freeList []uint32
	next     uint32 // slots at index >= next have never been used
	active   int
	evictors []Evictor
	log      *zap.Logger
}

func NewStore(capacity int, log *zap.Logger) *Store {
	return &Store{
		slots:    make([]Record, capacity),
		freeList: make([]uint32, 0, 256),
		log:      log,
	}
}

// AddEvictor registers a dependent table to be cleared on destroy.
func (s *Store) AddEvictor(e Evictor) {
	s.evictors = append(s.evictors, e)
}

func (s *Store) Capacity() int { return len(s.slots) }
func (s *Store) Active() int   { return s.active }

// Create claims a slot and returns its handle. The slot's generation is left
// as the previous use bumped it, so recycled slots hand out fresh handles.
func (s *Store) Create(kind Kind, definitionID string) (Handle, error) {
	var idx uint32
	switch {
	case len(s.freeList) > 0:
		idx = s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
	case int(s.next) < len(s.slots):
		idx = s.next
		s.next++
	default:
		return 0, ErrCapacityExhausted
	}

	rec := &s.slots[idx]
	rec.Active = true
	rec.Kind = kind
	rec.DefinitionID = definitionID
	s.active++
	return NewHandle(idx, rec.Generation), nil
}

// Destroy invalidates the handle, evicts dependent tables, and returns the
// slot to the free list. Reports false on an already-stale handle.
func (s *Store) Destroy(h Handle) bool {
	if !s.Valid(h) {
		s.log.Debug("destroy of stale handle", zap.Uint64("handle", uint64(h)))
		return false
	}
	for _, e := range s.evictors {
		e.Evict(h)
	}
	rec := &s.slots[h.Index()]
	rec.Active = false
	rec.Generation++
	rec.DefinitionID = ""
	s.active--
	s.freeList = append(s.freeList, h.Index())
	return true
}

// Valid reports whether the handle still addresses a live entity.
func (s *Store) Valid(h Handle) bool {
	idx := h.Index()
	if int(idx) >= len(s.slots) {
		return false
	}
	rec := &s.slots[idx]
	return rec.Active && rec.Generation == h.Generation()
}

// Metadata returns a copy of the slot record for a valid handle.
func (s *Store) Metadata(h Handle) (Record, bool) {
	if !s.Valid(h) {
		return Record{}, false
	}
	return s.slots[h.Index()], true
}

// AllActive returns the handles of every live entity, in slot order. The
// slice is a snapshot at call time; safe to iterate as long as the caller
// does not mutate the store mid-walk.
func (s *Store) AllActive() []Handle {
	out := make([]Handle, 0, s.active)
	for i := uint32(0); i < s.next; i++ {
		if s.slots[i].Active {
			out = append(out, NewHandle(i, s.slots[i].Generation))
		}
	}
	return out
}
