package boundary

// Outbound notifications. Each carries only value data; the presentation
// side holds no references into simulation memory.

type Notification interface {
	notification()
}

type EntitySpawned struct {
	Handle       uint64   `json:"handle"`
	Kind         string   `json:"kind"`
	DefinitionID string   `json:"definition_id"`
	Position     Vec2JSON `json:"position"`
	Rotation     float64  `json:"rotation"`
}

type EntityDespawned struct {
	Handle uint64 `json:"handle"`
}

type EntityMoved struct {
	Handle   uint64   `json:"handle"`
	Position Vec2JSON `json:"position"`
	Rotation float64  `json:"rotation"`
}

type EntityStateChanged struct {
	Handle   uint64 `json:"handle"`
	OldState string `json:"old_state"`
	NewState string `json:"new_state"`
}

func (EntitySpawned) notification()      {}
func (EntityDespawned) notification()    {}
func (EntityMoved) notification()        {}
func (EntityStateChanged) notification() {}

// Sink receives one tick's worth of notifications after the command drain.
type Sink interface {
	Publish(batch []Notification)
}

// Batch accumulates notifications during a tick and flushes them to sinks
// only after the drain, so presentation never observes a half-applied tick.
// Tick goroutine only.
type Batch struct {
	pending []Notification
	sinks   []Sink
}

func NewBatch() *Batch {
	return &Batch{
		pending: make([]Notification, 0, 128),
	}
}

func (b *Batch) AddSink(s Sink) {
	b.sinks = append(b.sinks, s)
}

func (b *Batch) Add(n Notification) {
	b.pending = append(b.pending, n)
}

func (b *Batch) Pending() int { return len(b.pending) }

// Flush hands the batch to every sink and resets. Events emitted during
// tick N reflect exactly the commands drained in tick N.
func (b *Batch) Flush() {
	if len(b.pending) == 0 {
		return
	}
	batch := b.pending
	for _, s := range b.sinks {
		s.Publish(batch)
	}
	b.pending = make([]Notification, 0, cap(batch))
}
