package command

import "sync"

// Buffer is the command queue shared between worker goroutines and the
// simulation loop. Push is safe from any goroutine; TakeAll hands the
// accumulated batch to the drain in enqueue order.
type Buffer struct {
	mu      sync.Mutex
	pending []Command
}

func NewBuffer() *Buffer {
	return &Buffer{
		pending: make([]Command, 0, 64),
	}
}

func (b *Buffer) Push(c Command) {
	b.mu.Lock()
	b.pending = append(b.pending, c)
	b.mu.Unlock()
}

// TakeAll swaps out everything queued so far. The drain loops on TakeAll
// until empty, so commands pushed by Deferred thunks apply in the same tick.
func (b *Buffer) TakeAll() []Command {
	b.mu.Lock()
	batch := b.pending
	b.pending = make([]Command, 0, 64)
	b.mu.Unlock()
	return batch
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	n := len(b.pending)
	b.mu.Unlock()
	return n
}
