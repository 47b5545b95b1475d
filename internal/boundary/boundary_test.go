package boundary

import (
	"sync"
	"testing"
)

func TestMailboxLastWriteWins(t *testing.T) {
	m := NewMailbox()

	if _, ok := m.Take(); ok {
		t.Fatalf("empty mailbox must report no snapshot")
	}

	m.Post(Snapshot{Timestamp: 1})
	m.Post(Snapshot{Timestamp: 2})
	m.Post(Snapshot{Timestamp: 3})

	s, ok := m.Take()
	if !ok {
		t.Fatalf("Take should see the posted snapshot")
	}
	if s.Timestamp != 3 {
		t.Fatalf("Timestamp = %d, want the newest post (3)", s.Timestamp)
	}

	// Nothing new since the last take.
	if _, ok := m.Take(); ok {
		t.Fatalf("second Take must report stale")
	}
}

func TestMailboxConcurrentPosts(t *testing.T) {
	m := NewMailbox()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			for j := int64(0); j < 100; j++ {
				m.Post(Snapshot{Timestamp: n*1000 + j})
			}
		}(int64(i))
	}
	wg.Wait()

	if _, ok := m.Take(); !ok {
		t.Fatalf("mailbox must hold one of the posted snapshots")
	}
}

type recordSink struct {
	batches [][]Notification
}

func (r *recordSink) Publish(batch []Notification) {
	cp := make([]Notification, len(batch))
	copy(cp, batch)
	r.batches = append(r.batches, cp)
}

func TestBatchFlushDeliversInOrder(t *testing.T) {
	b := NewBatch()
	sink := &recordSink{}
	b.AddSink(sink)

	b.Add(EntitySpawned{Handle: 1})
	b.Add(EntityMoved{Handle: 1})
	b.Add(EntityDespawned{Handle: 1})
	if b.Pending() != 3 {
		t.Fatalf("Pending = %d, want 3", b.Pending())
	}

	b.Flush()
	if len(sink.batches) != 1 {
		t.Fatalf("flushes delivered = %d, want 1", len(sink.batches))
	}
	got := sink.batches[0]
	if _, ok := got[0].(EntitySpawned); !ok {
		t.Fatalf("got[0] = %T, want EntitySpawned", got[0])
	}
	if _, ok := got[1].(EntityMoved); !ok {
		t.Fatalf("got[1] = %T, want EntityMoved", got[1])
	}
	if _, ok := got[2].(EntityDespawned); !ok {
		t.Fatalf("got[2] = %T, want EntityDespawned", got[2])
	}
	if b.Pending() != 0 {
		t.Fatalf("Pending = %d after flush, want 0", b.Pending())
	}
}

func TestBatchEmptyFlushSkipsSinks(t *testing.T) {
	b := NewBatch()
	sink := &recordSink{}
	b.AddSink(sink)

	b.Flush()
	if len(sink.batches) != 0 {
		t.Fatalf("empty flush must not call sinks")
	}
}

func TestBatchFanOut(t *testing.T) {
	b := NewBatch()
	s1 := &recordSink{}
	s2 := &recordSink{}
	b.AddSink(s1)
	b.AddSink(s2)

	b.Add(EntityStateChanged{Handle: 9, OldState: "idle", NewState: "wander"})
	b.Flush()

	if len(s1.batches) != 1 || len(s2.batches) != 1 {
		t.Fatalf("every sink must receive the batch: %d, %d", len(s1.batches), len(s2.batches))
	}
}
