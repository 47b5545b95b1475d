// Package job runs CPU-bound batch work on a fixed worker pool. Jobs see
// only value snapshots and return commands; completions are delivered back
// to the simulation goroutine through the command buffer, never invoked on
// a worker.
package job

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/valewood/simcore/internal/core/command"
	"go.uber.org/zap"
)

// ErrQueueFull signals backpressure. The caller waits a tick or drops
// low-priority work; it must never block the simulation thread.
var ErrQueueFull = errors.New("job queue full")

// ErrClosed is returned by Schedule after Close; late callers during
// shutdown get an error instead of a send on a closed channel.
var ErrClosed = errors.New("job scheduler closed")

// Job is an immutable work item. Execute must not touch shared mutable
// state: it reads its own payload and returns desired effects as commands.
type Job interface {
	Name() string
	Execute() ([]command.Command, error)
}

// Result is what a completion callback receives on the simulation goroutine.
type Result struct {
	JobID    uint64
	Commands []command.Command
	Err      error
}

type task struct {
	id         uint64
	job        Job
	onComplete func(Result)
}

// Scheduler owns the worker pool. Sized at or below core count minus one,
// reserving a core for the simulation goroutine.
type Scheduler struct {
	queue  chan task
	buffer *command.Buffer
	log    *zap.Logger
	nextID atomic.Uint64
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// Workers <= 0 selects NumCPU-1 (minimum 1).
func NewScheduler(workers, queueDepth int, buf *command.Buffer, log *zap.Logger) *Scheduler {
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers < 1 {
			workers = 1
		}
	}
	if queueDepth <= 0 {
		queueDepth = 64
	}
	s := &Scheduler{
		queue:  make(chan task, queueDepth),
		buffer: buf,
		log:    log,
	}
	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker()
	}
	return s
}

// Schedule enqueues the job. onComplete runs on the simulation goroutine
// during the next command drain after the job finishes; nil means the job's
// commands are applied as-is on success. Returns ErrQueueFull instead of
// blocking, and ErrClosed after Close.
func (s *Scheduler) Schedule(j Job, onComplete func(Result)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	t := task{id: s.nextID.Add(1), job: j, onComplete: onComplete}
	select {
	case s.queue <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting work and waits for in-flight jobs. Their completions
// remain queued in the buffer for a final drain. Safe to call once.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for t := range s.queue {
		res := s.run(t)
		t := t
		s.buffer.Push(command.Deferred{Fn: func() {
			if t.onComplete != nil {
				t.onComplete(res)
				return
			}
			if res.Err != nil {
				return
			}
			for _, c := range res.Commands {
				s.buffer.Push(c)
			}
		}})
	}
}

// run executes one job, converting a panic into a failure result. One bad
// job never takes down the pool or blocks the others.
func (s *Scheduler) run(t task) (res Result) {
	res.JobID = t.id
	defer func() {
		if r := recover(); r != nil {
			res.Commands = nil
			res.Err = fmt.Errorf("job panicked: %v", r)
			s.log.Error("job panicked",
				zap.Uint64("job_id", t.id),
				zap.String("job", t.job.Name()),
				zap.Any("panic", r))
		}
	}()
	cmds, err := t.job.Execute()
	if err != nil {
		s.log.Error("job failed",
			zap.Uint64("job_id", t.id),
			zap.String("job", t.job.Name()),
			zap.Error(err))
		res.Err = err
		return res
	}
	res.Commands = cmds
	return res
}
