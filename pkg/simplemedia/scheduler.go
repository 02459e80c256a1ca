package simplemedia

import (
	"context"
	"sync"
)

// ProcessFunc consumes one task. It is invoked by exactly one worker per
// task and is responsible for recording the terminal status.
type ProcessFunc func(ctx context.Context, task *ProcessingTask)

// Scheduler is a bounded FIFO task queue with a fixed worker pool. It
// decouples admission from transcoding: Enqueue returns immediately, and
// workers pull tasks in submission order. Completion order across workers
// is not guaranteed.
type Scheduler struct {
	tasks   chan *ProcessingTask
	workers int

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler with the given queue capacity and worker
// count. Values below one are clamped to one.
func NewScheduler(queueSize, workers int) *Scheduler {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		tasks:   make(chan *ProcessingTask, queueSize),
		workers: workers,
	}
}

// Start launches the worker pool. Each worker drains the queue in FIFO
// order until the scheduler is closed or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, process ProcessFunc) {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case task, ok := <-s.tasks:
					if !ok {
						return
					}
					process(ctx, task)
				case <-ctx.Done():
					return
				}
			}
		}()
	}
}

// Enqueue submits a task without blocking. A full queue returns
// ErrQueueFull; a closed scheduler returns ErrSchedulerClosed.
func (s *Scheduler) Enqueue(task *ProcessingTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}

	select {
	case s.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the count of submitted tasks no worker has picked up.
func (s *Scheduler) Pending() int {
	return len(s.tasks)
}

// Close stops accepting tasks and waits for in-flight work to finish.
// Tasks already queued are still processed.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.tasks)
	s.mu.Unlock()

	s.wg.Wait()
}
