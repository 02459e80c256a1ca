package simplemedia_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

func TestSchedulerQueueFull(t *testing.T) {
	sched := simplemedia.NewScheduler(2, 1)
	defer sched.Close()

	// No workers started yet, so nothing drains the queue.
	require.NoError(t, sched.Enqueue(&simplemedia.ProcessingTask{FileID: uuid.New()}))
	require.NoError(t, sched.Enqueue(&simplemedia.ProcessingTask{FileID: uuid.New()}))
	assert.Equal(t, 2, sched.Pending())

	err := sched.Enqueue(&simplemedia.ProcessingTask{FileID: uuid.New()})
	assert.ErrorIs(t, err, simplemedia.ErrQueueFull)
	assert.Equal(t, 2, sched.Pending())
}

func TestSchedulerProcessesQueuedTasks(t *testing.T) {
	sched := simplemedia.NewScheduler(8, 2)

	var mu sync.Mutex
	seen := make(map[uuid.UUID]bool)
	done := make(chan struct{}, 8)

	sched.Start(context.Background(), func(ctx context.Context, task *simplemedia.ProcessingTask) {
		mu.Lock()
		seen[task.FileID] = true
		mu.Unlock()
		done <- struct{}{}
	})

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		require.NoError(t, sched.Enqueue(&simplemedia.ProcessingTask{FileID: id}))
	}

	for range ids {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for tasks")
		}
	}

	sched.Close()

	mu.Lock()
	defer mu.Unlock()
	for _, id := range ids {
		assert.True(t, seen[id], "task %s was not processed", id)
	}
}

func TestSchedulerEnqueueAfterClose(t *testing.T) {
	sched := simplemedia.NewScheduler(4, 1)
	sched.Close()

	err := sched.Enqueue(&simplemedia.ProcessingTask{FileID: uuid.New()})
	assert.ErrorIs(t, err, simplemedia.ErrSchedulerClosed)
}

func TestSchedulerCloseDrainsQueue(t *testing.T) {
	sched := simplemedia.NewScheduler(8, 1)

	var mu sync.Mutex
	var processed int

	sched.Start(context.Background(), func(ctx context.Context, task *simplemedia.ProcessingTask) {
		mu.Lock()
		processed++
		mu.Unlock()
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, sched.Enqueue(&simplemedia.ProcessingTask{FileID: uuid.New()}))
	}

	// Close waits for workers to finish everything already accepted.
	sched.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, processed)
}

func TestSchedulerMinimumSizing(t *testing.T) {
	// Degenerate sizing clamps to a working single-slot, single-worker queue.
	sched := simplemedia.NewScheduler(0, 0)
	defer sched.Close()

	require.NoError(t, sched.Enqueue(&simplemedia.ProcessingTask{FileID: uuid.New()}))
	assert.ErrorIs(t, sched.Enqueue(&simplemedia.ProcessingTask{FileID: uuid.New()}), simplemedia.ErrQueueFull)
}
