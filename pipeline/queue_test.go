package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestOrderedQueueSequentialByDefault(t *testing.T) {
	q := newOrderedQueue[int](0)
	var running atomic.Int32
	var order []int

	q.run(context.Background(), 5,
		func(_ context.Context, i int) int {
			if running.Add(1) != 1 {
				t.Errorf("job %d overlapped another job", i)
			}
			defer running.Add(-1)
			return i * 10
		},
		func(error) int { return -1 },
		func(i, out int) {
			if out != i*10 {
				t.Errorf("outcome for %d = %d", i, out)
			}
			order = append(order, i)
		},
	)

	if len(order) != 5 {
		t.Fatalf("consumed %d outcomes, want 5", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v", order)
		}
	}
}

func TestOrderedQueueCancelledSkipsRemaining(t *testing.T) {
	q := newOrderedQueue[error](1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var processed atomic.Int32
	var outcomes []error
	q.run(ctx, 3,
		func(context.Context, int) error {
			processed.Add(1)
			return nil
		},
		func(err error) error { return err },
		func(i int, out error) {
			outcomes = append(outcomes, out)
			if i == 0 {
				cancel()
			}
		},
	)

	if processed.Load() != 1 {
		t.Fatalf("processed %d jobs, want 1", processed.Load())
	}
	if len(outcomes) != 3 || outcomes[0] != nil || !errors.Is(outcomes[1], context.Canceled) || !errors.Is(outcomes[2], context.Canceled) {
		t.Fatalf("outcomes = %v", outcomes)
	}
}
