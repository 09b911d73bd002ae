package pipeline

import (
	"context"
	"sync"
)

// orderedQueue runs jobs on at most `workers` goroutines and hands their outcomes
// to a single consumer in submission order. A worker slot is released only after
// the consumer has handled the outcome, so with one worker job i+1 starts after
// job i has been fully consumed.
type orderedQueue[T any] struct {
	workers int
}

func newOrderedQueue[T any](workers int) *orderedQueue[T] {
	if workers < 1 {
		workers = 1
	}
	return &orderedQueue[T]{workers: workers}
}

// run calls process for indexes 0..n-1 and consume for each outcome in index order.
// Once ctx is done no new job is started; skipped indexes are consumed with
// the outcome returned by cancelled(ctx.Err()).
func (q *orderedQueue[T]) run(
	ctx context.Context,
	n int,
	process func(ctx context.Context, i int) T,
	cancelled func(err error) T,
	consume func(i int, out T),
) {
	slots := make(chan struct{}, q.workers)
	outcomes := make([]chan T, n)
	for i := range outcomes {
		outcomes[i] = make(chan T, 1)
	}

	var wg sync.WaitGroup
	go func() {
		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
			case slots <- struct{}{}:
			}
			if err := ctx.Err(); err != nil {
				for j := i; j < n; j++ {
					outcomes[j] <- cancelled(err)
				}
				return
			}
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i] <- process(ctx, i)
			}(i)
		}
	}()

	for i := 0; i < n; i++ {
		consume(i, <-outcomes[i])
		select {
		case <-slots:
		default:
		}
	}
	wg.Wait()
}
