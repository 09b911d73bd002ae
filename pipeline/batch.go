package pipeline

import (
	"context"
	"time"

	"github.com/raushankrgupta/fitly-outfits/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const storageTimeout = 10 * time.Second

// BatchSummary describes a finished batch.
type BatchSummary struct {
	CollectionID primitive.ObjectID
	Succeeded    int
	Failed       int
}

// BatchRunner drives a batch through the pipeline, persisting and emitting each item.
type BatchRunner struct {
	pipeline    *Pipeline
	coordinator *Coordinator
	concurrency int
	deadline    time.Duration
	logger      *zap.Logger
}

// BatchOption customizes a BatchRunner.
type BatchOption func(*BatchRunner)

// WithConcurrency sets how many items may be generating at once. Append and emit
// order always follows submission order.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchRunner) { b.concurrency = n }
}

// WithDeadline bounds the whole batch. Zero means no deadline.
func WithDeadline(d time.Duration) BatchOption {
	return func(b *BatchRunner) { b.deadline = d }
}

func WithBatchLogger(l *zap.Logger) BatchOption {
	return func(b *BatchRunner) { b.logger = l }
}

func NewBatchRunner(p *Pipeline, c *Coordinator, opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{pipeline: p, coordinator: c, concurrency: 1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type itemOutcome struct {
	result models.OutfitResult
	err    error
}

// Run processes items for userID and reports every item to sink exactly once.
// It fails only on batch-level conditions: ErrNoImages, or a StorageError when the
// collection cannot be created. Per-item failures are reported to sink and skipped.
func (b *BatchRunner) Run(ctx context.Context, userID string, items []models.GarmentInput, sink Sink) (BatchSummary, error) {
	if len(items) == 0 {
		return BatchSummary{}, ErrNoImages
	}

	if b.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.deadline)
		defer cancel()
	}

	log := b.logger.With(zap.String("user_id", userID), zap.Int("items", len(items)))

	createCtx, cancelCreate := context.WithTimeout(context.WithoutCancel(ctx), storageTimeout)
	collectionID, err := b.coordinator.BeginCollection(createCtx, userID)
	cancelCreate()
	if err != nil {
		log.Error("create collection failed", zap.Error(err))
		return BatchSummary{}, err
	}
	log = log.With(zap.String("collection_id", collectionID.Hex()))
	log.Info("batch started")

	summary := BatchSummary{CollectionID: collectionID}
	queue := newOrderedQueue[itemOutcome](b.concurrency)
	queue.run(ctx, len(items),
		func(ctx context.Context, i int) itemOutcome {
			result, trail, err := b.pipeline.ProcessItem(ctx, items[i])
			if err != nil {
				return itemOutcome{err: err}
			}
			log.Debug("item generated", zap.Int("index", i), zap.Any("stages", trail))
			return itemOutcome{result: result}
		},
		func(err error) itemOutcome {
			return itemOutcome{err: &UpstreamGenerationError{Stage: StageModel, Err: err}}
		},
		func(i int, out itemOutcome) {
			if out.err == nil {
				out.err = b.persist(ctx, collectionID, userID, &out.result)
			}
			if out.err != nil {
				summary.Failed++
				log.Warn("item failed", zap.Int("index", i), zap.String("stage", StageOf(out.err)), zap.Error(out.err))
				if err := sink.EmitItemError(i, items[i].TopImageURL, out.err); err != nil {
					log.Debug("emit item error", zap.Int("index", i), zap.Error(err))
				}
				return
			}
			summary.Succeeded++
			if err := sink.EmitOutfit(i, out.result); err != nil {
				// the item is stored; the caller just can't hear about it anymore
				log.Debug("emit outfit", zap.Int("index", i), zap.Error(err))
			}
		},
	)

	log.Info("batch finished", zap.Int("succeeded", summary.Succeeded), zap.Int("failed", summary.Failed))
	return summary, nil
}

// persist appends on a context detached from caller cancellation so that a
// generated image is not lost because the caller went away.
func (b *BatchRunner) persist(ctx context.Context, collectionID primitive.ObjectID, userID string, result *models.OutfitResult) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storageTimeout)
	defer cancel()
	result.CollectionID = collectionID
	return b.coordinator.AppendResult(ctx, collectionID, userID, *result)
}
