package pipeline

import (
	"context"

	"github.com/raushankrgupta/fitly-outfits/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CollectionStore persists collections embedded in a user record.
type CollectionStore interface {
	// CreateCollection attaches a new empty collection to the user and returns it with its id.
	CreateCollection(ctx context.Context, userID string) (models.Collection, error)
	// AppendItem appends one outfit to the end of the collection's items.
	AppendItem(ctx context.Context, userID string, collectionID primitive.ObjectID, item models.OutfitResult) error
}

// Coordinator makes a batch durable one item at a time.
type Coordinator struct {
	store CollectionStore
}

func NewCoordinator(store CollectionStore) *Coordinator {
	return &Coordinator{store: store}
}

// BeginCollection creates the batch's collection before any item is generated.
func (c *Coordinator) BeginCollection(ctx context.Context, userID string) (primitive.ObjectID, error) {
	col, err := c.store.CreateCollection(ctx, userID)
	if err != nil {
		return primitive.NilObjectID, &StorageError{Op: "create collection", Err: err}
	}
	return col.ID, nil
}

// AppendResult stores one finished outfit. A failure is never rolled back.
func (c *Coordinator) AppendResult(ctx context.Context, collectionID primitive.ObjectID, userID string, result models.OutfitResult) error {
	if err := c.store.AppendItem(ctx, userID, collectionID, result); err != nil {
		return &StorageError{Op: "append item", Err: err}
	}
	return nil
}
