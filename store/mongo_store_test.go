package store

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestCheckUpdate(t *testing.T) {
	t.Run("matched", func(t *testing.T) {
		if err := checkUpdate(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("matched without modification", func(t *testing.T) {
		if err := checkUpdate(&mongo.UpdateResult{MatchedCount: 1}, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("stale array position", func(t *testing.T) {
		// clothes were reordered between the read and the guarded write
		err := checkUpdate(&mongo.UpdateResult{MatchedCount: 0}, nil)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("driver error wins", func(t *testing.T) {
		boom := errors.New("write concern error")
		if err := checkUpdate(nil, boom); !errors.Is(err, boom) {
			t.Fatalf("expected driver error, got %v", err)
		}
	})
}
