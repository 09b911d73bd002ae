package store

import (
	"context"
	"errors"
	"testing"

	"github.com/raushankrgupta/fitly-outfits/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestUser(t *testing.T, s *MemoryStore) *models.User {
	t.Helper()
	u, err := s.UpsertGoogleUser(context.Background(), models.User{Name: "Ana", Email: "ana@example.com", GoogleID: "g-1"})
	if err != nil {
		t.Fatalf("UpsertGoogleUser: %v", err)
	}
	return u
}

func TestMemoryStoreUpsertGoogleUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	first := newTestUser(t, s)

	again, err := s.UpsertGoogleUser(ctx, models.User{Name: "Ana B", Email: "ana@example.com", GoogleID: "g-1"})
	if err != nil {
		t.Fatalf("UpsertGoogleUser: %v", err)
	}
	if again.ID != first.ID || again.Name != "Ana B" {
		t.Fatalf("expected the existing user to be refreshed, got %+v", again)
	}
	if _, err := s.UpsertGoogleUser(ctx, models.User{Name: "x"}); !errors.Is(err, ErrEmailMissing) {
		t.Fatalf("expected ErrEmailMissing, got %v", err)
	}
	if _, err := s.FindUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.FindUserByID(ctx, "not-hex"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestMemoryStoreCollections(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := newTestUser(t, s)
	uid := u.ID.Hex()

	col, err := s.CreateCollection(ctx, uid)
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if col.ID.IsZero() || col.Items == nil || len(col.Items) != 0 || col.Date.IsZero() {
		t.Fatalf("new collection must be empty with id and date, got %+v", col)
	}

	for _, url := range []string{"a", "b"} {
		if err := s.AppendItem(ctx, uid, col.ID, models.OutfitResult{OriginalImageURL: url}); err != nil {
			t.Fatalf("AppendItem: %v", err)
		}
	}
	if err := s.AppendItem(ctx, uid, primitive.NewObjectID(), models.OutfitResult{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("append to unknown collection: %v", err)
	}

	cols, err := s.ListCollections(ctx, uid)
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(cols) != 1 || len(cols[0].Items) != 2 || cols[0].Items[0].OriginalImageURL != "a" || cols[0].Items[1].OriginalImageURL != "b" {
		t.Fatalf("unexpected collections %+v", cols)
	}

	// returned values are copies
	cols[0].Items[0].OriginalImageURL = "mutated"
	again, _ := s.ListCollections(ctx, uid)
	if again[0].Items[0].OriginalImageURL != "a" {
		t.Fatal("store state leaked through a returned slice")
	}

	cols, err = s.RenameCollection(ctx, uid, col.ID, "Summer")
	if err != nil || cols[0].Name != "Summer" {
		t.Fatalf("rename: %+v, %v", cols, err)
	}
	cols, err = s.RenameCollection(ctx, uid, primitive.NewObjectID(), "Nope")
	if err != nil || len(cols) != 1 || cols[0].Name != "Summer" {
		t.Fatalf("renaming an unknown collection must be a no-op: %+v, %v", cols, err)
	}
	cols, err = s.DeleteCollection(ctx, uid, col.ID)
	if err != nil || len(cols) != 0 {
		t.Fatalf("delete: %+v, %v", cols, err)
	}
}

func TestMemoryStoreClothes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := newTestUser(t, s)
	uid := u.ID.Hex()

	items := []models.ClothingItem{
		{ID: primitive.NewObjectID(), Top: models.GarmentImage{ImageURL: "https://cdn/t1.jpg", ModelDescription: "full body shot"}},
		{ID: primitive.NewObjectID(), Top: models.GarmentImage{ImageURL: "https://cdn/t2.jpg"}},
	}
	if err := s.AddClothes(ctx, uid, items); err != nil {
		t.Fatalf("AddClothes: %v", err)
	}

	item, err := s.SetBottom(ctx, uid, 0, models.GarmentImage{ImageURL: "https://cdn/b.jpg", Description: "blue jeans"})
	if err != nil {
		t.Fatalf("SetBottom: %v", err)
	}
	if item.Bottom == nil || item.Top.ModelDescription != "full body shot and blue jeans" {
		t.Fatalf("unexpected item %+v", item)
	}
	if _, err := s.SetBottom(ctx, uid, 5, models.GarmentImage{}); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}

	bottom, err := s.RemoveBottom(ctx, uid, items[0].ID.Hex())
	if err != nil || bottom == nil || bottom.ImageURL != "https://cdn/b.jpg" {
		t.Fatalf("RemoveBottom: %+v, %v", bottom, err)
	}
	if _, err := s.RemoveBottom(ctx, uid, primitive.NewObjectID().Hex()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	removed, err := s.RemoveClothes(ctx, uid, "https://cdn/t2.jpg")
	if err != nil || len(removed) != 1 || removed[0].ID != items[1].ID {
		t.Fatalf("RemoveClothes: %+v, %v", removed, err)
	}
	user, _ := s.FindUserByID(ctx, uid)
	if len(user.Clothes) != 1 || user.Clothes[0].Bottom != nil {
		t.Fatalf("unexpected clothes %+v", user.Clothes)
	}
}
