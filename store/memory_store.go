package store

import (
	"context"
	"sync"
	"time"

	"github.com/raushankrgupta/fitly-outfits/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is a process-local store used by the CLI and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[primitive.ObjectID]*models.User), now: time.Now}
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) UpsertGoogleUser(ctx context.Context, in models.User) (*models.User, error) {
	if in.Email == "" {
		return nil, ErrEmailMissing
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == in.Email {
			u.Name, u.Image, u.GoogleID = in.Name, in.Image, in.GoogleID
			return cloneUser(u), nil
		}
	}
	u := &models.User{
		ID:          primitive.NewObjectID(),
		Name:        in.Name,
		Email:       in.Email,
		Image:       in.Image,
		GoogleID:    in.GoogleID,
		Clothes:     []models.ClothingItem{},
		Collections: []models.Collection{},
		CreatedAt:   s.now(),
	}
	s.users[u.ID] = u
	return cloneUser(u), nil
}

func (s *MemoryStore) AddClothes(ctx context.Context, userID string, items []models.ClothingItem) error {
	return s.update(userID, func(u *models.User) error {
		u.Clothes = append(u.Clothes, items...)
		return nil
	})
}

func (s *MemoryStore) SetBottom(ctx context.Context, userID string, index int, bottom models.GarmentImage) (*models.ClothingItem, error) {
	var item models.ClothingItem
	err := s.update(userID, func(u *models.User) error {
		if index < 0 || index >= len(u.Clothes) {
			return ErrOutOfRange
		}
		c := &u.Clothes[index]
		c.Bottom = &bottom
		c.Top.ModelDescription = joinPrompt(c.Top.ModelDescription, bottom.Description)
		item = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *MemoryStore) RemoveBottom(ctx context.Context, userID, itemID string) (*models.GarmentImage, error) {
	iid, err := parseID(itemID)
	if err != nil {
		return nil, err
	}
	var removed *models.GarmentImage
	err = s.update(userID, func(u *models.User) error {
		for i := range u.Clothes {
			if u.Clothes[i].ID == iid {
				removed = u.Clothes[i].Bottom
				u.Clothes[i].Bottom = nil
				return nil
			}
		}
		return ErrNotFound
	})
	return removed, err
}

func (s *MemoryStore) RemoveClothes(ctx context.Context, userID, imageURL string) ([]models.ClothingItem, error) {
	var removed []models.ClothingItem
	err := s.update(userID, func(u *models.User) error {
		kept := u.Clothes[:0]
		for _, c := range u.Clothes {
			if c.Top.ImageURL == imageURL {
				removed = append(removed, c)
				continue
			}
			kept = append(kept, c)
		}
		u.Clothes = kept
		return nil
	})
	return removed, err
}

func (s *MemoryStore) CreateCollection(ctx context.Context, userID string) (models.Collection, error) {
	col := newCollection(s.now())
	err := s.update(userID, func(u *models.User) error {
		u.Collections = append(u.Collections, col)
		return nil
	})
	if err != nil {
		return models.Collection{}, err
	}
	return col, nil
}

func (s *MemoryStore) AppendItem(ctx context.Context, userID string, collectionID primitive.ObjectID, item models.OutfitResult) error {
	return s.update(userID, func(u *models.User) error {
		for i := range u.Collections {
			if u.Collections[i].ID == collectionID {
				u.Collections[i].Items = append(u.Collections[i].Items, item)
				return nil
			}
		}
		return ErrNotFound
	})
}

func (s *MemoryStore) ListCollections(ctx context.Context, userID string) ([]models.Collection, error) {
	u, err := s.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Collections, nil
}

func (s *MemoryStore) RenameCollection(ctx context.Context, userID string, collectionID primitive.ObjectID, name string) ([]models.Collection, error) {
	err := s.update(userID, func(u *models.User) error {
		for i := range u.Collections {
			if u.Collections[i].ID == collectionID {
				u.Collections[i].Name = name
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ListCollections(ctx, userID)
}

func (s *MemoryStore) DeleteCollection(ctx context.Context, userID string, collectionID primitive.ObjectID) ([]models.Collection, error) {
	err := s.update(userID, func(u *models.User) error {
		kept := u.Collections[:0]
		for _, c := range u.Collections {
			if c.ID != collectionID {
				kept = append(kept, c)
			}
		}
		u.Collections = kept
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ListCollections(ctx, userID)
}

func (s *MemoryStore) update(userID string, fn func(*models.User) error) error {
	id, err := parseID(userID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	return fn(u)
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Clothes = append([]models.ClothingItem(nil), u.Clothes...)
	c.Collections = make([]models.Collection, len(u.Collections))
	for i, col := range u.Collections {
		col.Items = append([]models.OutfitResult{}, col.Items...)
		c.Collections[i] = col
	}
	return &c
}
