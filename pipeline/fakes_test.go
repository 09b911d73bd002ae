package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/raushankrgupta/fitly-outfits/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type generatorCall struct {
	Method string
	Args   []string
}

// fakeGenerator records every call. Unset hooks return deterministic URLs.
type fakeGenerator struct {
	mu    sync.Mutex
	calls []generatorCall

	model   func(ctx context.Context, prompt string) (string, error)
	swap    func(ctx context.Context, human, garment, clothType string) (string, error)
	overlay func(ctx context.Context, human, garment, description string) (string, error)
	upscale func(ctx context.Context, image string) (string, error)
}

func (f *fakeGenerator) record(method string, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, generatorCall{Method: method, Args: args})
}

func (f *fakeGenerator) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *fakeGenerator) last(method string) generatorCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Method == method {
			return f.calls[i]
		}
	}
	return generatorCall{}
}

func (f *fakeGenerator) GenerateBaseModel(ctx context.Context, prompt string) (string, error) {
	f.record("model", prompt)
	if f.model != nil {
		return f.model(ctx, prompt)
	}
	return "https://gen/model.png", nil
}

func (f *fakeGenerator) SwapGarment(ctx context.Context, human, garment, clothType string) (string, error) {
	f.record("swap", human, garment, clothType)
	if f.swap != nil {
		return f.swap(ctx, human, garment, clothType)
	}
	return "https://gen/swap.png", nil
}

func (f *fakeGenerator) OverlayGarment(ctx context.Context, human, garment, description string) (string, error) {
	f.record("overlay", human, garment, description)
	if f.overlay != nil {
		return f.overlay(ctx, human, garment, description)
	}
	return "https://gen/overlay-" + garment, nil
}

func (f *fakeGenerator) Upscale(ctx context.Context, image string) (string, error) {
	f.record("upscale", image)
	if f.upscale != nil {
		return f.upscale(ctx, image)
	}
	return image + "?upscaled", nil
}

// fakeCollectionStore keeps collections in memory and can fail on demand.
type fakeCollectionStore struct {
	mu          sync.Mutex
	created     int
	collections map[primitive.ObjectID][]models.OutfitResult
	createErr   error
	appendErr   func(item models.OutfitResult) error
}

func newFakeCollectionStore() *fakeCollectionStore {
	return &fakeCollectionStore{collections: make(map[primitive.ObjectID][]models.OutfitResult)}
}

func (s *fakeCollectionStore) CreateCollection(ctx context.Context, userID string) (models.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return models.Collection{}, s.createErr
	}
	s.created++
	col := models.Collection{ID: primitive.NewObjectID(), Date: time.Now(), Items: []models.OutfitResult{}}
	s.collections[col.ID] = col.Items
	return col, nil
}

func (s *fakeCollectionStore) AppendItem(ctx context.Context, userID string, collectionID primitive.ObjectID, item models.OutfitResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		if err := s.appendErr(item); err != nil {
			return err
		}
	}
	items, ok := s.collections[collectionID]
	if !ok {
		return errors.New("collection not found")
	}
	s.collections[collectionID] = append(items, item)
	return nil
}

func (s *fakeCollectionStore) items(id primitive.ObjectID) []models.OutfitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OutfitResult(nil), s.collections[id]...)
}

type streamRecord struct {
	Type             string `json:"type"`
	Index            int    `json:"index"`
	OriginalImage    string `json:"originalImage"`
	GeneratedImage   string `json:"generatedImage"`
	ModelDescription string `json:"modelDescription"`
	Upscaled         bool   `json:"upscaled"`
	UpscaleStatus    string `json:"upscaleStatus"`
	CollectionID     string `json:"collectionId"`
	Stage            string `json:"stage"`
	Error            string `json:"error"`
}

func decodeRecords(t *testing.T, buf *bytes.Buffer) []streamRecord {
	t.Helper()
	var records []streamRecord
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var r streamRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("decode record %q: %v", sc.Text(), err)
		}
		records = append(records, r)
	}
	return records
}

func garments(n int) []models.GarmentInput {
	items := make([]models.GarmentInput, n)
	for i := range items {
		items[i] = models.GarmentInput{
			TopImageURL:      fmt.Sprintf("https://cdn/top-%d.jpg", i),
			ModelDescription: fmt.Sprintf("prompt-%d", i),
		}
	}
	return items
}
