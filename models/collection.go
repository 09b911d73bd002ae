package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Upscale outcomes recorded on every generated outfit
const (
	UpscaleApplied  = "upscaled"
	UpscaleSkipped  = "skipped"
	UpscaleFellBack = "fell_back"
)

// ImageRef is the nested {"url": ...} shape the gallery sends for a lower garment
type ImageRef struct {
	URL string `json:"url"`
}

// GarmentInput is one item of a generation batch
type GarmentInput struct {
	TopImageURL      string    `json:"url"`
	BottomImageURL   string    `json:"bottomUrl,omitempty"`
	Bottom           *ImageRef `json:"bottom,omitempty"`
	Description      string    `json:"description"`
	ModelDescription string    `json:"modelDescription"`
	Upscale          bool      `json:"upscale"`
}

// BottomURL returns the lower garment reference, from either accepted field.
func (g GarmentInput) BottomURL() string {
	if g.BottomImageURL != "" {
		return g.BottomImageURL
	}
	if g.Bottom != nil {
		return g.Bottom.URL
	}
	return ""
}

// OutfitResult is a completed generation for one garment input
type OutfitResult struct {
	OriginalImageURL  string             `bson:"original_image_url" json:"originalImage"`
	GeneratedImageURL string             `bson:"image_url" json:"generatedImage"`
	Description       string             `bson:"description" json:"description"`
	ModelDescription  string             `bson:"model_description" json:"modelDescription"`
	Upscaled          bool               `bson:"upscaled" json:"upscaled"`
	UpscaleStatus     string             `bson:"upscale_status" json:"upscaleStatus"`
	CollectionID      primitive.ObjectID `bson:"-" json:"collectionId"`
	CreatedAt         time.Time          `bson:"created_at" json:"createdAt"`
}

// Collection groups the outfits of one generation batch. Items are kept in completion order.
type Collection struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Date  time.Time          `bson:"date" json:"date"`
	Name  string             `bson:"name" json:"name"`
	Items []OutfitResult     `bson:"items" json:"items"`
}
