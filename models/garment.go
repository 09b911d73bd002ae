package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GarmentImage is one uploaded garment photo and the text generated for it
type GarmentImage struct {
	ImageURL         string    `bson:"image_url" json:"url"`
	Name             string    `bson:"name" json:"name"`
	Description      string    `bson:"description" json:"description"`
	ModelDescription string    `bson:"model_description,omitempty" json:"modelDescription,omitempty"`
	Upscale          bool      `bson:"upscale" json:"upscale"`
	AIDescription    string    `bson:"ai_description,omitempty" json:"aiDescription,omitempty"`
	CreatedAt        time.Time `bson:"created_at" json:"uploadDate"`
}

// ClothingItem pairs a top garment with an optional lower garment
type ClothingItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Top       GarmentImage       `bson:"top" json:"top"`
	Bottom    *GarmentImage      `bson:"bottom,omitempty" json:"bottom"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// GarmentDescription is what the image-understanding model reports for a garment photo
type GarmentDescription struct {
	Gender string `json:"gender"`
	Outfit string `json:"outfit"`
}

// DefaultModelPrompt is used when an item carries no model description.
const DefaultModelPrompt = "full body shot, fashion model wearing jeans and t-shirt in a neutral pose, studio lighting"

// ModelPromptFor builds the base-model prompt for a described garment.
func ModelPromptFor(d GarmentDescription) string {
	return "full body shot, fashion " + d.Gender + " model wearing " + d.Outfit + " in a neutral pose, full body shot, studio lighting"
}
