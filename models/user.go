package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered user together with the garments they uploaded
// and the outfit collections generated from them.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	GoogleID    string             `bson:"google_id,omitempty" json:"google_id,omitempty"`
	Clothes     []ClothingItem     `bson:"clothes" json:"clothes"`
	Collections []Collection       `bson:"collections" json:"collections"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
