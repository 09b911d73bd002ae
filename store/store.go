// Package store keeps users, their clothes and their outfit collections.
package store

import (
	"errors"
	"time"

	"github.com/raushankrgupta/fitly-outfits/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidID    = errors.New("invalid id")
	ErrOutOfRange   = errors.New("clothing index out of range")
	ErrEmailMissing = errors.New("email is required")
)

func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

func newCollection(now time.Time) models.Collection {
	return models.Collection{
		ID:    primitive.NewObjectID(),
		Date:  now,
		Name:  "",
		Items: []models.OutfitResult{},
	}
}

func joinPrompt(prompt, addition string) string {
	if addition == "" {
		return prompt
	}
	return prompt + " and " + addition
}
