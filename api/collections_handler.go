package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/raushankrgupta/fitly-outfits/models"
	"github.com/raushankrgupta/fitly-outfits/store"
	"github.com/raushankrgupta/fitly-outfits/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type renameCollectionRequest struct {
	Name string `json:"name"`
}

func collectionIDFromPath(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(mux.Vars(r)["id"])
}

func respondCollections(w http.ResponseWriter, logMessageBuilder *strings.Builder, collections []models.Collection, err error) {
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, logMessageBuilder, "User not found", http.StatusNotFound)
			return
		}
		utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("Collections: %v", err))
		utils.RespondError(w, logMessageBuilder, "Failed to update collection", http.StatusInternalServerError)
		return
	}
	if collections == nil {
		collections = []models.Collection{}
	}
	utils.RespondJSON(w, http.StatusOK, collections)
}

// ListCollectionsHandler returns the user's generated collections
func (h *Handler) ListCollectionsHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(h.Logger, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[List Collections API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	collections, err := h.Store.ListCollections(ctx, userID)
	respondCollections(w, &logMessageBuilder, collections, err)
}

// RenameCollectionHandler renames a collection. Unknown ids leave the list unchanged.
func (h *Handler) RenameCollectionHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(h.Logger, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Rename Collection API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}
	collectionID, err := collectionIDFromPath(r)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid collection id", http.StatusBadRequest)
		return
	}

	var req renameCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	collections, err := h.Store.RenameCollection(ctx, userID, collectionID, strings.TrimSpace(req.Name))
	respondCollections(w, &logMessageBuilder, collections, err)
}

// DeleteCollectionHandler deletes a collection and returns the remaining ones
func (h *Handler) DeleteCollectionHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(h.Logger, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Delete Collection API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}
	collectionID, err := collectionIDFromPath(r)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid collection id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	collections, err := h.Store.DeleteCollection(ctx, userID, collectionID)
	respondCollections(w, &logMessageBuilder, collections, err)
}
