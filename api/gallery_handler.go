package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/raushankrgupta/fitly-outfits/models"
	"github.com/raushankrgupta/fitly-outfits/store"
	"github.com/raushankrgupta/fitly-outfits/utils"
)

// GalleryBottom is the lower garment attached to a gallery image
type GalleryBottom struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	Description   string `json:"description"`
	AIDescription string `json:"aiDescription"`
}

// GalleryImage is one uploaded garment as shown in the gallery
type GalleryImage struct {
	ID               string         `json:"_id"`
	Name             string         `json:"name"`
	URL              string         `json:"url"`
	UploadDate       time.Time      `json:"uploadDate"`
	Description      string         `json:"description"`
	ModelDescription string         `json:"modelDescription"`
	Upscale          bool           `json:"upscale"`
	ContentType      string         `json:"contentType"`
	Size             int            `json:"size"`
	Bottom           *GalleryBottom `json:"bottom"`
}

// GalleryImages maps the user's clothes to gallery entries, newest first.
// Items without a top image are left out.
func GalleryImages(clothes []models.ClothingItem) []GalleryImage {
	images := make([]GalleryImage, 0, len(clothes))
	for _, item := range clothes {
		if item.Top.ImageURL == "" {
			continue
		}
		img := GalleryImage{
			ID:               item.ID.Hex(),
			Name:             item.Top.Name,
			URL:              item.Top.ImageURL,
			UploadDate:       item.Top.CreatedAt,
			Description:      item.Top.Description,
			ModelDescription: item.Top.ModelDescription,
			Upscale:          item.Top.Upscale,
			ContentType:      "image/jpeg",
		}
		if item.Bottom != nil {
			img.Bottom = &GalleryBottom{
				Name:          item.Bottom.Name,
				URL:           item.Bottom.ImageURL,
				Description:   item.Bottom.Description,
				AIDescription: item.Bottom.AIDescription,
			}
		}
		images = append(images, img)
	}
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].UploadDate.After(images[j].UploadDate)
	})
	return images
}

// currentUser loads the signed-in user and writes the error response when that fails.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request, logMessageBuilder *strings.Builder) (*models.User, bool) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	user, err := h.Store.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			utils.RespondError(w, logMessageBuilder, "User not found", http.StatusNotFound)
			return nil, false
		}
		utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("Find user: %v", err))
		utils.RespondError(w, logMessageBuilder, "Failed to fetch user", http.StatusInternalServerError)
		return nil, false
	}
	return user, true
}

// ImagesHandler lists the user's uploaded garments for the gallery
func (h *Handler) ImagesHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(h.Logger, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Images API]")

	user, ok := h.currentUser(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, GalleryImages(user.Clothes))
}

// ListClothesHandler returns the user's clothing items, newest first
func (h *Handler) ListClothesHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(h.Logger, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[List Clothes API]")

	user, ok := h.currentUser(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"clothes": newestFirst(user.Clothes)})
}

func newestFirst(clothes []models.ClothingItem) []models.ClothingItem {
	out := append([]models.ClothingItem{}, clothes...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

type imageURLRequest struct {
	ImageURL string `json:"imageUrl"`
}

// DeleteClothesHandler removes every clothing item whose top image is imageUrl,
// and deletes the removed photos from the blob store.
func (h *Handler) DeleteClothesHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(h.Logger, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Delete Clothes API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req imageURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageURL == "" {
		utils.RespondError(w, &logMessageBuilder, "Image URL is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	removed, err := h.Store.RemoveClothes(ctx, userID, req.ImageURL)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, &logMessageBuilder, "User not found", http.StatusNotFound)
			return
		}
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Remove clothes: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Error deleting clothing item", http.StatusInternalServerError)
		return
	}

	for _, item := range removed {
		h.Blobs.Delete(ctx, item.Top.ImageURL)
		if item.Bottom != nil {
			h.Blobs.Delete(ctx, item.Bottom.ImageURL)
		}
	}

	user, err := h.Store.FindUserByID(ctx, userID)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Error fetching clothes", http.StatusInternalServerError)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Removed %d item(s)", len(removed)))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Clothing item removed successfully",
		"clothes": newestFirst(user.Clothes),
	})
}

// DeleteBottomHandler removes the lower garment of one clothing item
func (h *Handler) DeleteBottomHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(h.Logger, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Delete Bottom API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	bottom, err := h.Store.RemoveBottom(ctx, userID, mux.Vars(r)["id"])
	switch {
	case errors.Is(err, store.ErrInvalidID):
		utils.RespondError(w, &logMessageBuilder, "Item ID is required", http.StatusBadRequest)
		return
	case errors.Is(err, store.ErrNotFound):
		utils.RespondError(w, &logMessageBuilder, "Clothing item not found", http.StatusNotFound)
		return
	case err != nil:
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Remove bottom: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to delete bottom image", http.StatusInternalServerError)
		return
	}

	if bottom != nil && bottom.ImageURL != "" {
		h.Blobs.Delete(ctx, bottom.ImageURL)
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Bottom image deleted successfully",
	})
}

// DeleteImageHandler deletes a stored image by URL
func (h *Handler) DeleteImageHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(h.Logger, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Delete Image API]")

	var req imageURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageURL == "" {
		utils.RespondError(w, &logMessageBuilder, "Image URL is required", http.StatusBadRequest)
		return
	}

	if !h.Blobs.Delete(r.Context(), req.ImageURL) {
		utils.RespondError(w, &logMessageBuilder, "Failed to delete image", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Image deleted successfully",
	})
}
