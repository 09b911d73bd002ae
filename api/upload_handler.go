package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raushankrgupta/fitly-outfits/models"
	"github.com/raushankrgupta/fitly-outfits/store"
	"github.com/raushankrgupta/fitly-outfits/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxUploadBytes    = 32 << 20
	uploadConcurrency = 5
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// sanitizeFilename replaces whitespace runs with underscores
func sanitizeFilename(name string) string {
	return strings.Join(strings.Fields(filepath.Base(name)), "_")
}

// storedGarment is an uploaded object with its public URL and description.
type storedGarment struct {
	URL         string
	Name        string
	Description models.GarmentDescription
}

// storeGarment uploads data, publishes it and describes it.
func (h *Handler) storeGarment(ctx context.Context, userID, name, contentType string, data []byte) (storedGarment, error) {
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return storedGarment{}, fmt.Errorf("invalid file type for %s. Only JPEG and PNG are allowed", name)
	}
	key := fmt.Sprintf("garments/%s/%s%s", userID, uuid.New().String(), ext)
	if err := h.Blobs.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return storedGarment{}, err
	}
	url, err := h.Blobs.MakePublic(ctx, key)
	if err != nil {
		return storedGarment{}, err
	}
	return storedGarment{URL: url, Name: name, Description: h.Describer.DescribeGarment(ctx, url)}, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

type uploadedImage struct {
	URL              string `json:"url"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	ModelDescription string `json:"modelDescription"`
	Upscale          bool   `json:"upscale"`
	AIDescription    string `json:"aiDescription"`
}

// UploadHandler stores garment photos, describes them and adds them to the user's clothes.
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(h.Logger, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Upload API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Error parsing form data", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		utils.RespondError(w, &logMessageBuilder, "No images provided", http.StatusBadRequest)
		return
	}
	modelDescriptions := r.MultipartForm.Value["modelDescriptions"]
	upscaleFlags := r.MultipartForm.Value["upscale"]

	for _, fh := range files {
		if _, ok := allowedImageTypes[fh.Header.Get("Content-Type")]; !ok {
			utils.RespondError(w, &logMessageBuilder,
				fmt.Sprintf("Invalid file type for %s. Only JPEG and PNG are allowed.", fh.Filename), http.StatusBadRequest)
			return
		}
	}

	results := make([]uploadedImage, len(files))
	items := make([]models.ClothingItem, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, uploadConcurrency)
	for i, fh := range files {
		wg.Add(1)
		go func(i int, fh *multipart.FileHeader) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			data, err := readPart(fh)
			if err != nil {
				errs[i] = err
				return
			}
			g, err := h.storeGarment(r.Context(), userID, sanitizeFilename(fh.Filename), fh.Header.Get("Content-Type"), data)
			if err != nil {
				errs[i] = err
				return
			}

			modelDescription := models.ModelPromptFor(g.Description)
			if i < len(modelDescriptions) && strings.TrimSpace(modelDescriptions[i]) != "" {
				modelDescription = modelDescriptions[i]
			}
			top := models.GarmentImage{
				ImageURL:         g.URL,
				Name:             g.Name,
				Description:      g.Description.Outfit,
				ModelDescription: modelDescription,
				Upscale:          i < len(upscaleFlags) && upscaleFlags[i] == "true",
				AIDescription:    g.Description.Outfit,
				CreatedAt:        time.Now(),
			}
			items[i] = models.ClothingItem{ID: primitive.NewObjectID(), Top: top, CreatedAt: top.CreatedAt}
			results[i] = uploadedImage{
				URL:              top.ImageURL,
				Name:             top.Name,
				Description:      top.Description,
				ModelDescription: top.ModelDescription,
				Upscale:          top.Upscale,
				AIDescription:    top.AIDescription,
			}
		}(i, fh)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	if err := h.Store.AddClothes(ctx, userID, items); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Add clothes: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Error saving images", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Uploaded %d images", len(results)))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Images uploaded successfully",
		"images":  results,
	})
}

// UploadBottomHandler attaches a lower garment to one of the user's clothing items.
func (h *Handler) UploadBottomHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(h.Logger, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Upload Bottom API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Error parsing form data", http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		utils.RespondError(w, &logMessageBuilder, "No file provided", http.StatusBadRequest)
		return
	}
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid clothing index", http.StatusBadRequest)
		return
	}

	fh := files[0]
	data, err := readPart(fh)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Error retrieving file", http.StatusBadRequest)
		return
	}
	g, err := h.storeGarment(r.Context(), userID, sanitizeFilename(fh.Filename), fh.Header.Get("Content-Type"), data)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
		return
	}

	description := r.FormValue("description")
	if description == "" {
		description = g.Description.Outfit
	}
	bottom := models.GarmentImage{
		ImageURL:      g.URL,
		Name:          g.Name,
		Description:   description,
		AIDescription: g.Description.Outfit,
		CreatedAt:     time.Now(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	item, err := h.Store.SetBottom(ctx, userID, index, bottom)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrOutOfRange) {
			h.Blobs.Delete(ctx, g.URL)
			utils.RespondError(w, &logMessageBuilder, "User or clothing item not found", http.StatusBadRequest)
			return
		}
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Set bottom: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Error uploading bottom image", http.StatusInternalServerError)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Bottom image uploaded successfully",
		"bottom":  item.Bottom,
	})
}

// ImportRequest names a shop product page to take a garment photo from
type ImportRequest struct {
	URL string `json:"url"`
}

// ImportGarmentHandler adds a garment from a shop's product page.
func (h *Handler) ImportGarmentHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(h.Logger, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Import Garment API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if h.Finder == nil {
		utils.RespondError(w, &logMessageBuilder, "Import is not available", http.StatusNotImplemented)
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		utils.RespondError(w, &logMessageBuilder, "Please provide a product 'url'", http.StatusBadRequest)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Importing from: %s", req.URL))

	imageURL, err := h.Finder.FindImage(r.Context(), req.URL)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Could not find a product image: %v", err), http.StatusUnprocessableEntity)
		return
	}
	data, contentType, err := utils.FetchImage(r.Context(), h.HTTPClient, imageURL)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Could not download product image: %v", err), http.StatusBadGateway)
		return
	}

	name := sanitizeFilename(path.Base(strings.SplitN(imageURL, "?", 2)[0]))
	g, err := h.storeGarment(r.Context(), userID, name, contentType, data)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now()
	item := models.ClothingItem{
		ID: primitive.NewObjectID(),
		Top: models.GarmentImage{
			ImageURL:         g.URL,
			Name:             g.Name,
			Description:      g.Description.Outfit,
			ModelDescription: models.ModelPromptFor(g.Description),
			AIDescription:    g.Description.Outfit,
			CreatedAt:        now,
		},
		CreatedAt: now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	if err := h.Store.AddClothes(ctx, userID, []models.ClothingItem{item}); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Add clothes: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Error saving garment", http.StatusInternalServerError)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Garment imported successfully",
		"item":    item,
	})
}
