package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/raushankrgupta/fitly-outfits/blobstore"
	"github.com/raushankrgupta/fitly-outfits/models"
	"github.com/raushankrgupta/fitly-outfits/notify"
	"github.com/raushankrgupta/fitly-outfits/pipeline"
	"github.com/raushankrgupta/fitly-outfits/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const dbTimeout = 10 * time.Second

// Store is everything the handlers need from the user store.
type Store interface {
	pipeline.CollectionStore
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, userID string) (*models.User, error)
	UpsertGoogleUser(ctx context.Context, u models.User) (*models.User, error)
	AddClothes(ctx context.Context, userID string, items []models.ClothingItem) error
	SetBottom(ctx context.Context, userID string, index int, bottom models.GarmentImage) (*models.ClothingItem, error)
	RemoveBottom(ctx context.Context, userID, itemID string) (*models.GarmentImage, error)
	RemoveClothes(ctx context.Context, userID, imageURL string) ([]models.ClothingItem, error)
	ListCollections(ctx context.Context, userID string) ([]models.Collection, error)
	RenameCollection(ctx context.Context, userID string, collectionID primitive.ObjectID, name string) ([]models.Collection, error)
	DeleteCollection(ctx context.Context, userID string, collectionID primitive.ObjectID) ([]models.Collection, error)
}

// Describer describes a garment photo. It never fails.
type Describer interface {
	DescribeGarment(ctx context.Context, imageURL string) models.GarmentDescription
}

// ImageFinder locates the product photo on a shop page.
type ImageFinder interface {
	FindImage(ctx context.Context, pageURL string) (string, error)
}

// Deps are the collaborators of the HTTP layer. Notifier, Finder and OAuth are optional.
type Deps struct {
	Store      Store
	Blobs      blobstore.Store
	Describer  Describer
	Batches    *pipeline.BatchRunner
	Finder     ImageFinder
	Notifier   notify.Notifier
	OAuth      *oauth2.Config
	JWTSecret  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Handler serves the fitly API.
type Handler struct {
	Deps
}

func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.HTTPClient == nil {
		d.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Handler{Deps: d}
}

// Router wires every route. CORS wraps the router so preflight requests never hit a route.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(utils.LatencyMiddleware(h.Logger))

	r.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/auth/google/login", h.GoogleLoginHandler).Methods(http.MethodGet)
	r.HandleFunc("/auth/google/callback", h.GoogleCallbackHandler).Methods(http.MethodGet)

	// the stream reports a missing session as an NDJSON record, not a bare 401
	r.Handle("/api/generate", OptionalAuth(h.JWTSecret)(http.HandlerFunc(h.GenerateHandler))).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(h.JWTSecret))
	api.HandleFunc("/upload", h.UploadHandler).Methods(http.MethodPost)
	api.HandleFunc("/upload-bottom", h.UploadBottomHandler).Methods(http.MethodPost)
	api.HandleFunc("/garments/import", h.ImportGarmentHandler).Methods(http.MethodPost)
	api.HandleFunc("/images", h.ImagesHandler).Methods(http.MethodGet)
	api.HandleFunc("/clothes", h.ListClothesHandler).Methods(http.MethodGet)
	api.HandleFunc("/clothes", h.DeleteClothesHandler).Methods(http.MethodDelete)
	api.HandleFunc("/clothes/{id}/bottom", h.DeleteBottomHandler).Methods(http.MethodDelete)
	api.HandleFunc("/delete-image", h.DeleteImageHandler).Methods(http.MethodPost)
	api.HandleFunc("/collections", h.ListCollectionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/collections/{id}", h.RenameCollectionHandler).Methods(http.MethodPut)
	api.HandleFunc("/collections/{id}", h.DeleteCollectionHandler).Methods(http.MethodDelete)

	return utils.CORSMiddleware(r)
}

// HealthHandler reports liveness
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
