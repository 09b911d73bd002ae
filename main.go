package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raushankrgupta/fitly-outfits/api"
	"github.com/raushankrgupta/fitly-outfits/app"
	"github.com/raushankrgupta/fitly-outfits/config"
	"github.com/raushankrgupta/fitly-outfits/importer"
	"github.com/raushankrgupta/fitly-outfits/store"
	"github.com/raushankrgupta/fitly-outfits/utils"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func main() {
	config.LoadConfig()

	logger, err := utils.NewLogger(config.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	// Initialize MongoDB
	db, err := store.ConnectMongo(ctx, config.MongoURI, config.DBName)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer db.Close(context.Background())

	blobs, err := app.NewBlobStore(ctx, logger)
	if err != nil {
		logger.Fatal("Failed to initialize blob store", zap.String("backend", config.BlobBackend), zap.Error(err))
	}

	describer, err := utils.NewGeminiDescriber(ctx, config.GeminiAPIKey, config.GeminiModel, logger.Named("gemini"))
	if err != nil {
		logger.Fatal("Failed to initialize Gemini", zap.Error(err))
	}
	defer describer.Close()

	batches, err := app.NewBatchRunner(db, logger)
	if err != nil {
		logger.Fatal("Failed to initialize generation pipeline", zap.Error(err))
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	var oauthConfig *oauth2.Config
	if config.GoogleClientID != "" {
		oauthConfig = api.NewGoogleOAuthConfig(config.GoogleClientID, config.GoogleClientSecret, config.GoogleRedirectURL)
	}

	handler := api.NewHandler(api.Deps{
		Store:      db,
		Blobs:      blobs,
		Describer:  describer,
		Batches:    batches,
		Finder:     importer.NewImageFinder(httpClient),
		Notifier:   app.NewNotifier(logger),
		OAuth:      oauthConfig,
		JWTSecret:  config.JWTSecret,
		HTTPClient: httpClient,
		Logger:     logger.Named("api"),
	})

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Server shutdown", zap.Error(err))
		}
	}()

	logger.Info("Server starting", zap.String("port", config.Port), zap.String("blob_backend", config.BlobBackend))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed to start", zap.Error(err))
	}
}
