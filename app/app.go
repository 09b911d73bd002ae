// Package app wires configuration into the services used by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/raushankrgupta/fitly-outfits/blobstore"
	"github.com/raushankrgupta/fitly-outfits/config"
	"github.com/raushankrgupta/fitly-outfits/falai"
	"github.com/raushankrgupta/fitly-outfits/notify"
	"github.com/raushankrgupta/fitly-outfits/pipeline"
	"go.uber.org/zap"
)

// NewBatchRunner builds the generation pipeline on top of fal.ai and the given collection store.
func NewBatchRunner(store pipeline.CollectionStore, logger *zap.Logger) (*pipeline.BatchRunner, error) {
	if config.FalKey == "" {
		return nil, fmt.Errorf("FAL_KEY is not set")
	}
	fal := falai.NewClient(config.FalKey,
		falai.WithQueueURL(config.FalQueueURL),
		falai.WithPollInterval(config.FalPollInterval),
		falai.WithHTTPClient(&http.Client{Timeout: time.Minute}),
		falai.WithLogger(logger.Named("falai")),
	)
	stages := pipeline.NewStages(pipeline.NewFalGenerator(fal), config.StageTimeout, logger.Named("stages"))
	return pipeline.NewBatchRunner(
		pipeline.NewPipeline(stages, logger.Named("pipeline")),
		pipeline.NewCoordinator(store),
		pipeline.WithConcurrency(config.PipelineConcurrency),
		pipeline.WithDeadline(config.BatchTimeout),
		pipeline.WithBatchLogger(logger.Named("batch")),
	), nil
}

// NewBlobStore returns the object store selected by BLOB_BACKEND.
func NewBlobStore(ctx context.Context, logger *zap.Logger) (blobstore.Store, error) {
	switch config.BlobBackend {
	case "s3":
		return blobstore.NewS3Store(ctx, config.AWSRegion, config.AWSBucketName, config.S3PublicRead, logger.Named("s3"))
	case "minio":
		return blobstore.NewMinioStore(ctx, blobstore.MinioConfig{
			Endpoint:  config.MinioEndpoint,
			AccessKey: config.MinioAccessKey,
			SecretKey: config.MinioSecretKey,
			Bucket:    config.MinioBucket,
			UseSSL:    config.MinioUseSSL,
		}, logger.Named("minio"))
	default:
		return nil, fmt.Errorf("unknown BLOB_BACKEND %q", config.BlobBackend)
	}
}

// NewNotifier sends mail through SendGrid when a key is configured.
func NewNotifier(logger *zap.Logger) notify.Notifier {
	if config.SendGridAPIKey == "" {
		return notify.Nop{}
	}
	return notify.NewSendGridMailer(config.SendGridAPIKey, config.SendGridFrom, logger.Named("sendgrid"))
}
