package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/raushankrgupta/fitly-outfits/models"
	"go.uber.org/zap"
)

// Stage names, also used in diagnostics and error records
const (
	StageModel     = "model"
	StageLowerSwap = "lowerSwap"
	StageOverlay   = "overlay"
	StageUpscale   = "upscale"
	StageFinal     = "final"
)

// ClothTypeLower is the region tag for swapping the lower garment.
const ClothTypeLower = "lower"

// Generator is the external image-generation capability behind the stages.
// Each call returns a URL of the produced image.
type Generator interface {
	GenerateBaseModel(ctx context.Context, prompt string) (string, error)
	SwapGarment(ctx context.Context, humanImageURL, garmentImageURL, clothType string) (string, error)
	OverlayGarment(ctx context.Context, humanImageURL, garmentImageURL, description string) (string, error)
	Upscale(ctx context.Context, imageURL string) (string, error)
}

var errNoImage = errors.New("response has no image url")

// Stages wraps a Generator with the stage contracts: a per-call timeout,
// UpstreamGenerationError on failure, and a best-effort upscale.
type Stages struct {
	gen     Generator
	timeout time.Duration
	logger  *zap.Logger
}

func NewStages(gen Generator, timeout time.Duration, logger *zap.Logger) *Stages {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stages{gen: gen, timeout: timeout, logger: logger}
}

func (s *Stages) GenerateBaseModel(ctx context.Context, prompt string) (string, error) {
	return s.call(ctx, StageModel, func(ctx context.Context) (string, error) {
		return s.gen.GenerateBaseModel(ctx, prompt)
	})
}

func (s *Stages) SwapGarment(ctx context.Context, humanImageURL, garmentImageURL, clothType string) (string, error) {
	return s.call(ctx, StageLowerSwap, func(ctx context.Context) (string, error) {
		return s.gen.SwapGarment(ctx, humanImageURL, garmentImageURL, clothType)
	})
}

func (s *Stages) OverlayGarment(ctx context.Context, humanImageURL, garmentImageURL, description string) (string, error) {
	return s.call(ctx, StageOverlay, func(ctx context.Context) (string, error) {
		return s.gen.OverlayGarment(ctx, humanImageURL, garmentImageURL, description)
	})
}

// Upscale never fails. On any error it returns imageURL unchanged with UpscaleFellBack.
func (s *Stages) Upscale(ctx context.Context, imageURL string) (string, string) {
	if err := ctx.Err(); err != nil {
		s.logger.Warn("upscale skipped, keeping original image", zap.String("image", imageURL), zap.Error(err))
		return imageURL, models.UpscaleFellBack
	}
	out, err := s.call(ctx, StageUpscale, func(ctx context.Context) (string, error) {
		return s.gen.Upscale(ctx, imageURL)
	})
	if err != nil {
		s.logger.Warn("upscale fell back to original image", zap.String("image", imageURL), zap.Error(err))
		return imageURL, models.UpscaleFellBack
	}
	return out, models.UpscaleApplied
}

func (s *Stages) call(ctx context.Context, stage string, fn func(context.Context) (string, error)) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	url, err := fn(ctx)
	if err == nil && url == "" {
		err = errNoImage
	}
	if err != nil {
		return "", &UpstreamGenerationError{Stage: stage, Err: err}
	}
	s.logger.Debug("stage completed", zap.String("stage", stage), zap.Duration("took", time.Since(start)))
	return url, nil
}
