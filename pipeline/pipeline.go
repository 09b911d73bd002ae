package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/raushankrgupta/fitly-outfits/models"
	"go.uber.org/zap"
)

// Pipeline turns one GarmentInput into an OutfitResult.
type Pipeline struct {
	stages *Stages
	plan   []Stage
	logger *zap.Logger
	now    func() time.Time
}

// NewPipeline builds the outfit plan over stages.
func NewPipeline(stages *Stages, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{stages: stages, logger: logger, now: time.Now}
	p.plan = []Stage{
		Required(StageModel, func(ctx context.Context, st *itemState) error {
			url, err := p.stages.GenerateBaseModel(ctx, st.prompt)
			if err != nil {
				return err
			}
			st.advance(StageModel, url)
			return nil
		}),
		Optional(StageLowerSwap, func(st *itemState) bool { return st.input.BottomURL() != "" },
			func(ctx context.Context, st *itemState) error {
				url, err := p.stages.SwapGarment(ctx, st.current, st.input.BottomURL(), ClothTypeLower)
				if err != nil {
					return err
				}
				st.advance(StageLowerSwap, url)
				return nil
			}),
		Required(StageOverlay, func(ctx context.Context, st *itemState) error {
			url, err := p.stages.OverlayGarment(ctx, st.current, st.input.TopImageURL, st.input.Description)
			if err != nil {
				return err
			}
			st.advance(StageOverlay, url)
			return nil
		}),
		BestEffort(StageUpscale, func(st *itemState) bool { return st.input.Upscale },
			func(ctx context.Context, st *itemState) error {
				url, status := p.stages.Upscale(ctx, st.current)
				st.upscaleStatus = status
				st.current = url
				return nil
			}),
	}
	return p
}

// ResolvePrompt returns the item's model prompt or the canned default.
func ResolvePrompt(in models.GarmentInput) string {
	if p := strings.TrimSpace(in.ModelDescription); p != "" {
		return in.ModelDescription
	}
	return models.DefaultModelPrompt
}

// ProcessItem runs the plan for one item. On error no result is produced.
// The returned trail lists every intermediate image, ending with StageFinal.
func (p *Pipeline) ProcessItem(ctx context.Context, in models.GarmentInput) (models.OutfitResult, []StageResult, error) {
	if strings.TrimSpace(in.TopImageURL) == "" {
		return models.OutfitResult{}, nil, ErrMissingImage
	}

	st := &itemState{
		input:         in,
		prompt:        ResolvePrompt(in),
		upscaleStatus: models.UpscaleSkipped,
	}
	if err := runStages(ctx, p.plan, st); err != nil {
		return models.OutfitResult{}, st.trail, err
	}
	st.trail = append(st.trail, StageResult{Stage: StageFinal, ImageURL: st.current})

	result := models.OutfitResult{
		OriginalImageURL:  in.TopImageURL,
		GeneratedImageURL: st.current,
		Description:       in.Description,
		ModelDescription:  st.prompt,
		// mirrors the request flag even when the upscale fell back; UpscaleStatus has the outcome
		Upscaled:      in.Upscale,
		UpscaleStatus: st.upscaleStatus,
		CreatedAt:     p.now(),
	}
	return result, st.trail, nil
}
