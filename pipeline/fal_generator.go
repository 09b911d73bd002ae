package pipeline

import (
	"context"
)

// fal.ai models used by each stage
const (
	ModelFluxPro          = "fal-ai/flux-pro/v1.1"
	ModelCatVTON          = "fal-ai/cat-vton"
	ModelIDMVTON          = "fal-ai/idm-vton"
	ModelClarityUpscaler  = "fal-ai/clarity-upscaler"
	defaultOverlayCaption = "Stylish outfit"
	portraitImageSize     = "portrait_4_3"
)

// Subscriber runs one queued fal.ai request to completion. *falai.Client implements it.
type Subscriber interface {
	Subscribe(ctx context.Context, model string, input any, out any) error
}

// FalGenerator implements Generator over fal.ai hosted models.
type FalGenerator struct {
	fal Subscriber
}

func NewFalGenerator(fal Subscriber) *FalGenerator {
	return &FalGenerator{fal: fal}
}

type falImage struct {
	URL string `json:"url"`
}

type falImagesOutput struct {
	Images []falImage `json:"images"`
}

type falImageOutput struct {
	Image *falImage `json:"image"`
}

func (g *FalGenerator) GenerateBaseModel(ctx context.Context, prompt string) (string, error) {
	var out falImagesOutput
	err := g.fal.Subscribe(ctx, ModelFluxPro, map[string]any{
		"prompt":           prompt,
		"image_size":       portraitImageSize,
		"safety_tolerance": 5,
	}, &out)
	if err != nil {
		return "", err
	}
	if len(out.Images) == 0 {
		return "", nil
	}
	return out.Images[0].URL, nil
}

func (g *FalGenerator) SwapGarment(ctx context.Context, humanImageURL, garmentImageURL, clothType string) (string, error) {
	var out falImageOutput
	err := g.fal.Subscribe(ctx, ModelCatVTON, map[string]any{
		"human_image_url":   humanImageURL,
		"garment_image_url": garmentImageURL,
		"cloth_type":        clothType,
		"image_size":        portraitImageSize,
	}, &out)
	return out.url(), err
}

func (g *FalGenerator) OverlayGarment(ctx context.Context, humanImageURL, garmentImageURL, description string) (string, error) {
	if description == "" {
		description = defaultOverlayCaption
	}
	var out falImageOutput
	err := g.fal.Subscribe(ctx, ModelIDMVTON, map[string]any{
		"human_image_url":   humanImageURL,
		"garment_image_url": garmentImageURL,
		"description":       description,
	}, &out)
	return out.url(), err
}

func (g *FalGenerator) Upscale(ctx context.Context, imageURL string) (string, error) {
	var out falImageOutput
	err := g.fal.Subscribe(ctx, ModelClarityUpscaler, map[string]any{
		"image_url": imageURL,
	}, &out)
	return out.url(), err
}

func (o falImageOutput) url() string {
	if o.Image == nil {
		return ""
	}
	return o.Image.URL
}
