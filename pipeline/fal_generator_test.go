package pipeline

import (
	"context"
	"encoding/json"
	"testing"
)

type fakeSubscriber struct {
	model  string
	input  map[string]any
	output string
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, model string, input any, out any) error {
	f.model = model
	f.input = input.(map[string]any)
	return json.Unmarshal([]byte(f.output), out)
}

func TestFalGeneratorRequests(t *testing.T) {
	ctx := context.Background()

	t.Run("base model", func(t *testing.T) {
		sub := &fakeSubscriber{output: `{"images":[{"url":"https://fal/m.png"}]}`}
		url, err := NewFalGenerator(sub).GenerateBaseModel(ctx, "a prompt")
		if err != nil || url != "https://fal/m.png" {
			t.Fatalf("got %q, %v", url, err)
		}
		if sub.model != ModelFluxPro || sub.input["image_size"] != portraitImageSize || sub.input["safety_tolerance"] != 5 {
			t.Fatalf("unexpected request %s %v", sub.model, sub.input)
		}
	})

	t.Run("base model without images", func(t *testing.T) {
		sub := &fakeSubscriber{output: `{"images":[]}`}
		url, err := NewFalGenerator(sub).GenerateBaseModel(ctx, "a prompt")
		if err != nil || url != "" {
			t.Fatalf("got %q, %v", url, err)
		}
	})

	t.Run("swap", func(t *testing.T) {
		sub := &fakeSubscriber{output: `{"image":{"url":"https://fal/s.png"}}`}
		url, err := NewFalGenerator(sub).SwapGarment(ctx, "human", "pants", ClothTypeLower)
		if err != nil || url != "https://fal/s.png" {
			t.Fatalf("got %q, %v", url, err)
		}
		if sub.model != ModelCatVTON || sub.input["cloth_type"] != "lower" || sub.input["garment_image_url"] != "pants" {
			t.Fatalf("unexpected request %s %v", sub.model, sub.input)
		}
	})

	t.Run("overlay default caption", func(t *testing.T) {
		sub := &fakeSubscriber{output: `{"image":{"url":"https://fal/o.png"}}`}
		if _, err := NewFalGenerator(sub).OverlayGarment(ctx, "human", "top", ""); err != nil {
			t.Fatal(err)
		}
		if sub.model != ModelIDMVTON || sub.input["description"] != defaultOverlayCaption {
			t.Fatalf("unexpected request %s %v", sub.model, sub.input)
		}
	})

	t.Run("upscale missing image", func(t *testing.T) {
		sub := &fakeSubscriber{output: `{}`}
		url, err := NewFalGenerator(sub).Upscale(ctx, "https://fal/o.png")
		if err != nil || url != "" {
			t.Fatalf("got %q, %v", url, err)
		}
		if sub.model != ModelClarityUpscaler || sub.input["image_url"] != "https://fal/o.png" {
			t.Fatalf("unexpected request %s %v", sub.model, sub.input)
		}
	})
}
