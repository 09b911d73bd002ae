package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raushankrgupta/fitly-outfits/models"
	"go.uber.org/zap"
)

func newTestPipeline(gen Generator, timeout time.Duration) *Pipeline {
	return NewPipeline(NewStages(gen, timeout, zap.NewNop()), zap.NewNop())
}

func TestProcessItemTopOnly(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestPipeline(gen, 0)

	in := models.GarmentInput{TopImageURL: "https://cdn/t1.jpg", ModelDescription: "p1", Description: "red tee"}
	result, trail, err := p.ProcessItem(context.Background(), in)
	if err != nil {
		t.Fatalf("ProcessItem: %v", err)
	}

	if gen.count("model") != 1 || gen.count("overlay") != 1 {
		t.Fatalf("expected one model and one overlay call, got %+v", gen.calls)
	}
	if gen.count("swap") != 0 || gen.count("upscale") != 0 {
		t.Fatalf("swap and upscale must not run, got %+v", gen.calls)
	}
	if got := gen.last("model").Args[0]; got != "p1" {
		t.Fatalf("model prompt = %q, want p1", got)
	}
	overlay := gen.last("overlay")
	if overlay.Args[0] != "https://gen/model.png" || overlay.Args[1] != in.TopImageURL || overlay.Args[2] != "red tee" {
		t.Fatalf("unexpected overlay args %v", overlay.Args)
	}

	if result.GeneratedImageURL != "https://gen/overlay-https://cdn/t1.jpg" {
		t.Fatalf("generated = %q", result.GeneratedImageURL)
	}
	if result.OriginalImageURL != in.TopImageURL || result.ModelDescription != "p1" || result.Description != "red tee" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Upscaled || result.UpscaleStatus != models.UpscaleSkipped {
		t.Fatalf("upscale should be skipped, got %v/%q", result.Upscaled, result.UpscaleStatus)
	}

	wantStages := []string{StageModel, StageOverlay, StageFinal}
	if len(trail) != len(wantStages) {
		t.Fatalf("trail = %+v", trail)
	}
	for i, s := range wantStages {
		if trail[i].Stage != s {
			t.Fatalf("trail[%d] = %q, want %q", i, trail[i].Stage, s)
		}
	}
	if trail[len(trail)-1].ImageURL != result.GeneratedImageURL {
		t.Fatal("final trail entry must match the generated image")
	}
}

func TestProcessItemWithBottomSwapsBeforeOverlay(t *testing.T) {
	for _, in := range []models.GarmentInput{
		{TopImageURL: "https://cdn/t.jpg", BottomImageURL: "https://cdn/b.jpg"},
		{TopImageURL: "https://cdn/t.jpg", Bottom: &models.ImageRef{URL: "https://cdn/b.jpg"}},
	} {
		gen := &fakeGenerator{}
		p := newTestPipeline(gen, 0)
		if _, _, err := p.ProcessItem(context.Background(), in); err != nil {
			t.Fatalf("ProcessItem: %v", err)
		}
		swap := gen.last("swap")
		if len(swap.Args) != 3 || swap.Args[0] != "https://gen/model.png" || swap.Args[1] != "https://cdn/b.jpg" || swap.Args[2] != ClothTypeLower {
			t.Fatalf("unexpected swap call %+v", swap)
		}
		if got := gen.last("overlay").Args[0]; got != "https://gen/swap.png" {
			t.Fatalf("overlay must dress the swapped image, got %q", got)
		}
		if gen.calls[0].Method != "model" || gen.calls[1].Method != "swap" || gen.calls[2].Method != "overlay" {
			t.Fatalf("unexpected call order %+v", gen.calls)
		}
	}
}

func TestProcessItemUpscale(t *testing.T) {
	t.Run("applied", func(t *testing.T) {
		gen := &fakeGenerator{}
		p := newTestPipeline(gen, 0)
		result, _, err := p.ProcessItem(context.Background(), models.GarmentInput{TopImageURL: "https://cdn/t.jpg", Upscale: true})
		if err != nil {
			t.Fatalf("ProcessItem: %v", err)
		}
		if gen.last("upscale").Args[0] != "https://gen/overlay-https://cdn/t.jpg" {
			t.Fatalf("upscale must take the overlay output, got %+v", gen.last("upscale"))
		}
		if result.GeneratedImageURL != "https://gen/overlay-https://cdn/t.jpg?upscaled" {
			t.Fatalf("generated = %q", result.GeneratedImageURL)
		}
		if !result.Upscaled || result.UpscaleStatus != models.UpscaleApplied {
			t.Fatalf("got %v/%q", result.Upscaled, result.UpscaleStatus)
		}
	})

	t.Run("falls back on failure", func(t *testing.T) {
		gen := &fakeGenerator{upscale: func(context.Context, string) (string, error) {
			return "", errors.New("upscaler overloaded")
		}}
		p := newTestPipeline(gen, 0)
		result, _, err := p.ProcessItem(context.Background(), models.GarmentInput{TopImageURL: "https://cdn/t.jpg", Upscale: true})
		if err != nil {
			t.Fatalf("upscale failure must not fail the item: %v", err)
		}
		if result.GeneratedImageURL != "https://gen/overlay-https://cdn/t.jpg" {
			t.Fatalf("expected overlay image, got %q", result.GeneratedImageURL)
		}
		if !result.Upscaled || result.UpscaleStatus != models.UpscaleFellBack {
			t.Fatalf("got %v/%q", result.Upscaled, result.UpscaleStatus)
		}
	})

	t.Run("cancelled before upscale keeps overlay image", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		gen := &fakeGenerator{overlay: func(context.Context, string, string, string) (string, error) {
			cancel()
			return "https://gen/overlay.png", nil
		}}
		p := newTestPipeline(gen, 0)
		result, _, err := p.ProcessItem(ctx, models.GarmentInput{TopImageURL: "https://cdn/t.jpg", Upscale: true})
		if err != nil {
			t.Fatalf("cancellation after overlay must not fail the item: %v", err)
		}
		if result.GeneratedImageURL != "https://gen/overlay.png" || result.UpscaleStatus != models.UpscaleFellBack {
			t.Fatalf("got %q/%q", result.GeneratedImageURL, result.UpscaleStatus)
		}
	})
}

func TestProcessItemDefaultPrompt(t *testing.T) {
	for _, prompt := range []string{"", "   "} {
		gen := &fakeGenerator{}
		p := newTestPipeline(gen, 0)
		result, _, err := p.ProcessItem(context.Background(), models.GarmentInput{TopImageURL: "https://cdn/t.jpg", ModelDescription: prompt})
		if err != nil {
			t.Fatalf("ProcessItem: %v", err)
		}
		if got := gen.last("model").Args[0]; got != models.DefaultModelPrompt {
			t.Fatalf("prompt = %q, want default", got)
		}
		if result.ModelDescription != models.DefaultModelPrompt {
			t.Fatalf("result prompt = %q", result.ModelDescription)
		}
	}
}

func TestProcessItemFailures(t *testing.T) {
	t.Run("missing top image", func(t *testing.T) {
		gen := &fakeGenerator{}
		p := newTestPipeline(gen, 0)
		_, _, err := p.ProcessItem(context.Background(), models.GarmentInput{ModelDescription: "x"})
		if !errors.Is(err, ErrMissingImage) {
			t.Fatalf("expected ErrMissingImage, got %v", err)
		}
		if len(gen.calls) != 0 {
			t.Fatalf("no stage may run, got %+v", gen.calls)
		}
		if StageOf(err) != "validate" {
			t.Fatalf("stage = %q", StageOf(err))
		}
	})

	t.Run("model stage fails", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		gen := &fakeGenerator{model: func(context.Context, string) (string, error) { return "", boom }}
		p := newTestPipeline(gen, 0)
		_, _, err := p.ProcessItem(context.Background(), models.GarmentInput{TopImageURL: "https://cdn/t.jpg", Upscale: true})
		var upstream *UpstreamGenerationError
		if !errors.As(err, &upstream) || upstream.Stage != StageModel || !errors.Is(err, boom) {
			t.Fatalf("expected model UpstreamGenerationError, got %v", err)
		}
		if gen.count("overlay") != 0 || gen.count("upscale") != 0 {
			t.Fatalf("later stages must not run, got %+v", gen.calls)
		}
	})

	t.Run("overlay returns no image", func(t *testing.T) {
		gen := &fakeGenerator{overlay: func(context.Context, string, string, string) (string, error) { return "", nil }}
		p := newTestPipeline(gen, 0)
		_, _, err := p.ProcessItem(context.Background(), models.GarmentInput{TopImageURL: "https://cdn/t.jpg"})
		if StageOf(err) != StageOverlay {
			t.Fatalf("expected overlay failure, got %v", err)
		}
	})

	t.Run("stage timeout", func(t *testing.T) {
		gen := &fakeGenerator{model: func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}}
		p := newTestPipeline(gen, 10*time.Millisecond)
		_, _, err := p.ProcessItem(context.Background(), models.GarmentInput{TopImageURL: "https://cdn/t.jpg"})
		if !errors.Is(err, context.DeadlineExceeded) || StageOf(err) != StageModel {
			t.Fatalf("expected model deadline error, got %v", err)
		}
	})

	t.Run("cancelled before start", func(t *testing.T) {
		gen := &fakeGenerator{}
		p := newTestPipeline(gen, 0)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := p.ProcessItem(ctx, models.GarmentInput{TopImageURL: "https://cdn/t.jpg"})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(gen.calls) != 0 {
			t.Fatalf("no stage may run, got %+v", gen.calls)
		}
	})
}
