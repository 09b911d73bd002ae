package pipeline

import (
	"context"

	"github.com/raushankrgupta/fitly-outfits/models"
)

// StageResult is the image one stage produced for an item.
type StageResult struct {
	Stage    string `json:"stage"`
	ImageURL string `json:"imageUrl"`
}

// itemState is the per-item scratch space threaded through the stage list.
type itemState struct {
	input         models.GarmentInput
	prompt        string
	current       string
	upscaleStatus string
	trail         []StageResult
}

func (st *itemState) advance(stage, url string) {
	st.current = url
	st.trail = append(st.trail, StageResult{Stage: stage, ImageURL: url})
}

// Stage is one step of the outfit plan. A nil When means the stage always runs.
// A BestEffort stage still runs after ctx is done and must handle that itself.
type Stage struct {
	Name       string
	When       func(*itemState) bool
	Run        func(context.Context, *itemState) error
	BestEffort bool
}

// Required builds a stage that runs for every item.
func Required(name string, run func(context.Context, *itemState) error) Stage {
	return Stage{Name: name, Run: run}
}

// Optional builds a stage that runs only when when reports true.
func Optional(name string, when func(*itemState) bool, run func(context.Context, *itemState) error) Stage {
	return Stage{Name: name, When: when, Run: run}
}

// BestEffort builds an optional stage whose failure never aborts the item.
func BestEffort(name string, when func(*itemState) bool, run func(context.Context, *itemState) error) Stage {
	return Stage{Name: name, When: when, Run: run, BestEffort: true}
}

// runStages executes the plan in order and stops at the first error.
func runStages(ctx context.Context, plan []Stage, st *itemState) error {
	for _, stage := range plan {
		if stage.When != nil && !stage.When(st) {
			continue
		}
		if err := ctx.Err(); err != nil && !stage.BestEffort {
			return &UpstreamGenerationError{Stage: stage.Name, Err: err}
		}
		if err := stage.Run(ctx, st); err != nil {
			return err
		}
	}
	return nil
}
