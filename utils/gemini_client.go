package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/raushankrgupta/fitly-outfits/models"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const describePrompt = `You have 2 tasks:
1. Describe this garment in a simple phrase, such as 't-shirt with round neck' (Provide only the description, no other text).
2. Determine if outfit is for male or female. Provide only the gender.
Structure output in JSON. Example: {"gender":"male", "description":"t-shirt with round neck"}`

// GeminiDescriber describes garment photos with a Gemini vision model.
type GeminiDescriber struct {
	client     *genai.Client
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiDescriber creates the Gemini client. Close it when the process exits.
func NewGeminiDescriber(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiDescriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiDescriber{
		client:     client,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// Close releases the underlying Gemini client.
func (g *GeminiDescriber) Close() error {
	return g.client.Close()
}

// DescribeGarment returns the garment's gender and a short outfit phrase.
// It never fails: any error is logged and an empty description is returned.
func (g *GeminiDescriber) DescribeGarment(ctx context.Context, imageURL string) models.GarmentDescription {
	desc, err := g.describe(ctx, imageURL)
	if err != nil {
		g.logger.Warn("describe garment failed", zap.String("image", imageURL), zap.Error(err))
		return models.GarmentDescription{}
	}
	return desc
}

func (g *GeminiDescriber) describe(ctx context.Context, imageURL string) (models.GarmentDescription, error) {
	data, contentType, err := FetchImage(ctx, g.httpClient, imageURL)
	if err != nil {
		return models.GarmentDescription{}, fmt.Errorf("failed to fetch image: %w", err)
	}

	model := g.client.GenerativeModel(g.model)
	model.SetMaxOutputTokens(300)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(describePrompt), genai.ImageData(ImageFormat(contentType), data))
	if err != nil {
		return models.GarmentDescription{}, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return models.GarmentDescription{}, fmt.Errorf("no content generated")
	}

	var answer strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			answer.WriteString(string(text))
		}
	}
	return ParseGarmentDescription(answer.String())
}

// ParseGarmentDescription reads the model's JSON answer, tolerating Markdown code fences.
func ParseGarmentDescription(answer string) (models.GarmentDescription, error) {
	cleaned := strings.ReplaceAll(answer, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var raw struct {
		Gender      string `json:"gender"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return models.GarmentDescription{}, fmt.Errorf("unexpected description format: %w", err)
	}
	return models.GarmentDescription{Gender: raw.Gender, Outfit: raw.Description}, nil
}
