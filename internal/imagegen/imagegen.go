// Package imagegen draws architecture diagrams with Gemini's image
// generation model from a synthesized text prompt.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// DefaultModel is the default image generation model.
const DefaultModel = "gemini-2.5-flash-image"

// Generator produces diagram images from text prompts.
type Generator struct {
	client *genai.Client
	model  string
}

// Config contains configuration for the image generator.
type Config struct {
	// APIKey for Google AI Studio. Defaults to GEMINI_API_KEY, then
	// GOOGLE_API_KEY.
	APIKey string
	// Model overrides DefaultModel when non-empty.
	Model string
}

// New creates an image generator.
func New(ctx context.Context, config Config) (*Generator, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	return &Generator{client: client, model: model}, nil
}

// Generate renders the prompt and returns the raw bytes of the first image
// in the response.
func (g *Generator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if prompt == "" {
		return nil, errors.New("prompt is required")
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	return firstImage(res)
}

// Edit regenerates a diagram using a reference image plus an instruction,
// e.g. to restyle or extend an earlier result.
func (g *Generator) Edit(ctx context.Context, prompt string, reference []byte, mimeType string) ([]byte, error) {
	if prompt == "" {
		return nil, errors.New("prompt is required")
	}
	if len(reference) == 0 {
		return g.Generate(ctx, prompt)
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(reference, mimeType),
		}, genai.RoleUser),
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("image edit failed: %w", err)
	}

	return firstImage(res)
}

// firstImage extracts the first inline image from a response.
func firstImage(res *genai.GenerateContentResponse) ([]byte, error) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return nil, errors.New("no candidates returned from model")
	}

	for _, part := range res.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}

	return nil, errors.New("no image data returned from model")
}
