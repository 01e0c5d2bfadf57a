// Package gemini provides a Google Gemini implementation of the Provider interface.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/archsketch/archsketch/internal/providers"
)

// DefaultModel is the default model used by the Gemini provider.
const DefaultModel = "gemini-2.0-flash"

// Provider implements the providers.Provider interface using the Gemini API.
type Provider struct {
	client *genai.Client
}

// Config contains configuration for the Gemini provider.
type Config struct {
	// APIKey for Google AI Studio. Defaults to GEMINI_API_KEY, then
	// GOOGLE_API_KEY.
	APIKey string
}

// New creates a new Gemini provider.
func New(ctx context.Context, config Config) (*Provider, error) {
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

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Provider{client: client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "gemini"
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// CreateMessage sends a message request and returns the complete response.
func (p *Provider) CreateMessage(ctx context.Context, req providers.MessageRequest) (*providers.MessageResponse, error) {
	model := p.configureModel(req)

	session, prompt, err := buildSession(model, req)
	if err != nil {
		return nil, err
	}

	resp, err := session.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}

	return convertResponse(resp), nil
}

// StreamMessage sends a message request and streams the response via the handler.
func (p *Provider) StreamMessage(ctx context.Context, req providers.MessageRequest, handler providers.StreamHandler) (*providers.MessageResponse, error) {
	model := p.configureModel(req)

	session, prompt, err := buildSession(model, req)
	if err != nil {
		return nil, err
	}

	iter := session.SendMessageStream(ctx, genai.Text(prompt))

	var fullText strings.Builder
	result := &providers.MessageResponse{StopReason: providers.StopReasonEndTurn}

	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("streaming failed: %w", err)
		}

		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					handler(string(text))
					fullText.WriteString(string(text))
				}
			}
		}
		if resp.UsageMetadata != nil {
			result.Usage = usageFrom(resp.UsageMetadata)
		}
	}

	result.Text = fullText.String()
	return result, nil
}

// configureModel returns a generative model configured for the request.
func (p *Provider) configureModel(req providers.MessageRequest) *genai.GenerativeModel {
	name := req.Model
	if name == "" {
		name = DefaultModel
	}
	model := p.client.GenerativeModel(name)

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}
	model.SetMaxOutputTokens(int32(maxTokens))

	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	if req.JSONResponse {
		model.ResponseMIMEType = "application/json"
	}

	return model
}

// buildSession builds a chat session with history and returns the final
// user prompt to send.
func buildSession(model *genai.GenerativeModel, req providers.MessageRequest) (*genai.ChatSession, string, error) {
	if len(req.Messages) == 0 {
		return nil, "", fmt.Errorf("request contains no messages")
	}

	last := req.Messages[len(req.Messages)-1]
	if last.Role != "user" {
		return nil, "", fmt.Errorf("last message must be from user")
	}

	session := model.StartChat()
	for _, msg := range req.Messages[:len(req.Messages)-1] {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Text)},
		})
	}

	return session, last.Text, nil
}

// convertResponse converts a Gemini response to a provider response.
func convertResponse(resp *genai.GenerateContentResponse) *providers.MessageResponse {
	result := &providers.MessageResponse{StopReason: providers.StopReasonEndTurn}
	if resp == nil || len(resp.Candidates) == 0 {
		return result
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonMaxTokens {
		result.StopReason = providers.StopReasonMaxTokens
	}

	if candidate.Content != nil {
		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		result.Text = sb.String()
	}

	if resp.UsageMetadata != nil {
		result.Usage = usageFrom(resp.UsageMetadata)
	}

	return result
}

func usageFrom(meta *genai.UsageMetadata) providers.Usage {
	return providers.Usage{
		InputTokens:  int(meta.PromptTokenCount),
		OutputTokens: int(meta.CandidatesTokenCount),
	}
}
