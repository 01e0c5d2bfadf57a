// Package openai provides an OpenAI implementation of the Provider interface.
package openai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/archsketch/archsketch/internal/providers"
)

// DefaultModel is the default model used by the OpenAI provider.
const DefaultModel = string(openai.ChatModelGPT4o)

// Provider implements the providers.Provider interface using the OpenAI API.
type Provider struct {
	client *openai.Client
}

// Config contains configuration for the OpenAI provider.
type Config struct {
	// APIKey for OpenAI (defaults to OPENAI_API_KEY env var)
	APIKey string
}

// New creates a new OpenAI provider.
func New(config Config) (*Provider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &Provider{client: &client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// CreateMessage sends a message request and returns the complete response.
func (p *Provider) CreateMessage(ctx context.Context, req providers.MessageRequest) (*providers.MessageResponse, error) {
	params := buildParams(req)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}

	return convertResponse(resp), nil
}

// StreamMessage sends a message request and streams the response via the handler.
func (p *Provider) StreamMessage(ctx context.Context, req providers.MessageRequest, handler providers.StreamHandler) (*providers.MessageResponse, error) {
	params := buildParams(req)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)

	var fullText strings.Builder
	var finishReason string
	var usage providers.Usage

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 {
			choice := chunk.Choices[0]
			if choice.Delta.Content != "" {
				handler(choice.Delta.Content)
				fullText.WriteString(choice.Delta.Content)
			}
			if choice.FinishReason != "" {
				finishReason = string(choice.FinishReason)
			}
		}
		if chunk.Usage.TotalTokens > 0 {
			usage = providers.Usage{
				InputTokens:  int(chunk.Usage.PromptTokens),
				OutputTokens: int(chunk.Usage.CompletionTokens),
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("streaming failed: %w", err)
	}

	return &providers.MessageResponse{
		Text:       fullText.String(),
		StopReason: convertFinishReason(finishReason),
		Usage:      usage,
	}, nil
}

// buildParams converts a MessageRequest to OpenAI API parameters.
func buildParams(req providers.MessageRequest) openai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(model),
		MaxTokens: openai.Int(int64(maxTokens)),
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, msg := range req.Messages {
		if msg.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(msg.Text))
		} else {
			messages = append(messages, openai.UserMessage(msg.Text))
		}
	}
	params.Messages = messages

	if req.JSONResponse {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	return params
}

// convertResponse converts an OpenAI response to a provider response.
func convertResponse(resp *openai.ChatCompletion) *providers.MessageResponse {
	if resp == nil || len(resp.Choices) == 0 {
		return &providers.MessageResponse{}
	}

	choice := resp.Choices[0]
	return &providers.MessageResponse{
		Text:       choice.Message.Content,
		StopReason: convertFinishReason(string(choice.FinishReason)),
		Usage: providers.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}
}

// convertFinishReason converts an OpenAI finish reason to a provider stop reason.
func convertFinishReason(reason string) providers.StopReason {
	switch reason {
	case "length":
		return providers.StopReasonMaxTokens
	default:
		return providers.StopReasonEndTurn
	}
}
