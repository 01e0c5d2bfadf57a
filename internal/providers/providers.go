// Package providers defines the LLM provider contract used by the designer.
//
// Implementations live in subpackages (gemini, openai). The contract is
// deliberately text-only: the designer exchanges plain prompts and JSON
// documents with the model, never tool calls.
package providers

import "context"

// StreamHandler receives text chunks as they arrive from the model.
type StreamHandler func(text string)

// StopReason indicates why the model stopped generating.
type StopReason string

const (
	StopReasonEndTurn   StopReason = "end_turn"
	StopReasonMaxTokens StopReason = "max_tokens"
)

// Message is a single turn in a conversation.
type Message struct {
	// Role is "user" or "assistant".
	Role string
	Text string
}

// UserMessage builds a user turn.
func UserMessage(text string) Message {
	return Message{Role: "user", Text: text}
}

// AssistantMessage builds an assistant turn.
func AssistantMessage(text string) Message {
	return Message{Role: "assistant", Text: text}
}

// MessageRequest is a complete request to a provider.
type MessageRequest struct {
	// Model overrides the provider's default model when non-empty.
	Model string
	// System is the system instruction.
	System string
	// MaxTokens caps the response length. Zero means a provider default.
	MaxTokens int
	// JSONResponse asks the model to emit a JSON document.
	JSONResponse bool
	// Messages is the conversation, ending with a user turn.
	Messages []Message
}

// Usage records token consumption reported by the provider.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// MessageResponse is the provider's reply.
type MessageResponse struct {
	Text       string
	StopReason StopReason
	Usage      Usage
}

// Provider is implemented by each model backend.
type Provider interface {
	// Name returns the provider identifier ("gemini", "openai").
	Name() string
	// CreateMessage sends a request and returns the complete response.
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
	// StreamMessage sends a request and delivers text chunks to handler as
	// they arrive, returning the assembled response.
	StreamMessage(ctx context.Context, req MessageRequest, handler StreamHandler) (*MessageResponse, error)
}
