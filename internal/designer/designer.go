// Package designer runs the LLM design loop: prompt the model for a diagram
// specification, lint the result, and feed lint findings back until the spec
// passes or the cycle budget runs out.
package designer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	archsketch "github.com/archsketch/archsketch"
	"github.com/archsketch/archsketch/internal/lint"
	"github.com/archsketch/archsketch/internal/prompt"
	"github.com/archsketch/archsketch/internal/providers"
)

// DefaultMaxLintCycles is the default generate/lint cycle budget.
const DefaultMaxLintCycles = 3

// Config configures a Designer.
type Config struct {
	Provider providers.Provider
	// Model overrides the provider default when non-empty.
	Model string
	// MaxLintCycles caps generate/lint rounds. Zero means DefaultMaxLintCycles.
	MaxLintCycles int
	// StreamHandler, when set, receives model output as it is generated.
	StreamHandler providers.StreamHandler
}

// Designer generates validated diagram specifications.
type Designer struct {
	provider      providers.Provider
	model         string
	maxLintCycles int
	stream        providers.StreamHandler
}

// New creates a Designer.
func New(config Config) (*Designer, error) {
	if config.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	cycles := config.MaxLintCycles
	if cycles <= 0 {
		cycles = DefaultMaxLintCycles
	}
	return &Designer{
		provider:      config.Provider,
		model:         config.Model,
		maxLintCycles: cycles,
		stream:        config.StreamHandler,
	}, nil
}

// designDocument is the JSON document the model is instructed to produce.
type designDocument struct {
	Spec          archsketch.DiagramSpec `json:"spec"`
	Description   string                 `json:"description"`
	Components    []string               `json:"components"`
	BestPractices []string               `json:"best_practices"`
}

// Design runs the design loop for a request. The returned result carries the
// last spec even when linting never fully passed; callers decide whether a
// spec with residual errors is acceptable.
func (d *Designer) Design(ctx context.Context, req archsketch.DesignRequest) (*archsketch.DesignResult, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("description is required")
	}

	messages := []providers.Message{
		providers.UserMessage(prompt.Design(req)),
	}

	result := &archsketch.DesignResult{}
	var doc *designDocument

	for cycle := 1; cycle <= d.maxLintCycles; cycle++ {
		result.LintCycles = cycle

		resp, err := d.send(ctx, messages)
		if err != nil {
			return nil, err
		}
		result.Usage.Add(archsketch.TokenUsage{
			Prompt:     resp.Usage.InputTokens,
			Completion: resp.Usage.OutputTokens,
			Total:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		})

		doc, err = parseDesignDocument(resp.Text)
		if err != nil {
			if cycle == d.maxLintCycles {
				return nil, fmt.Errorf("model response is not a valid design document: %w", err)
			}
			messages = append(messages,
				providers.AssistantMessage(resp.Text),
				providers.UserMessage(fmt.Sprintf(
					"The response could not be parsed: %v. Respond with the complete JSON document only.", err)),
			)
			continue
		}

		lintResult := lint.Lint(&doc.Spec, lint.Options{})
		if lintResult.Success {
			result.LintPassed = true
			break
		}
		if cycle == d.maxLintCycles {
			break
		}
		messages = append(messages,
			providers.AssistantMessage(resp.Text),
			providers.UserMessage(prompt.Repair(lintResult.Errors())),
		)
	}

	if doc == nil {
		return nil, fmt.Errorf("model produced no design document")
	}

	result.Spec = doc.Spec
	result.Description = doc.Description
	result.Components = doc.Components
	result.BestPractices = doc.BestPractices
	return result, nil
}

// ImagePrompt asks the model to synthesize an image-generation prompt for the
// request. Single call, no lint loop.
func (d *Designer) ImagePrompt(ctx context.Context, req archsketch.DesignRequest) (string, archsketch.TokenUsage, error) {
	if strings.TrimSpace(req.Description) == "" {
		return "", archsketch.TokenUsage{}, fmt.Errorf("description is required")
	}

	msgReq := providers.MessageRequest{
		Model:    d.model,
		System:   prompt.ImageSystemInstruction,
		Messages: []providers.Message{providers.UserMessage(prompt.Image(req))},
	}

	var resp *providers.MessageResponse
	var err error
	if d.stream != nil {
		resp, err = d.provider.StreamMessage(ctx, msgReq, d.stream)
	} else {
		resp, err = d.provider.CreateMessage(ctx, msgReq)
	}
	if err != nil {
		return "", archsketch.TokenUsage{}, fmt.Errorf("generating image prompt: %w", err)
	}

	text := strings.TrimSpace(stripFences(resp.Text))
	if text == "" {
		return "", archsketch.TokenUsage{}, fmt.Errorf("model returned an empty image prompt")
	}

	usage := archsketch.TokenUsage{
		Prompt:     resp.Usage.InputTokens,
		Completion: resp.Usage.OutputTokens,
		Total:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}
	return text, usage, nil
}

func (d *Designer) send(ctx context.Context, messages []providers.Message) (*providers.MessageResponse, error) {
	req := providers.MessageRequest{
		Model:        d.model,
		System:       prompt.SystemInstruction,
		JSONResponse: true,
		Messages:     messages,
	}

	var resp *providers.MessageResponse
	var err error
	if d.stream != nil {
		resp, err = d.provider.StreamMessage(ctx, req, d.stream)
	} else {
		resp, err = d.provider.CreateMessage(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", d.provider.Name(), err)
	}
	return resp, nil
}

// parseDesignDocument extracts the JSON design document from model output,
// tolerating markdown fences and surrounding prose.
func parseDesignDocument(text string) (*designDocument, error) {
	cleaned := extractJSON(stripFences(text))
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var doc designDocument
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(doc.Spec.Nodes) == 0 && doc.Spec.Title == "" {
		return nil, fmt.Errorf("document is missing the spec field")
	}
	return &doc, nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	// Drop the opening fence line (``` or ```json) and a closing fence.
	lines = lines[1:]
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			lines = append(lines[:i], lines[i+1:]...)
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractJSON returns the outermost JSON object in text.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return text[start : end+1]
}
