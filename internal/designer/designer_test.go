package designer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	archsketch "github.com/archsketch/archsketch"
	"github.com/archsketch/archsketch/internal/providers"
)

// fakeProvider returns canned responses in order and records requests.
type fakeProvider struct {
	responses []string
	err       error
	requests  []providers.MessageRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) CreateMessage(_ context.Context, req providers.MessageRequest) (*providers.MessageResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return &providers.MessageResponse{}, nil
	}
	text := f.responses[0]
	f.responses = f.responses[1:]
	return &providers.MessageResponse{
		Text:       text,
		StopReason: providers.StopReasonEndTurn,
		Usage:      providers.Usage{InputTokens: 100, OutputTokens: 50},
	}, nil
}

func (f *fakeProvider) StreamMessage(ctx context.Context, req providers.MessageRequest, handler providers.StreamHandler) (*providers.MessageResponse, error) {
	resp, err := f.CreateMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	handler(resp.Text)
	return resp, nil
}

const validDoc = `{
  "spec": {
    "title": "Serverless API",
    "direction": "LR",
    "provider": "AWS",
    "nodes": [
      {"id": "gw", "label": "API Gateway", "service": "API Gateway"},
      {"id": "fn", "label": "Handler", "service": "Lambda"}
    ],
    "edges": [{"from": "gw", "to": "fn", "label": "invoke"}]
  },
  "description": "A serverless API",
  "components": ["API Gateway", "Lambda"],
  "best_practices": ["least privilege IAM"]
}`

// brokenDoc has an edge to an undeclared node (lint error ASK002).
const brokenDoc = `{
  "spec": {
    "title": "Broken",
    "nodes": [{"id": "gw"}],
    "edges": [{"from": "gw", "to": "missing"}]
  },
  "description": "broken"
}`

func request() archsketch.DesignRequest {
	return archsketch.DesignRequest{
		Description:      "A serverless API with Lambda",
		ArchitectureType: "serverless",
		CloudProvider:    "AWS",
	}
}

func TestDesign_SingleCycle(t *testing.T) {
	fake := &fakeProvider{responses: []string{validDoc}}
	d, err := New(Config{Provider: fake})
	require.NoError(t, err)

	result, err := d.Design(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, "Serverless API", result.Spec.Title)
	assert.Len(t, result.Spec.Nodes, 2)
	assert.Equal(t, 1, result.LintCycles)
	assert.True(t, result.LintPassed)
	assert.Equal(t, []string{"API Gateway", "Lambda"}, result.Components)
	assert.Equal(t, 150, result.Usage.Total)

	// The request asks for JSON and carries the system instruction.
	require.Len(t, fake.requests, 1)
	assert.True(t, fake.requests[0].JSONResponse)
	assert.NotEmpty(t, fake.requests[0].System)
}

func TestDesign_RepairCycle(t *testing.T) {
	fake := &fakeProvider{responses: []string{brokenDoc, validDoc}}
	d, err := New(Config{Provider: fake})
	require.NoError(t, err)

	result, err := d.Design(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, 2, result.LintCycles)
	assert.True(t, result.LintPassed)
	assert.Equal(t, 300, result.Usage.Total)

	// Second request must carry the assistant reply and the lint findings.
	require.Len(t, fake.requests, 2)
	msgs := fake.requests[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Contains(t, msgs[2].Text, "ASK002")
}

func TestDesign_FencedResponse(t *testing.T) {
	fake := &fakeProvider{responses: []string{"```json\n" + validDoc + "\n```"}}
	d, err := New(Config{Provider: fake})
	require.NoError(t, err)

	result, err := d.Design(context.Background(), request())
	require.NoError(t, err)
	assert.True(t, result.LintPassed)
}

func TestDesign_LintNeverPasses(t *testing.T) {
	fake := &fakeProvider{responses: []string{brokenDoc, brokenDoc}}
	d, err := New(Config{Provider: fake, MaxLintCycles: 2})
	require.NoError(t, err)

	result, err := d.Design(context.Background(), request())
	require.NoError(t, err)

	assert.False(t, result.LintPassed)
	assert.Equal(t, 2, result.LintCycles)
	assert.Equal(t, "Broken", result.Spec.Title)
}

func TestDesign_UnparsableExhaustsCycles(t *testing.T) {
	fake := &fakeProvider{responses: []string{"not json", "still not json"}}
	d, err := New(Config{Provider: fake, MaxLintCycles: 2})
	require.NoError(t, err)

	_, err = d.Design(context.Background(), request())
	assert.Error(t, err)
}

func TestDesign_EmptyDescription(t *testing.T) {
	d, err := New(Config{Provider: &fakeProvider{}})
	require.NoError(t, err)

	_, err = d.Design(context.Background(), archsketch.DesignRequest{Description: "   "})
	assert.Error(t, err)
}

func TestDesign_ProviderError(t *testing.T) {
	fake := &fakeProvider{err: fmt.Errorf("quota exceeded")}
	d, err := New(Config{Provider: fake})
	require.NoError(t, err)

	_, err = d.Design(context.Background(), request())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestDesign_StreamHandlerUsed(t *testing.T) {
	fake := &fakeProvider{responses: []string{validDoc}}
	var streamed string
	d, err := New(Config{
		Provider:      fake,
		StreamHandler: func(text string) { streamed += text },
	})
	require.NoError(t, err)

	_, err = d.Design(context.Background(), request())
	require.NoError(t, err)
	assert.NotEmpty(t, streamed)
}

func TestNew_RequiresProvider(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestImagePrompt(t *testing.T) {
	fake := &fakeProvider{responses: []string{"```\nA clean diagram of a three tier app\n```"}}
	d, err := New(Config{Provider: fake})
	require.NoError(t, err)

	text, usage, err := d.ImagePrompt(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "A clean diagram of a three tier app", text)
	assert.Equal(t, 150, usage.Total)

	// Image prompts are plain text, not JSON mode.
	require.Len(t, fake.requests, 1)
	assert.False(t, fake.requests[0].JSONResponse)
}

func TestImagePrompt_Empty(t *testing.T) {
	fake := &fakeProvider{responses: []string{"   "}}
	d, err := New(Config{Provider: fake})
	require.NoError(t, err)

	_, _, err = d.ImagePrompt(context.Background(), request())
	assert.Error(t, err)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\nhello\n```", "hello"},
		{"  ```json\n{}\n```  ", "{}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripFences(tt.in))
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON(`Here you go: {"a":1} enjoy`))
	assert.Equal(t, "", extractJSON("no json here"))
}
