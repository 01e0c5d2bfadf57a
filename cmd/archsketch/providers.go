package main

import (
	"context"
	"fmt"

	"github.com/archsketch/archsketch/internal/providers"
	"github.com/archsketch/archsketch/internal/providers/gemini"
	"github.com/archsketch/archsketch/internal/providers/openai"
)

// newProvider builds a text provider by name. API keys come from the
// environment (GEMINI_API_KEY / GOOGLE_API_KEY, OPENAI_API_KEY).
func newProvider(ctx context.Context, name string) (providers.Provider, error) {
	switch name {
	case "gemini", "":
		return gemini.New(ctx, gemini.Config{})
	case "openai":
		return openai.New(openai.Config{})
	default:
		return nil, fmt.Errorf("unknown provider: %s (use 'gemini' or 'openai')", name)
	}
}
