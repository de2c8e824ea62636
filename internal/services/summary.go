package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// FallbackSummary is substituted whenever the generator fails or returns
// an empty result. Bootstrap never fails because of the generator.
const FallbackSummary = "A fascinating individual."

// SummaryGenerator produces a short profile summary from a first name and
// last initial.
type SummaryGenerator interface {
	Generate(ctx context.Context, firstName, lastInitial string) (string, error)
}

// UnavailableSummaryGenerator always fails, which makes the profile
// service substitute the fallback summary. Used when no generator is
// configured.
type UnavailableSummaryGenerator struct{}

func (UnavailableSummaryGenerator) Generate(ctx context.Context, firstName, lastInitial string) (string, error) {
	return "", fmt.Errorf("summary generator is not configured")
}

// GeminiSummaryGenerator generates profile summaries with the Gemini API.
type GeminiSummaryGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiSummaryGenerator creates a new Gemini-backed summary generator.
func NewGeminiSummaryGenerator(ctx context.Context, apiKey, model string) (*GeminiSummaryGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiSummaryGenerator{
		client: client,
		model:  model,
	}, nil
}

// Generate asks the model for a 1-2 sentence profile summary.
func (g *GeminiSummaryGenerator) Generate(ctx context.Context, firstName, lastInitial string) (string, error) {
	prompt := fmt.Sprintf(
		"You are a creative writer tasked with generating short, engaging profile summaries.\n"+
			"Based on the user's first name and last initial, create a 1-2 sentence profile summary.\n\n"+
			"First Name: %s\nLast Initial: %s\n",
		firstName, lastInitial,
	)

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	summary := strings.TrimSpace(result.Text())
	if summary == "" {
		return "", fmt.Errorf("gemini returned empty summary")
	}
	return summary, nil
}
