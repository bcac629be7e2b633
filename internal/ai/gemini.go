package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiAdvisor implements RouteAdvisor using Google's Gemini models.
type GeminiAdvisor struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

var _ RouteAdvisor = (*GeminiAdvisor)(nil)

// NewGeminiAdvisor initializes a Gemini client for route advice.
func NewGeminiAdvisor(ctx context.Context, apiKey, modelName string) (*GeminiAdvisor, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	model := client.GenerativeModel(modelName)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemInstruction))
	model.SetTemperature(0.7)

	return &GeminiAdvisor{
		client: client,
		model:  model,
	}, nil
}

// Close cleans up the Gemini client resources.
func (a *GeminiAdvisor) Close() {
	a.client.Close()
}

// Advise asks the model for route advice between pickup and drop.
func (a *GeminiAdvisor) Advise(ctx context.Context, pickup, drop string) (string, error) {
	prompt, err := buildRoutePrompt(pickup, drop)
	if err != nil {
		return "", err
	}

	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoSuggestion
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}

	advice := strings.TrimSpace(text.String())
	if advice == "" {
		return "", ErrNoSuggestion
	}
	return advice, nil
}
