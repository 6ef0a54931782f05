package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"
)

const geminiDefaultModel = "gemini-2.5-flash"

// GeminiProvider implements Provider using the Gemini API through the genai SDK.
type GeminiProvider struct {
	client *genai.Client
}

// NewGemini creates a Gemini provider using the GEMINI_API_KEY env var.
func NewGemini(ctx context.Context) (*GeminiProvider, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	return newGemini(ctx, &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI})
}

func newGemini(ctx context.Context, cfg *genai.ClientConfig) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (g *GeminiProvider) Name() string { return "gemini" }

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	model := s.Model
	if model == "" {
		model = geminiDefaultModel
	}

	temp := float32(s.Temperature)
	cfg := &genai.GenerateContentConfig{Temperature: &temp}
	if s.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(s.MaxTokens)
	}
	if s.Seed != nil {
		seed := int32(*s.Seed)
		cfg.Seed = &seed
	}
	if s.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini: no text content in response")
	}
	return text, nil
}
