package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ResolveProvider selects a provider based on the model flag and available
// credentials. An empty flag auto-detects from the environment in the order
// Anthropic, OpenAI, Gemini, then a gemini executable on PATH.
func ResolveProvider(ctx context.Context, modelFlag string) (Provider, error) {
	if modelFlag != "" {
		lower := strings.ToLower(modelFlag)
		switch {
		case strings.HasPrefix(lower, "anthropic:"):
			p, err := NewAnthropic()
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: modelFlag[len("anthropic:"):]}, nil

		case strings.HasPrefix(lower, "claude"):
			p, err := NewAnthropic()
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: modelFlag}, nil

		case strings.HasPrefix(lower, "openai:"):
			p, err := NewOpenAI()
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: modelFlag[len("openai:"):]}, nil

		case strings.HasPrefix(lower, "gpt"):
			p, err := NewOpenAI()
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: modelFlag}, nil

		case lower == "gemini-cli" || strings.HasPrefix(lower, "gemini-cli:"):
			p, err := NewGeminiCLI()
			if err != nil {
				return nil, err
			}
			if i := strings.IndexByte(modelFlag, ':'); i >= 0 {
				return &modelOverride{Provider: p, model: modelFlag[i+1:]}, nil
			}
			return p, nil

		case strings.HasPrefix(lower, "gemini:"):
			p, err := NewGemini(ctx)
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: modelFlag[len("gemini:"):]}, nil

		case strings.HasPrefix(lower, "gemini"):
			p, err := NewGemini(ctx)
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: modelFlag}, nil
		}
		return nil, fmt.Errorf("unknown model %q: use an anthropic:, openai:, gemini: or gemini-cli prefix", modelFlag)
	}

	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return NewAnthropic()
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return NewOpenAI()
	}
	if os.Getenv("GEMINI_API_KEY") != "" {
		return NewGemini(ctx)
	}
	if p, err := NewGeminiCLI(); err == nil {
		return p, nil
	}

	return nil, fmt.Errorf("no LLM provider configured: set ANTHROPIC_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY, or install the gemini CLI")
}

// modelOverride wraps a provider to override the model in settings.
type modelOverride struct {
	Provider
	model string
}

func (m *modelOverride) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	s.Model = m.model
	return m.Provider.Generate(ctx, prompt, s)
}
