// Package llm defines the provider interface used for report narratives and
// answer disambiguation, and its implementations.
package llm

import (
	"context"
	"strings"
)

// Settings configures a generation request.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Seed        *int
	// JSON asks providers that support it for a JSON object response.
	JSON bool
}

// Provider generates text from a prompt.
type Provider interface {
	Generate(ctx context.Context, prompt string, settings Settings) (string, error)
	Name() string
}

// CleanOutput strips surrounding whitespace and a Markdown code fence, if the
// whole response is wrapped in one.
func CleanOutput(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string (json, markdown, ...) up to the first newline.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		if info := strings.TrimSpace(s[:i]); !strings.ContainsAny(info, " {[") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
