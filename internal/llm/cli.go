package llm

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CLIProvider runs a locally installed model CLI (gemini by default) with the
// prompt passed through -p and returns its stdout.
type CLIProvider struct {
	Path string
}

// NewGeminiCLI returns a CLIProvider for the gemini executable on PATH.
func NewGeminiCLI() (*CLIProvider, error) {
	path, err := exec.LookPath("gemini")
	if err != nil {
		return nil, fmt.Errorf("gemini-cli: executable not found: %w", err)
	}
	return &CLIProvider{Path: path}, nil
}

func (c *CLIProvider) Name() string { return "gemini-cli" }

func (c *CLIProvider) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	args := []string{}
	if s.Model != "" {
		args = append(args, "-m", s.Model)
	}
	args = append(args, "-p", prompt)

	cmd := exec.CommandContext(ctx, c.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("gemini-cli: %w", err)
		}
		return "", fmt.Errorf("gemini-cli: %w: %s", err, msg)
	}
	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", fmt.Errorf("gemini-cli: empty output")
	}
	return out, nil
}
