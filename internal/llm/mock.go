package llm

import "context"

// MockProvider is a test double that returns canned responses and records
// the prompts it receives.
type MockProvider struct {
	Response string
	Err      error
	Prompts  []string
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Generate(_ context.Context, prompt string, _ Settings) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	return m.Response, m.Err
}
