package internal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dshills/studydiary/internal/answer"
	"github.com/dshills/studydiary/internal/llm"
	"github.com/dshills/studydiary/internal/prompt"
	"github.com/dshills/studydiary/internal/questionnaire"
	"github.com/dshills/studydiary/internal/report"
	"github.com/dshills/studydiary/internal/scoring"
)

// skipUnlessIntegration skips the test unless STUDYDIARY_INTEGRATION=1.
func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("STUDYDIARY_INTEGRATION") != "1" {
		t.Skip("skipping integration test (set STUDYDIARY_INTEGRATION=1 to run)")
	}
}

// providers lists the models to exercise, keyed by the env var that enables
// each.
var providers = []struct {
	name, env, model string
}{
	{"anthropic", "ANTHROPIC_API_KEY", "anthropic:claude-sonnet-4-6"},
	{"openai", "OPENAI_API_KEY", "openai:gpt-5.2"},
	{"gemini", "GEMINI_API_KEY", "gemini:gemini-2.5-flash"},
}

func resolve(t *testing.T, env, model string) llm.Provider {
	t.Helper()
	if os.Getenv(env) == "" {
		t.Skipf("%s not set", env)
	}
	p, err := llm.ResolveProvider(context.Background(), model)
	if err != nil {
		t.Fatalf("resolve provider: %v", err)
	}
	return p
}

func TestIntegrationResolveAnswer(t *testing.T) {
	skipUnlessIntegration(t)
	q, err := questionnaire.Default()
	if err != nil {
		t.Fatal(err)
	}
	duration, ok := q.Question(scoring.FieldStudyDuration)
	if !ok {
		t.Fatal("study_duration question missing")
	}

	for _, pv := range providers {
		t.Run(pv.name, func(t *testing.T) {
			t.Parallel()
			r := answer.NewResolver(resolve(t, pv.env, pv.model), answer.WithTimeout(60*time.Second))

			idx, ok := r.Resolve(context.Background(), "a bit over two and a half hours", duration)
			if !ok {
				t.Fatal("answer not resolved")
			}
			// 120-180 minutes
			if idx != 4 {
				t.Errorf("index = %d (%s), want 4", idx, duration.Options[idx])
			}
		})
	}
}

func TestIntegrationDailyReport(t *testing.T) {
	skipUnlessIntegration(t)
	resp := loadGoldenResponse(t)
	rules, err := scoring.DefaultRules()
	if err != nil {
		t.Fatal(err)
	}
	eng := scoring.NewEngine(rules)
	res, err := eng.Calculate(resp, nil)
	if err != nil {
		t.Fatal(err)
	}
	d := prompt.Daily{Response: resp, Result: res, Total: res.Total, Level: eng.Level(res.Total)}

	for _, pv := range providers {
		t.Run(pv.name, func(t *testing.T) {
			t.Parallel()
			gen := report.NewGenerator(t.TempDir(), resolve(t, pv.env, pv.model), report.WithTimeout(180*time.Second))
			rep, err := gen.Daily(context.Background(), d)
			if err != nil {
				t.Fatalf("Daily: %v", err)
			}
			if !rep.AI {
				t.Fatal("provider failed; got the built-in report")
			}
			if len(rep.Content) < 200 {
				t.Errorf("report suspiciously short (%d bytes):\n%s", len(rep.Content), rep.Content)
			}
			t.Logf("Provider: %s | %d bytes", pv.name, len(rep.Content))
		})
	}
}
