package internal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/dshills/studydiary/internal/prompt"
	"github.com/dshills/studydiary/internal/render"
	"github.com/dshills/studydiary/internal/scoring"
)

func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Dir(filepath.Dir(filename))
}

func loadGoldenResponse(t *testing.T) scoring.Response {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(projectRoot(), "testdata", "golden", "full-day-response.json"))
	if err != nil {
		t.Fatalf("failed to read golden response: %v", err)
	}
	var resp scoring.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("failed to parse golden response: %v", err)
	}
	return resp
}

func TestGoldenFullDay(t *testing.T) {
	resp := loadGoldenResponse(t)

	data, err := os.ReadFile(filepath.Join(projectRoot(), "testdata", "golden", "full-day-result.json"))
	if err != nil {
		t.Fatalf("failed to read golden result: %v", err)
	}
	var want scoring.Result
	if err := json.Unmarshal(data, &want); err != nil {
		t.Fatalf("failed to parse golden result: %v", err)
	}

	rules, err := scoring.DefaultRules()
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	got, err := scoring.NewEngine(rules).Calculate(resp, nil)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if got.Total != want.Total {
		t.Errorf("total = %d, want %d", got.Total, want.Total)
	}
	if got.Total != scoring.SumPoints(got.Details) {
		t.Errorf("total %d does not equal the sum of details %d", got.Total, scoring.SumPoints(got.Details))
	}
	if len(got.Details) != len(want.Details) {
		t.Fatalf("got %d details, want %d:\n%+v", len(got.Details), len(want.Details), got.Details)
	}
	for i := range want.Details {
		if got.Details[i] != want.Details[i] {
			t.Errorf("detail[%d] = %+v, want %+v", i, got.Details[i], want.Details[i])
		}
	}

	// The same response scored twice gives the same result.
	again, _ := scoring.NewEngine(rules).Calculate(resp, nil)
	a, _ := json.Marshal(got)
	b, _ := json.Marshal(again)
	if string(a) != string(b) {
		t.Error("scoring is not deterministic")
	}
}

func TestGoldenDailyReport(t *testing.T) {
	resp := loadGoldenResponse(t)
	rules, err := scoring.DefaultRules()
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	eng := scoring.NewEngine(rules)
	res, err := eng.Calculate(resp, nil)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	d := prompt.Daily{Response: resp, Result: res, Total: 147, Level: eng.Level(147)}

	md := render.DailyMarkdown(d)
	for _, want := range []string{
		"# 📚 Daily Study Report: 2024-01-10",
		"**Today:** +47 points",
		"**Level:** 📚 Diligent",
		"153 points to 💪 Persistent.",
		"Chapter 7 exercises",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("daily markdown missing %q", want)
		}
	}
	if strings.Contains(md, "student@example.com") {
		t.Error("daily markdown leaks the email address")
	}

	p := prompt.BuildDaily(d)
	if strings.Contains(p, "student@example.com") {
		t.Error("daily prompt leaks the email address")
	}
	if !strings.Contains(p, "Accuracy 92% (90-94%)") {
		t.Error("daily prompt is missing the itemized details")
	}
}
