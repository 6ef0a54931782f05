package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/dshills/studydiary/internal/scoring"
)

func sampleDaily() Daily {
	next := scoring.Level{Name: "Scholar", MinPoints: 200, Emoji: "📖"}
	return Daily{
		Response: scoring.Response{
			Date: "2024-01-10",
			Fields: map[string]scoring.Field{
				scoring.FieldStudyDuration: {Display: "💪 240-360 minutes", Value: scoring.Number(300)},
				scoring.FieldSleepQuality:  {Display: "😴 Slept well", Value: scoring.Tag("good")},
			},
			Text: map[string]string{
				scoring.FieldAccuracyRate: "92",
				scoring.FieldTomorrowPlan: "mock exam, ask bob@example.com",
			},
		},
		Result: scoring.Result{Total: 14, Details: []scoring.PointDetail{
			{Category: scoring.CategoryStudyTime, Item: "Studied 240 minutes", Points: 12},
			{Category: scoring.CategoryPenalty, Item: "Poor diet", Points: -1},
			{Category: scoring.CategoryCheckIn, Item: "Daily check-in", Points: 3},
		}},
		Total:   150,
		Level:   scoring.LevelInfo{Current: scoring.Level{Name: "Learner", MinPoints: 100, Emoji: "🌿"}, Next: &next, Progress: 50, Needed: 50},
		Special: &scoring.PointDetail{Category: scoring.CategorySpecial, Item: "Passed a mock exam", Points: 10},
		Recent: []scoring.HistoryRecord{
			{Date: "2024-01-08", DailyPoints: 6},
			{Date: "2024-01-09", DailyPoints: 10},
		},
	}
}

func TestBuildDaily(t *testing.T) {
	text := BuildDaily(sampleDaily())

	checks := []string{
		"study coach",
		"Date: 2024-01-10",
		"- Study time: 💪 240-360 minutes",
		"- Focus: unknown",
		"- Accuracy: 92%",
		"- Sleep: 😴 Slept well",
		"- [Study time] Studied 240 minutes: +12",
		"- [Penalty] Poor diet: -1",
		"**Today: +14 points**",
		"**Total: 150 points**",
		"Current: 🌿 Learner (100 points)",
		"Next: 📖 Scholar (50 points to go)",
		"Passed a mock exam (+10)",
		"Average over the last 2 days: 8.0 points",
		"Direction: up",
	}
	for _, want := range checks {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(text, "bob@example.com") {
		t.Error("tomorrow plan was not redacted")
	}
}

func TestBuildDaily_TopLevelNoHistory(t *testing.T) {
	d := sampleDaily()
	d.Level.Next = nil
	d.Recent = nil
	d.Special = nil
	text := BuildDaily(d)
	for _, absent := range []string{"Next:", "Recent trend", "Special achievement"} {
		if strings.Contains(text, absent) {
			t.Errorf("prompt should not contain %q", absent)
		}
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name   string
		today  int
		recent []int
		want   string
		days   int
	}{
		{"up", 10, []int{5, 5}, "up", 2},
		{"down", 1, []int{5, 5}, "down", 2},
		{"steady", 5, []int{5, 5}, "steady", 2},
		{"last seven only", 5, []int{100, 5, 5, 5, 5, 5, 5, 5}, "steady", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Daily{Result: scoring.Result{Total: tt.today}}
			for _, p := range tt.recent {
				d.Recent = append(d.Recent, scoring.HistoryRecord{DailyPoints: p})
			}
			tr, ok := d.Trend()
			if !ok {
				t.Fatal("expected a trend")
			}
			if tr.Direction != tt.want || tr.Days != tt.days {
				t.Errorf("got %s over %d days, want %s over %d", tr.Direction, tr.Days, tt.want, tt.days)
			}
		})
	}
	if _, ok := (Daily{}).Trend(); ok {
		t.Error("no history should give no trend")
	}
}

func TestBuildWeekly(t *testing.T) {
	w := Weekly{
		End: time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
		Responses: []scoring.Response{
			{Date: "2024-01-12", Fields: map[string]scoring.Field{
				scoring.FieldStudyDuration:     {Value: scoring.Number(90)},
				scoring.FieldProblemsCompleted: {Value: scoring.Number(25)},
			}},
			{Date: "2024-01-13", Fields: map[string]scoring.Field{
				scoring.FieldStudyDuration: {Value: scoring.Number(0)},
			}},
			{Date: "2024-01-14", Fields: map[string]scoring.Field{
				scoring.FieldStudyDuration: {Value: scoring.Number(45.5)},
			}},
		},
		History: []scoring.HistoryRecord{{DailyPoints: 10}, {DailyPoints: -3}, {DailyPoints: 7}},
	}
	s := w.Stats()
	if s.StudyDays != 2 || s.StudyMinutes != 135.5 || s.Problems != 25 || s.Points != 14 {
		t.Errorf("unexpected stats %+v", s)
	}

	text := BuildWeekly(w)
	for _, want := range []string{
		"week ending 2024-01-14",
		"Study days: 2/7",
		"Total study time: 135.5 minutes",
		"Problems solved: 25",
		"Points this week: 14",
		"Average per day: 2.0",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("weekly prompt missing %q", want)
		}
	}
}

func TestSigned(t *testing.T) {
	for in, want := range map[int]string{5: "+5", 0: "0", -2: "-2"} {
		if got := Signed(in); got != want {
			t.Errorf("Signed(%d) = %q, want %q", in, got, want)
		}
	}
}
