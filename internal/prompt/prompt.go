// Package prompt builds the LLM prompts for daily and weekly study reports.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/studydiary/internal/redact"
	"github.com/dshills/studydiary/internal/scoring"
)

// Daily is everything the daily report talks about.
type Daily struct {
	Response scoring.Response
	Result   scoring.Result
	Total    int
	Level    scoring.LevelInfo
	// Special is the special achievement awarded today, if any.
	Special *scoring.PointDetail
	// Recent holds the preceding days, oldest first.
	Recent []scoring.HistoryRecord
}

// Trend compares today's points with the recent average.
type Trend struct {
	Days    int
	Average float64
	// Direction is "up", "down" or "steady".
	Direction string
}

// Trend returns the comparison over at most the last 7 recent days. ok is
// false without history.
func (d Daily) Trend() (Trend, bool) {
	recent := d.Recent
	if len(recent) > 7 {
		recent = recent[len(recent)-7:]
	}
	if len(recent) == 0 {
		return Trend{}, false
	}
	sum := 0
	for _, r := range recent {
		sum += r.DailyPoints
	}
	avg := float64(sum) / float64(len(recent))
	dir := "steady"
	switch today := float64(d.Result.Total); {
	case today > avg:
		dir = "up"
	case today < avg:
		dir = "down"
	}
	return Trend{Days: len(recent), Average: avg, Direction: dir}, true
}

// Study and wellbeing answers listed in the daily prompt, in order.
var (
	studyFields = []struct{ id, label string }{
		{scoring.FieldStudyCompleted, "Study plan"},
		{scoring.FieldStudyDuration, "Study time"},
		{scoring.FieldProblemsCompleted, "Practice problems"},
		{scoring.FieldFocusLevel, "Focus"},
		{scoring.FieldReviewCompleted, "Review"},
		{scoring.FieldNotesTaken, "Notes"},
		{scoring.FieldThesisWriting, "Thesis writing"},
		{scoring.FieldMemorizationTime, "Memorization"},
		{scoring.FieldOnlineCourseTime, "Online courses"},
	}
	wellbeingFields = []struct{ id, label string }{
		{scoring.FieldEmotionalState, "Mood"},
		{scoring.FieldPhysicalCondition, "Physical condition"},
		{scoring.FieldSleepQuality, "Sleep"},
		{scoring.FieldDietQuality, "Diet"},
		{scoring.FieldBreaksTaken, "Breaks"},
	}
)

// BuildDaily assembles the daily summary prompt. Free text is redacted.
func BuildDaily(d Daily) string {
	var b strings.Builder

	// 1. Role
	b.WriteString("You are a friendly study coach. Write an encouraging daily summary for a student preparing for an exam, based on today's record below.\n\n")

	// 2. Answers
	fmt.Fprintf(&b, "# Today's record\n\nDate: %s\n\n## Study\n", d.Response.Date)
	writeAnswers(&b, d.Response, studyFields)
	if acc := d.Response.Raw(scoring.FieldAccuracyRate); acc != "" {
		fmt.Fprintf(&b, "- Accuracy: %s%%\n", strings.TrimSuffix(acc, "%"))
	}
	b.WriteString("\n## Wellbeing\n")
	writeAnswers(&b, d.Response, wellbeingFields)

	// 3. Points
	b.WriteString("\n## Points\n")
	for _, det := range d.Result.Details {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", det.Category, det.Item, Signed(det.Points))
	}
	fmt.Fprintf(&b, "\n**Today: %s points**\n**Total: %d points**\n", Signed(d.Result.Total), d.Total)

	// 4. Level
	b.WriteString("\n## Level\n")
	fmt.Fprintf(&b, "Current: %s %s (%d points)\n", d.Level.Current.Emoji, d.Level.Current.Name, d.Level.Current.MinPoints)
	if d.Level.Next != nil {
		fmt.Fprintf(&b, "Next: %s %s (%d points to go)\n", d.Level.Next.Emoji, d.Level.Next.Name, d.Level.Needed)
	}

	// 5. Free text
	if d.Special != nil {
		fmt.Fprintf(&b, "\n## Special achievement\n%s (%s)\n", d.Special.Item, Signed(d.Special.Points))
	}
	if plan := strings.TrimSpace(d.Response.Raw(scoring.FieldTomorrowPlan)); plan != "" {
		fmt.Fprintf(&b, "\n## Plan for tomorrow\n%s\n", redact.Redact(plan))
	}

	// 6. Trend
	if t, ok := d.Trend(); ok {
		fmt.Fprintf(&b, "\n## Recent trend\n- Average over the last %d days: %.1f points\n- Direction: %s\n", t.Days, t.Average, t.Direction)
	}

	// 7. Instructions
	b.WriteString(`
# Instructions

Write the report in Markdown:
1. Open with a warm greeting and an overall verdict on the day.
2. Describe how study and wellbeing went, in lively language.
3. Explain the points, praising what went well.
4. Suggest one or two small, concrete goals for tomorrow.
5. Close with an encouraging line.

Even on a weak day, find something to praise. Keep suggestions achievable. Use emoji freely and sound like a supportive friend.
`)
	return b.String()
}

func writeAnswers(b *strings.Builder, r scoring.Response, fields []struct{ id, label string }) {
	for _, f := range fields {
		v := r.Display(f.id)
		if v == "" {
			v = "unknown"
		}
		fmt.Fprintf(b, "- %s: %s\n", f.label, v)
	}
}

// Weekly is the input of the weekly summary.
type Weekly struct {
	End       time.Time
	Responses []scoring.Response
	History   []scoring.HistoryRecord
}

// WeeklyStats are the totals the weekly summary reports.
type WeeklyStats struct {
	StudyDays    int
	StudyMinutes float64
	Problems     float64
	Points       int
	Average      float64
}

// Stats totals the week. The average is always over 7 days.
func (w Weekly) Stats() WeeklyStats {
	var s WeeklyStats
	for _, r := range w.Responses {
		if mins := r.Number(scoring.FieldStudyDuration); mins > 0 {
			s.StudyDays++
			s.StudyMinutes += mins
		}
		s.Problems += r.Number(scoring.FieldProblemsCompleted)
	}
	for _, h := range w.History {
		s.Points += h.DailyPoints
	}
	s.Average = float64(s.Points) / 7
	return s
}

// BuildWeekly assembles the weekly summary prompt.
func BuildWeekly(w Weekly) string {
	s := w.Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "Write a weekly study summary for the week ending %s.\n\n# This week\n\n", w.End.Format(scoring.DateLayout))
	fmt.Fprintf(&b, "- Study days: %d/7\n", s.StudyDays)
	fmt.Fprintf(&b, "- Total study time: %s minutes\n", trimFloat(s.StudyMinutes))
	fmt.Fprintf(&b, "- Problems solved: %s\n", trimFloat(s.Problems))
	fmt.Fprintf(&b, "- Points this week: %d\n", s.Points)
	fmt.Fprintf(&b, "- Average per day: %.1f\n", s.Average)
	b.WriteString(`
Include:
1. Highlights of the week
2. Progress analysis
3. Suggestions for next week
4. A motivating closing line

Use a warm, encouraging tone, Markdown formatting and plenty of emoji.
`)
	return b.String()
}

// Signed formats points with an explicit plus sign for gains.
func Signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

func trimFloat(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", f), "0"), ".")
}
