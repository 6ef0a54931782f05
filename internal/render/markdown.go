// Package render produces Markdown reports and terminal output.
package render

import (
	"fmt"
	"strings"

	"github.com/dshills/studydiary/internal/prompt"
	"github.com/dshills/studydiary/internal/redact"
	"github.com/dshills/studydiary/internal/scoring"
)

// DailyMarkdown renders the daily report without an AI provider.
func DailyMarkdown(d prompt.Daily) string {
	var b strings.Builder

	// Summary
	fmt.Fprintf(&b, "# 📚 Daily Study Report: %s\n\n", d.Response.Date)
	fmt.Fprintf(&b, "**Today:** %s points\n", prompt.Signed(d.Result.Total))
	fmt.Fprintf(&b, "**Total:** %d points\n", d.Total)
	fmt.Fprintf(&b, "**Level:** %s %s\n\n", d.Level.Current.Emoji, d.Level.Current.Name)
	fmt.Fprintf(&b, "%s\n\n", scoring.Encouragement(d.Result.Total))

	// Gains and losses
	gains := filterDetails(d.Result.Details, func(p int) bool { return p > 0 })
	losses := filterDetails(d.Result.Details, func(p int) bool { return p < 0 })

	if len(gains) > 0 {
		b.WriteString("## 💪 What went well\n\n")
		for _, det := range gains {
			renderDetail(&b, det)
		}
		b.WriteString("\n")
	}

	if len(losses) > 0 {
		b.WriteString("## 🎯 Room to improve\n\n")
		for _, det := range losses {
			renderDetail(&b, det)
		}
		b.WriteString("\n")
	}

	if len(d.Result.Details) == 0 {
		b.WriteString("No points recorded today.\n\n")
	}

	// Special achievement
	if d.Special != nil {
		fmt.Fprintf(&b, "## 🏆 Special achievement\n\n%s (%s)\n\n", d.Special.Item, prompt.Signed(d.Special.Points))
	}

	// Progress
	b.WriteString("## 📈 Progress\n\n")
	if d.Level.Next != nil {
		fmt.Fprintf(&b, "%d points to %s %s.\n", d.Level.Needed, d.Level.Next.Emoji, d.Level.Next.Name)
	} else {
		b.WriteString("Top level reached.\n")
	}
	if t, ok := d.Trend(); ok {
		fmt.Fprintf(&b, "Average over the last %d days: %.1f points (trend: %s).\n", t.Days, t.Average, t.Direction)
	}
	b.WriteString("\n")

	// Tomorrow
	if plan := strings.TrimSpace(d.Response.Raw(scoring.FieldTomorrowPlan)); plan != "" {
		fmt.Fprintf(&b, "## 🗓️ Tomorrow\n\n%s\n\n", redact.Redact(plan))
	}

	b.WriteString("> Little by little, one travels far.\n")
	return b.String()
}

// WeeklyMarkdown renders the weekly summary without an AI provider.
func WeeklyMarkdown(w prompt.Weekly) string {
	s := w.Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "# 📅 Weekly Summary: week ending %s\n\n", w.End.Format(scoring.DateLayout))
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Study days | %d/7 |\n", s.StudyDays)
	fmt.Fprintf(&b, "| Study time | %.0f minutes |\n", s.StudyMinutes)
	fmt.Fprintf(&b, "| Problems solved | %.0f |\n", s.Problems)
	fmt.Fprintf(&b, "| Points | %d |\n", s.Points)
	fmt.Fprintf(&b, "| Average per day | %.1f |\n\n", s.Average)

	switch {
	case s.StudyDays >= 6:
		b.WriteString("An excellent, consistent week. 🌟\n")
	case s.StudyDays >= 4:
		b.WriteString("A good week. Try to add one more study day next week. 💪\n")
	default:
		b.WriteString("A quiet week. Start small next week: a short session every day adds up. 🌱\n")
	}
	return b.String()
}

func filterDetails(details []scoring.PointDetail, keep func(int) bool) []scoring.PointDetail {
	var result []scoring.PointDetail
	for _, d := range details {
		if keep(d.Points) {
			result = append(result, d)
		}
	}
	return result
}

func renderDetail(b *strings.Builder, d scoring.PointDetail) {
	fmt.Fprintf(b, "- **%s**: %s (%s)\n", d.Category, d.Item, prompt.Signed(d.Points))
}
