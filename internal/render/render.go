package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"

	"github.com/dshills/studydiary/internal/prompt"
	"github.com/dshills/studydiary/internal/redeem"
	"github.com/dshills/studydiary/internal/scoring"
	"github.com/dshills/studydiary/internal/store"
)

// BarCells is the width of the level progress bar.
const BarCells = 20

// Options configures a Printer.
type Options struct {
	Color bool
	// Width overrides terminal width detection when positive.
	Width int
}

// Printer writes tables and charts to a terminal.
type Printer struct {
	w     io.Writer
	width int

	green, red, yellow, bold func(...any) string
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer, opts Options) *Printer {
	p := &Printer{w: w, width: opts.Width}
	if opts.Color {
		p.green = color.New(color.FgGreen).SprintFunc()
		p.red = color.New(color.FgRed).SprintFunc()
		p.yellow = color.New(color.FgYellow).SprintFunc()
		p.bold = color.New(color.Bold).SprintFunc()
	} else {
		p.green, p.red, p.yellow, p.bold = fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint
	}
	return p
}

// Width returns the override width, the detected terminal width, or 80.
func (p *Printer) Width() int {
	if p.width > 0 {
		return p.width
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

func (p *Printer) points(n int) string {
	s := prompt.Signed(n)
	switch {
	case n > 0:
		return p.green(s)
	case n < 0:
		return p.red(s)
	}
	return p.yellow(s)
}

func (p *Printer) table(headers []string, data [][]string, align tw.Align) error {
	table := tablewriter.NewWriter(p.w)
	defer func() { _ = table.Close() }()
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = align
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// Breakdown prints a day's point details and total.
func (p *Printer) Breakdown(res scoring.Result) error {
	data := make([][]string, 0, len(res.Details))
	for _, d := range res.Details {
		data = append(data, []string{d.Category, d.Item, p.points(d.Points)})
	}
	if err := p.table([]string{"Category", "Item", "Points"}, data, tw.AlignLeft); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.w, "%s %s\n", p.bold("Today:"), p.points(res.Total))
	return err
}

// ProgressBar draws the filled share of the way to the next level.
func ProgressBar(info scoring.LevelInfo) string {
	span := info.Span()
	if span <= 0 {
		return strings.Repeat("█", BarCells)
	}
	filled := info.Progress * BarCells / span
	filled = max(0, min(BarCells, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", BarCells-filled)
}

// Level prints the current level and a progress bar.
func (p *Printer) Level(info scoring.LevelInfo, total int) error {
	if _, err := fmt.Fprintf(p.w, "%s %s %s  (%d points)\n", p.bold("Level:"), info.Current.Emoji, info.Current.Name, total); err != nil {
		return err
	}
	if info.Next == nil {
		_, err := fmt.Fprintf(p.w, "[%s] top level reached\n", p.green(ProgressBar(info)))
		return err
	}
	pct := 0.0
	if span := info.Span(); span > 0 {
		pct = math.Max(0, float64(info.Progress)*100/float64(span))
	}
	_, err := fmt.Fprintf(p.w, "[%s] %.0f%%  %d points to %s %s\n", p.green(ProgressBar(info)), pct, info.Needed, info.Next.Emoji, info.Next.Name)
	return err
}

// Highlights returns the items of the two largest gains.
func Highlights(details []scoring.PointDetail) []string {
	gains := make([]scoring.PointDetail, 0, len(details))
	for _, d := range details {
		if d.Points > 0 {
			gains = append(gains, d)
		}
	}
	sort.SliceStable(gains, func(i, j int) bool { return gains[i].Points > gains[j].Points })
	var out []string
	for i := 0; i < len(gains) && i < 2; i++ {
		out = append(out, gains[i].Item)
	}
	return out
}

// History prints the last n ledger entries.
func (p *Printer) History(entries []store.LedgerEntry, n int) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(p.w, "No history yet.")
		return err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	data := make([][]string, 0, len(entries))
	for _, e := range entries {
		note := strings.Join(Highlights(e.Details), ", ")
		if e.Kind == store.KindRedemption && len(e.Details) > 0 {
			note = e.Details[0].Item
		}
		data = append(data, []string{e.Date, e.Kind, p.points(e.Points), strconv.Itoa(e.Balance), note})
	}
	return p.table([]string{"Date", "Kind", "Points", "Total", "Highlights"}, data, tw.AlignLeft)
}

// Shop prints the catalogue grouped by category, marking what total can buy.
func (p *Printer) Shop(rewards []store.Reward, cat *redeem.Catalogue, total int) error {
	sorted := append([]store.Reward(nil), rewards...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Category != sorted[j].Category {
			return sorted[i].Category < sorted[j].Category
		}
		return sorted[i].Points < sorted[j].Points
	})
	data := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		mark := ""
		if r.Points <= total {
			mark = p.green("✓")
		}
		data = append(data, []string{cat.CategoryName(r.Category), r.ID, r.Emoji + " " + r.Name, strconv.Itoa(r.Points), r.Description, mark})
	}
	if _, err := fmt.Fprintf(p.w, "🎁 Points shop  (balance: %d)\n", total); err != nil {
		return err
	}
	return p.table([]string{"Category", "ID", "Reward", "Points", "Description", ""}, data, tw.AlignLeft)
}

// Redemptions prints purchase history.
func (p *Printer) Redemptions(reds []store.Redemption) error {
	if len(reds) == 0 {
		_, err := fmt.Fprintln(p.w, "No redemptions yet.")
		return err
	}
	data := make([][]string, 0, len(reds))
	for _, r := range reds {
		data = append(data, []string{r.CreatedAt.Local().Format("2006-01-02 15:04"), r.RewardName, strconv.Itoa(r.PointsSpent)})
	}
	return p.table([]string{"When", "Reward", "Points"}, data, tw.AlignLeft)
}

// RedemptionStats prints redemption totals and per-category counts.
func (p *Printer) RedemptionStats(st redeem.Stats, cat *redeem.Catalogue) error {
	popular := st.MostPopular
	if popular == "" {
		popular = "-"
	}
	if _, err := fmt.Fprintf(p.w, "Redemptions: %d  Points spent: %d  Most popular: %s\n", st.Count, st.PointsSpent, popular); err != nil {
		return err
	}
	if len(st.Categories) == 0 {
		return nil
	}
	keys := make([]string, 0, len(st.Categories))
	for k := range st.Categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	data := make([][]string, 0, len(keys))
	for _, k := range keys {
		data = append(data, []string{cat.CategoryName(k), strconv.Itoa(st.Categories[k])})
	}
	return p.table([]string{"Category", "Count"}, data, tw.AlignLeft)
}

// Stats prints the ledger summary.
func (p *Printer) Stats(st store.Stats) error {
	span := "-"
	if st.FirstDate != "" {
		span = st.FirstDate + " to " + st.LastDate
	}
	best := "-"
	if st.BestDate != "" {
		best = fmt.Sprintf("%s (%s)", st.BestDate, prompt.Signed(st.BestPoints))
	}
	data := [][]string{
		{"Period", span},
		{"Days recorded", strconv.Itoa(st.Days)},
		{"Study days", strconv.Itoa(st.StudyDays)},
		{"Study time", fmt.Sprintf("%.0f minutes (%.1f hours)", st.StudyMinutes, st.StudyMinutes/60)},
		{"Problems solved", fmt.Sprintf("%.0f", st.Problems)},
		{"Points earned", strconv.Itoa(st.Earned)},
		{"Points lost", strconv.Itoa(st.Lost)},
		{"Points spent", strconv.Itoa(st.Spent)},
		{"Balance", strconv.Itoa(st.Total)},
		{"Average per day", fmt.Sprintf("%.1f", st.Average)},
		{"Best day", best},
		{"Redemptions", strconv.Itoa(st.Redemptions)},
	}
	return p.table([]string{"Statistic", "Value"}, data, tw.AlignLeft)
}

// Chart prints one horizontal bar per daily entry scaled to the terminal
// width, with the average marked by ┆.
func (p *Printer) Chart(entries []store.LedgerEntry) error {
	var days []store.LedgerEntry
	for _, e := range entries {
		if e.Kind == store.KindDaily {
			days = append(days, e)
		}
	}
	if len(days) == 0 {
		_, err := fmt.Fprintln(p.w, "No daily points to chart.")
		return err
	}

	peak, sum := 1, 0
	for _, d := range days {
		peak = max(peak, abs(d.Points))
		sum += d.Points
	}
	avg := float64(sum) / float64(len(days))
	// date + space + sign + value + spaces
	cells := max(10, p.Width()-len(scoring.DateLayout)-8)
	scale := float64(cells) / float64(peak)
	avgAt := -1
	if avg > 0 {
		avgAt = int(math.Round(avg * scale))
	}

	for _, d := range days {
		n := int(math.Round(float64(abs(d.Points)) * scale))
		if d.Points != 0 && n == 0 {
			n = 1
		}
		bar := []rune(strings.Repeat("█", n))
		if d.Points < 0 {
			bar = []rune(strings.Repeat("▒", n))
		}
		if avgAt >= 0 && avgAt <= cells {
			for len(bar) <= avgAt {
				bar = append(bar, ' ')
			}
			if bar[avgAt] == ' ' {
				bar[avgAt] = '┆'
			}
		}
		text := strings.TrimRight(string(bar), " ")
		if d.Points < 0 {
			text = p.red(text)
		} else {
			text = p.green(text)
		}
		if _, err := fmt.Fprintf(p.w, "%s %s %s\n", d.Date, text, prompt.Signed(d.Points)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(p.w, "average %.1f points over %d days\n", avg, len(days))
	return err
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
