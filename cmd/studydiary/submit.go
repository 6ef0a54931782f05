package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/studydiary/internal/answer"
	"github.com/dshills/studydiary/internal/prompt"
	"github.com/dshills/studydiary/internal/questionnaire"
	"github.com/dshills/studydiary/internal/report"
	"github.com/dshills/studydiary/internal/scoring"
	"github.com/dshills/studydiary/internal/store"
)

// historyDays is the look-back window handed to the engine.
const historyDays = 30

// outcome is everything a submission produced.
type outcome struct {
	Result  scoring.Result
	Total   int
	Level   scoring.LevelInfo
	Special *scoring.PointDetail
	Report  *report.Report
}

// submitOpts carries per-command choices into the pipeline.
type submitOpts struct {
	achievement string
	noReport    bool
}

// submit scores resp, records it and writes the daily report. The response
// and ledger entry replace any earlier submission for the same date.
func (a *app) submit(ctx context.Context, st *store.Store, eng *scoring.Engine, resp scoring.Response, opts submitOpts) (outcome, error) {
	var special *scoring.PointDetail
	if opts.achievement != "" {
		d, ok := eng.SpecialAchievement(opts.achievement)
		if !ok {
			return outcome{}, exitError(exitBadInput, "unknown achievement %q (known: %s)",
				opts.achievement, strings.Join(eng.SpecialAchievementKeys(), ", "))
		}
		special = &d
	}

	day, err := scoring.ParseDate(resp.Date)
	if err != nil {
		return outcome{}, exitError(exitBadInput, "%v", err)
	}

	a.verbose("Saving response for %s", resp.Date)
	if err := st.SaveResponse(ctx, resp); err != nil {
		return outcome{}, storageError(err)
	}

	history, err := st.History(ctx, day.AddDate(0, 0, -1), historyDays)
	if err != nil {
		return outcome{}, storageError(err)
	}
	a.verbose("Loaded %d days of history", len(history))

	result, err := eng.Calculate(resp, history)
	if err != nil {
		if !errors.Is(err, scoring.ErrInvalidDate) {
			return outcome{}, exitError(exitGeneric, "scoring failed: %v", err)
		}
		a.warn("streak bonus skipped: %v", err)
	}
	if special != nil {
		result.Details = append(result.Details, *special)
		result.Total += special.Points
	}

	total, err := st.RecordDay(ctx, resp.Date, result.Details, a.now())
	if err != nil {
		return outcome{}, storageError(err)
	}
	out := outcome{Result: result, Total: total, Level: eng.Level(total), Special: special}

	if opts.noReport {
		return out, nil
	}
	gen, err := a.generator(ctx)
	if err != nil {
		return out, err
	}
	rep, err := gen.Daily(ctx, prompt.Daily{
		Response: resp,
		Result:   result,
		Total:    total,
		Level:    out.Level,
		Special:  special,
		Recent:   history,
	})
	if err != nil {
		a.warn("daily report not written: %v", err)
		return out, nil
	}
	out.Report = &rep
	return out, nil
}

func (a *app) generator(ctx context.Context) (*report.Generator, error) {
	p, err := a.provider(ctx)
	if err != nil {
		return nil, err
	}
	opts := []report.Option{report.WithLogger(a.logger)}
	if a.cfg.PDF {
		opts = append(opts, report.WithPDF(a.cfg.Pandoc))
	}
	return report.NewGenerator(a.cfg.ReportsDir, p, opts...), nil
}

func (a *app) printOutcome(out outcome) error {
	p := a.printer()
	if err := p.Breakdown(out.Result); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Total: %d points\n", out.Total)
	if err := p.Level(out.Level, out.Total); err != nil {
		return err
	}
	fmt.Fprintln(a.out, scoring.Encouragement(out.Result.Total))
	if out.Report != nil {
		printReport(a, *out.Report)
	}
	return nil
}

type fillFlags struct {
	date        string
	achievement string
	noReport    bool
}

func newFillCmd(a *app) *cobra.Command {
	f := &fillFlags{}
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Answer today's questionnaire and score it",
		Long: "Asks each question in turn. Choice questions take an option number or a plain\n" +
			"answer such as \"about two hours\", which is matched to the closest option.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(cmd.Context(), a, cmd.InOrStdin(), f)
		},
	}
	cmd.Flags().StringVar(&f.date, "date", "", "Record the answers for this date (YYYY-MM-DD) instead of today")
	cmd.Flags().StringVar(&f.achievement, "achievement", "", "Award a special achievement (e.g. chapter_complete)")
	cmd.Flags().BoolVar(&f.noReport, "no-report", false, "Skip the daily report")
	return cmd
}

func runFill(ctx context.Context, a *app, in io.Reader, f *fillFlags) error {
	q, err := a.questionnaire()
	if err != nil {
		return err
	}
	eng, err := a.engine()
	if err != nil {
		return err
	}

	interactive := isTerminal(in)
	if interactive {
		fmt.Fprintln(a.out, "📋 Daily study questionnaire")
	}
	raw, err := askAll(a.out, in, q, interactive)
	if err != nil {
		return exitError(exitBadInput, "failed to read answers: %v", err)
	}
	if f.date != "" {
		raw[scoring.FieldDate] = f.date
	}
	return a.submitRaw(ctx, q, eng, raw, submitOpts{achievement: f.achievement, noReport: f.noReport})
}

// submitRaw interprets raw answers and runs the pipeline.
func (a *app) submitRaw(ctx context.Context, q *questionnaire.Questionnaire, eng *scoring.Engine, raw map[string]string, opts submitOpts) error {
	p, err := a.provider(ctx)
	if err != nil {
		return err
	}
	resolver := answer.NewResolver(p, answer.WithLogger(a.verboseLogger()))
	answers, notes := resolver.ResolveAll(ctx, raw, q)
	for _, n := range notes {
		a.warn("%s", n)
	}
	for _, ve := range q.Validate(answers) {
		a.verbose("unanswered: %v", ve)
	}

	resp, err := q.Process(answers, a.now())
	if err != nil {
		return exitError(exitBadInput, "%v", err)
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(a, st)

	out, err := a.submit(ctx, st, eng, resp, opts)
	if err != nil {
		return err
	}
	return a.printOutcome(out)
}

// askAll reads one line per answerable question. Blank lines leave the
// question unanswered. End of input stops early.
func askAll(w io.Writer, in io.Reader, q *questionnaire.Questionnaire, interactive bool) (map[string]string, error) {
	sc := bufio.NewScanner(in)
	raw := map[string]string{}
	for i, qu := range q.Answerable() {
		if interactive {
			fmt.Fprintf(w, "\n%d. %s\n", i+1, qu.Prompt)
			for j, opt := range qu.Options {
				fmt.Fprintf(w, "   %d. %s\n", j, opt)
			}
			if qu.Placeholder != "" {
				fmt.Fprintf(w, "   (%s)\n", qu.Placeholder)
			}
			fmt.Fprint(w, "> ")
		}
		if !sc.Scan() {
			break
		}
		if line := strings.TrimSpace(sc.Text()); line != "" {
			raw[qu.ID] = line
		}
	}
	return raw, sc.Err()
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type scoreFlags struct {
	achievement string
	dryRun      bool
	noReport    bool
}

func newScoreCmd(a *app) *cobra.Command {
	f := &scoreFlags{}
	cmd := &cobra.Command{
		Use:   "score <response.json>",
		Short: "Score a saved questionnaire response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd.Context(), a, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.achievement, "achievement", "", "Award a special achievement")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the breakdown without recording it")
	cmd.Flags().BoolVar(&f.noReport, "no-report", false, "Skip the daily report")
	return cmd
}

func runScore(ctx context.Context, a *app, path string, f *scoreFlags) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return exitError(exitBadInput, "failed to read response: %v", err)
	}
	var resp scoring.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return exitError(exitBadInput, "failed to parse response %s: %v", path, err)
	}
	if resp.Date == "" {
		resp.Date = a.now().Format(scoring.DateLayout)
	}
	eng, err := a.engine()
	if err != nil {
		return err
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(a, st)

	if f.dryRun {
		day, err := scoring.ParseDate(resp.Date)
		if err != nil {
			return exitError(exitBadInput, "%v", err)
		}
		history, err := st.History(ctx, day.AddDate(0, 0, -1), historyDays)
		if err != nil {
			return storageError(err)
		}
		result, err := eng.Calculate(resp, history)
		if err != nil {
			a.warn("streak bonus skipped: %v", err)
		}
		return a.printer().Breakdown(result)
	}

	out, err := a.submit(ctx, st, eng, resp, submitOpts{achievement: f.achievement, noReport: f.noReport})
	if err != nil {
		return err
	}
	return a.printOutcome(out)
}
