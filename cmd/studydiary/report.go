package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/studydiary/internal/prompt"
	"github.com/dshills/studydiary/internal/report"
	"github.com/dshills/studydiary/internal/scoring"
	"github.com/dshills/studydiary/internal/store"
)

func newReportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write daily and weekly reports",
	}
	cmd.AddCommand(newReportDailyCmd(a), newReportWeeklyCmd(a))
	return cmd
}

func newReportDailyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "daily [date]",
		Short: "Rewrite the report for a recorded day (default: today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := a.now().Format(scoring.DateLayout)
			if len(args) == 1 {
				date = args[0]
			}
			day, err := scoring.ParseDate(date)
			if err != nil {
				return exitError(exitBadInput, "%v", err)
			}
			eng, err := a.engine()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withStore(ctx, func(st *store.Store) error {
				d, err := dailyInput(ctx, st, eng, day)
				if err != nil {
					return err
				}
				gen, err := a.generator(ctx)
				if err != nil {
					return err
				}
				rep, err := gen.Daily(ctx, d)
				if err != nil {
					return exitError(exitGeneric, "%v", err)
				}
				printReport(a, rep)
				return nil
			})
		},
	}
}

// dailyInput rebuilds what the day's submission knew. Recorded points are
// used as-is; a response without points is rescored.
func dailyInput(ctx context.Context, st *store.Store, eng *scoring.Engine, day time.Time) (prompt.Daily, error) {
	date := day.Format(scoring.DateLayout)
	resp, err := st.ResponseByDate(ctx, date)
	if errors.Is(err, store.ErrNotFound) {
		return prompt.Daily{}, exitError(exitBadInput, "no response recorded for %s", date)
	}
	if err != nil {
		return prompt.Daily{}, storageError(err)
	}
	history, err := st.History(ctx, day.AddDate(0, 0, -1), historyDays)
	if err != nil {
		return prompt.Daily{}, storageError(err)
	}
	total, err := st.TotalPoints(ctx)
	if err != nil {
		return prompt.Daily{}, storageError(err)
	}
	entries, err := st.DailyEntries(ctx, date)
	if err != nil {
		return prompt.Daily{}, storageError(err)
	}

	var result scoring.Result
	found := false
	for _, e := range entries {
		if e.Date == date {
			result.Details = append(result.Details, e.Details...)
			result.Total += e.Points
			found = true
		}
	}
	if !found {
		result, _ = eng.Calculate(resp, history)
	}

	d := prompt.Daily{Response: resp, Result: result, Total: total, Level: eng.Level(total), Recent: history}
	for _, det := range result.Details {
		if det.Category == scoring.CategorySpecial {
			d.Special = &det
		}
	}
	return d, nil
}

func newReportWeeklyCmd(a *app) *cobra.Command {
	var end string
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Write the summary of the last 7 days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			endDay, err := scoring.ParseDate(a.now().Format(scoring.DateLayout))
			if err != nil {
				return exitError(exitGeneric, "%v", err)
			}
			if end != "" {
				if endDay, err = scoring.ParseDate(end); err != nil {
					return exitError(exitBadInput, "%v", err)
				}
			}
			ctx := cmd.Context()
			return a.withStore(ctx, func(st *store.Store) error {
				responses, err := st.RecentResponses(ctx, endDay, 7)
				if err != nil {
					return storageError(err)
				}
				history, err := st.History(ctx, endDay, 7)
				if err != nil {
					return storageError(err)
				}
				gen, err := a.generator(ctx)
				if err != nil {
					return err
				}
				rep, err := gen.Weekly(ctx, prompt.Weekly{End: endDay, Responses: responses, History: history})
				if err != nil {
					return exitError(exitGeneric, "%v", err)
				}
				printReport(a, rep)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&end, "end", "", "Last day of the week (default: today)")
	return cmd
}

func printReport(a *app, rep report.Report) {
	source := "built-in"
	if rep.AI {
		source = "AI"
	}
	fmt.Fprintf(a.out, "Report (%s): %s\n", source, rep.Path)
	if rep.PDFPath != "" {
		fmt.Fprintf(a.out, "PDF: %s\n", rep.PDFPath)
	}
}
