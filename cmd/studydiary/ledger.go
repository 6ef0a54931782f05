package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/studydiary/internal/export"
	"github.com/dshills/studydiary/internal/scoring"
	"github.com/dshills/studydiary/internal/store"
)

// withStore opens the ledger for fn.
func (a *app) withStore(ctx context.Context, fn func(st *store.Store) error) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(a, st)
	return fn(st)
}

// sinceDays returns the first date of a days-long window ending today, or ""
// for no limit.
func (a *app) sinceDays(days int) string {
	if days <= 0 {
		return ""
	}
	return a.now().AddDate(0, 0, -(days - 1)).Format(scoring.DateLayout)
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent ledger entries with running totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(st *store.Store) error {
				entries, err := st.PointsHistory(ctx, "")
				if err != nil {
					return storageError(err)
				}
				if len(entries) == 0 {
					fmt.Fprintln(a.out, "No points recorded yet.")
					return nil
				}
				return a.printer().History(entries, limit)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of entries to show")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show overall statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(st *store.Store) error {
				stats, err := st.Statistics(ctx)
				if err != nil {
					return storageError(err)
				}
				return a.printer().Stats(stats)
			})
		},
	}
}

func newLevelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "level",
		Short: "Show your level and progress to the next one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := a.engine()
			if err != nil {
				return err
			}
			return a.withStore(ctx, func(st *store.Store) error {
				total, err := st.TotalPoints(ctx)
				if err != nil {
					return storageError(err)
				}
				return a.printer().Level(eng.Level(total), total)
			})
		},
	}
}

func newChartCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Chart daily points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(st *store.Store) error {
				entries, err := st.DailyEntries(ctx, a.sinceDays(days))
				if err != nil {
					return storageError(err)
				}
				return a.printer().Chart(entries)
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Days to chart (0 for all)")
	return cmd
}

type rollbackFlags struct {
	list bool
}

func newRollbackCmd(a *app) *cobra.Command {
	f := &rollbackFlags{}
	cmd := &cobra.Command{
		Use:   "rollback <date>",
		Short: "Delete a day's response and points",
		Long:  "Deletes the response and daily points for a date. Redemptions made that day are kept.",
		Args: func(cmd *cobra.Command, args []string) error {
			if f.list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(st *store.Store) error {
				if f.list {
					dates, err := st.RollbackDates(ctx)
					if err != nil {
						return storageError(err)
					}
					if len(dates) == 0 {
						fmt.Fprintln(a.out, "Nothing to roll back.")
					}
					for _, d := range dates {
						fmt.Fprintln(a.out, d)
					}
					return nil
				}
				if _, err := scoring.ParseDate(args[0]); err != nil {
					return exitError(exitBadInput, "%v", err)
				}
				res, err := st.Rollback(ctx, args[0])
				if errors.Is(err, store.ErrNotFound) {
					return exitError(exitBadInput, "nothing recorded for %s", args[0])
				}
				if err != nil {
					return storageError(err)
				}
				fmt.Fprintf(a.out, "Rolled back %s: removed %d points", res.Date, res.PointsRemoved)
				if res.ResponseRemoved {
					fmt.Fprint(a.out, " and the response")
				}
				fmt.Fprintf(a.out, ". Balance: %d\n", res.Total)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&f.list, "list", false, "List dates that can be rolled back")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export responses and the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fmtv, err := export.ParseFormat(format)
			if err != nil {
				return exitError(exitBadInput, "%v", err)
			}
			return a.withStore(ctx, func(st *store.Store) error {
				b, err := bundle(ctx, st)
				if err != nil {
					return storageError(err)
				}
				b.ExportedAt = a.now()
				paths, err := export.Write(a.cfg.ExportDir, fmtv, b)
				if err != nil {
					return exitError(exitGeneric, "export failed: %v", err)
				}
				for _, p := range paths {
					fmt.Fprintf(a.out, "Wrote %s\n", p)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json, csv or parquet")
	return cmd
}

func bundle(ctx context.Context, st *store.Store) (export.Bundle, error) {
	var (
		b   export.Bundle
		err error
	)
	if b.Total, err = st.TotalPoints(ctx); err != nil {
		return b, err
	}
	if b.Responses, err = st.Responses(ctx); err != nil {
		return b, err
	}
	if b.Ledger, err = st.PointsHistory(ctx, ""); err != nil {
		return b, err
	}
	if b.Redemptions, err = st.Redemptions(ctx, ""); err != nil {
		return b, err
	}
	return b, nil
}

func newMigrateCmd(a *app) *cobra.Command {
	var target int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the ledger schema",
		Long:  "Migrates to --target-version: negative for the latest, 0 to drop everything, N for version N.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.prepareSQLite(); err != nil {
				return err
			}
			res, err := store.Migrate(cmd.Context(), a.cfg.Backend, a.cfg.DBConnect, target)
			if err != nil {
				return exitError(exitStorage, "migration failed: %v", err)
			}
			if !res.Changed {
				fmt.Fprintf(a.out, "Schema already at version %d\n", res.To)
				return nil
			}
			fmt.Fprintf(a.out, "Migrated schema from version %d to %d\n", res.From, res.To)
			return nil
		},
	}
	cmd.Flags().IntVar(&target, "target-version", -1, "Schema version to migrate to")
	return cmd
}
