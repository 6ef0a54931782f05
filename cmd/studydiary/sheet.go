package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/studydiary/internal/scoring"
	"github.com/dshills/studydiary/internal/sheet"
)

func newSheetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Answer the questionnaire in a spreadsheet",
	}
	cmd.AddCommand(newSheetExportCmd(a), newSheetImportCmd(a), newSheetValidateCmd(a), newSheetListCmd(a))
	return cmd
}

func newSheetExportCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a blank questionnaire workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := a.now()
			if date != "" {
				d, err := scoring.ParseDate(date)
				if err != nil {
					return exitError(exitBadInput, "%v", err)
				}
				day = d
			}
			q, err := a.questionnaire()
			if err != nil {
				return err
			}
			path, err := sheet.Export(q, a.cfg.SheetsDir, day)
			if err != nil {
				return exitError(exitGeneric, "%v", err)
			}
			fmt.Fprintf(a.out, "Wrote %s\nFill in the Answer column, save, then run: studydiary sheet import\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date to pre-fill (default: today)")
	return cmd
}

// sheetPath returns the named workbook or the newest one in the sheets dir.
func (a *app) sheetPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	path, err := sheet.Latest(a.cfg.SheetsDir)
	if errors.Is(err, sheet.ErrNoSheets) {
		return "", exitError(exitBadInput, "no questionnaire in %s; run: studydiary sheet export", a.cfg.SheetsDir)
	}
	if err != nil {
		return "", exitError(exitGeneric, "%v", err)
	}
	a.verbose("Using %s", path)
	return path, nil
}

func newSheetValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a filled workbook without importing it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.sheetPath(args)
			if err != nil {
				return err
			}
			if err := sheet.Validate(path); err != nil {
				return exitError(exitBadInput, "%v", err)
			}
			fmt.Fprintf(a.out, "%s is ready to import\n", path)
			return nil
		},
	}
}

type sheetImportFlags struct {
	achievement string
	noReport    bool
	keep        bool
}

func newSheetImportCmd(a *app) *cobra.Command {
	f := &sheetImportFlags{}
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import and score a filled workbook (default: the newest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.sheetPath(args)
			if err != nil {
				return err
			}
			if err := sheet.Validate(path); err != nil {
				return exitError(exitBadInput, "%v", err)
			}
			q, err := a.questionnaire()
			if err != nil {
				return err
			}
			eng, err := a.engine()
			if err != nil {
				return err
			}
			raw, err := sheet.Import(path, q)
			if err != nil {
				return exitError(exitBadInput, "%v", err)
			}
			a.verbose("Read %d answers from %s", len(raw), path)

			if err := a.submitRaw(cmd.Context(), q, eng, raw, submitOpts{achievement: f.achievement, noReport: f.noReport}); err != nil {
				return err
			}
			if f.keep {
				return nil
			}
			moved, err := sheet.MoveAnswered(path)
			if err != nil {
				a.warn("could not move %s: %v", path, err)
				return nil
			}
			a.verbose("Moved workbook to %s", moved)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.achievement, "achievement", "", "Award a special achievement")
	cmd.Flags().BoolVar(&f.noReport, "no-report", false, "Skip the daily report")
	cmd.Flags().BoolVar(&f.keep, "keep", false, "Leave the workbook in place instead of moving it to answered/")
	return cmd
}

func newSheetListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending and imported workbooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			latest, err := sheet.Latest(a.cfg.SheetsDir)
			switch {
			case errors.Is(err, sheet.ErrNoSheets):
				fmt.Fprintln(a.out, "Pending: none")
			case err != nil:
				return exitError(exitGeneric, "%v", err)
			default:
				fmt.Fprintf(a.out, "Pending: %s\n", latest)
			}
			answered, err := sheet.Answered(a.cfg.SheetsDir)
			if err != nil {
				return exitError(exitGeneric, "%v", err)
			}
			fmt.Fprintf(a.out, "Imported: %d\n", len(answered))
			for _, p := range answered {
				fmt.Fprintf(a.out, "  %s\n", p)
			}
			return nil
		},
	}
}
