package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.1.0"

// Exit codes.
const (
	exitGeneric      = 1
	exitInsufficient = 2
	exitBadInput     = 3
	exitProvider     = 4
	exitStorage      = 5
)

func main() {
	if err := newRootCmd(newApp(viper.New())).Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitGeneric)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "studydiary",
		Short:         "Score daily study check-ins, track points and redeem rewards",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Config file (default: .studydiary.yaml in . or $HOME)")
	flags.String("data-dir", "", "Directory for the SQLite database")
	flags.String("backend", "", "Ledger backend: sqlite, mysql or postgresql")
	flags.String("db-connect", "", "Database connection string (SQLite file path or DSN)")
	flags.String("rules", "", "Scoring rules YAML file (default: built-in)")
	flags.String("questions", "", "Questionnaire YAML file (default: built-in)")
	flags.String("model", "", "Model ID (e.g., claude-sonnet-4-20250514, gpt-4o, gemini-2.5-flash, gemini-cli)")
	flags.String("reports-dir", "", "Directory for daily and weekly reports")
	flags.String("sheets-dir", "", "Directory for questionnaire spreadsheets")
	flags.String("export-dir", "", "Directory for exports")
	flags.Bool("pdf", false, "Also convert reports to PDF with pandoc")
	flags.String("pandoc", "", "pandoc executable")
	flags.String("color", "", "Color output: auto, yes or no")
	flags.Int("width", 0, "Terminal width for charts (default: detected)")
	flags.Bool("verbose", false, "Print processing steps to stderr")
	flags.Bool("ai", true, "Use an AI provider for reports and answer interpretation")
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		newFillCmd(a),
		newScoreCmd(a),
		newSheetCmd(a),
		newShopCmd(a),
		newRedeemCmd(a),
		newRewardsCmd(a),
		newRedemptionsCmd(a),
		newHistoryCmd(a),
		newStatsCmd(a),
		newLevelCmd(a),
		newChartCmd(a),
		newReportCmd(a),
		newExportCmd(a),
		newRollbackCmd(a),
		newMigrateCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "studydiary %s\n", version)
			return err
		},
	}
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}
