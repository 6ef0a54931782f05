package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/studydiary/internal/config"
	"github.com/dshills/studydiary/internal/llm"
	"github.com/dshills/studydiary/internal/questionnaire"
	"github.com/dshills/studydiary/internal/redeem"
	"github.com/dshills/studydiary/internal/render"
	"github.com/dshills/studydiary/internal/scoring"
	"github.com/dshills/studydiary/internal/store"
)

// app carries the resolved configuration shared by every command.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *log.Logger
	out    io.Writer
	now    func() time.Time

	// resolveProvider picks the AI provider; tests replace it.
	resolveProvider func(ctx context.Context, model string) (llm.Provider, error)
	prov            llm.Provider
	provResolved    bool
}

func newApp(v *viper.Viper) *app {
	return &app{
		v:               v,
		logger:          log.New(os.Stderr, "", 0),
		out:             os.Stdout,
		now:             time.Now,
		resolveProvider: llm.ResolveProvider,
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	config.Init(a.v)
	cfg, err := config.Load(a.v)
	if err != nil {
		return exitError(exitBadInput, "%v", err)
	}
	a.cfg = cfg
	a.out = cmd.OutOrStdout()
	a.logger = log.New(cmd.ErrOrStderr(), "", 0)
	if cfg.File != "" {
		a.verbose("Using config file: %s", cfg.File)
	}
	return nil
}

func (a *app) verbose(msg string, args ...any) {
	if a.cfg != nil && a.cfg.Verbose {
		a.logger.Printf(msg, args...)
	}
}

func (a *app) warn(msg string, args ...any) {
	label := "Warning:"
	if a.cfg != nil && a.cfg.Color {
		label = color.New(color.FgYellow, color.Bold).Sprint(label)
	}
	a.logger.Printf("%s %s", label, fmt.Sprintf(msg, args...))
}

func (a *app) printer() *render.Printer {
	return render.NewPrinter(a.out, render.Options{Color: a.cfg.Color, Width: a.cfg.Width})
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if err := a.prepareSQLite(); err != nil {
		return nil, err
	}
	a.verbose("Opening %s ledger", a.cfg.Backend)
	st, err := store.Open(ctx, a.cfg.Backend, a.cfg.DBConnect)
	if err != nil {
		return nil, exitError(exitStorage, "failed to open ledger: %v", err)
	}
	return st, nil
}

func (a *app) prepareSQLite() error {
	if a.cfg.Backend != store.SQLite {
		return nil
	}
	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		return exitError(exitStorage, "failed to create data directory: %v", err)
	}
	return nil
}

func (a *app) engine() (*scoring.Engine, error) {
	var (
		rules *scoring.RuleSet
		err   error
	)
	if a.cfg.RulesPath != "" {
		a.verbose("Loading rules: %s", a.cfg.RulesPath)
		rules, err = scoring.LoadRules(a.cfg.RulesPath)
	} else {
		rules, err = scoring.DefaultRules()
	}
	if err != nil {
		return nil, exitError(exitBadInput, "failed to load rules: %v", err)
	}
	return scoring.NewEngine(rules, scoring.WithLogger(a.verboseLogger())), nil
}

func (a *app) questionnaire() (*questionnaire.Questionnaire, error) {
	var (
		q   *questionnaire.Questionnaire
		err error
	)
	if a.cfg.Questions != "" {
		a.verbose("Loading questionnaire: %s", a.cfg.Questions)
		q, err = questionnaire.Load(a.cfg.Questions)
	} else {
		q, err = questionnaire.Default()
	}
	if err != nil {
		return nil, exitError(exitBadInput, "failed to load questionnaire: %v", err)
	}
	return q, nil
}

// provider returns nil when AI is disabled or no provider is configured. A
// model named explicitly must resolve.
func (a *app) provider(ctx context.Context) (llm.Provider, error) {
	if !a.cfg.AI {
		a.verbose("AI disabled; using built-in reports")
		return nil, nil
	}
	if a.provResolved {
		return a.prov, nil
	}
	a.provResolved = true
	p, err := a.resolveProvider(ctx, a.cfg.Model)
	if err != nil {
		if a.cfg.Model != "" {
			return nil, exitError(exitProvider, "model provider error: %v", err)
		}
		a.verbose("No AI provider: %v", err)
		return nil, nil
	}
	a.verbose("Using provider: %s", p.Name())
	a.prov = p
	return p, nil
}

// verboseLogger is the logger handed to library packages: silent unless
// --verbose.
func (a *app) verboseLogger() *log.Logger {
	if a.cfg.Verbose {
		return a.logger
	}
	return log.New(io.Discard, "", 0)
}

func (a *app) shop(ctx context.Context, st *store.Store) (*redeem.Service, error) {
	cat, err := redeem.DefaultCatalogue()
	if err != nil {
		return nil, exitError(exitGeneric, "failed to load reward catalogue: %v", err)
	}
	svc := redeem.NewService(st, cat)
	n, err := svc.Seed(ctx)
	if err != nil {
		return nil, exitError(exitStorage, "failed to seed rewards: %v", err)
	}
	if n > 0 {
		a.verbose("Seeded %d rewards", n)
	}
	return svc, nil
}

func storageError(err error) error {
	return exitError(exitStorage, "storage error: %v", err)
}

func closeStore(a *app, st *store.Store) {
	if err := st.Close(); err != nil {
		a.warn("failed to close ledger: %v", err)
	}
}
