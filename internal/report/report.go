// Package report writes daily and weekly study reports, narrated by an AI
// provider when one is available and rendered deterministically otherwise.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/studydiary/internal/llm"
	"github.com/dshills/studydiary/internal/prompt"
	"github.com/dshills/studydiary/internal/render"
)

const defaultTimeout = 2 * time.Minute

// Report is a written report.
type Report struct {
	Path    string
	PDFPath string
	Content string
	// AI is true when the provider wrote the content.
	AI bool
}

// Generator produces report files under a directory.
type Generator struct {
	dir      string
	provider llm.Provider
	settings llm.Settings
	timeout  time.Duration
	pdf      bool
	pandoc   string
	logger   *log.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger routes provider and pandoc warnings to l.
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithSettings overrides the provider settings.
func WithSettings(s llm.Settings) Option {
	return func(g *Generator) { g.settings = s }
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// WithPDF converts each report to PDF with the named pandoc executable.
func WithPDF(pandoc string) Option {
	return func(g *Generator) {
		g.pdf = true
		if pandoc != "" {
			g.pandoc = pandoc
		}
	}
}

// NewGenerator returns a Generator writing into dir. A nil provider always
// uses the deterministic reports.
func NewGenerator(dir string, p llm.Provider, opts ...Option) *Generator {
	g := &Generator{
		dir:      dir,
		provider: p,
		settings: llm.Settings{Temperature: 0.7, MaxTokens: 2048},
		timeout:  defaultTimeout,
		pandoc:   "pandoc",
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Daily writes daily_report_<date>.md.
func (g *Generator) Daily(ctx context.Context, d prompt.Daily) (Report, error) {
	content, ai := g.narrate(ctx, prompt.BuildDaily(d), func() string { return render.DailyMarkdown(d) })
	rep, err := g.write(ctx, fmt.Sprintf("daily_report_%s.md", d.Response.Date), content)
	if err != nil {
		return Report{}, fmt.Errorf("report.Daily: %w", err)
	}
	rep.AI = ai
	return rep, nil
}

// Weekly writes weekly_summary_<end date>.md.
func (g *Generator) Weekly(ctx context.Context, w prompt.Weekly) (Report, error) {
	content, ai := g.narrate(ctx, prompt.BuildWeekly(w), func() string { return render.WeeklyMarkdown(w) })
	rep, err := g.write(ctx, fmt.Sprintf("weekly_summary_%s.md", w.End.Format("2006-01-02")), content)
	if err != nil {
		return Report{}, fmt.Errorf("report.Weekly: %w", err)
	}
	rep.AI = ai
	return rep, nil
}

// narrate asks the provider and falls back on any failure or empty reply.
func (g *Generator) narrate(ctx context.Context, text string, fallback func() string) (string, bool) {
	if g.provider == nil {
		return fallback(), false
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.provider.Generate(ctx, text, g.settings)
	if err != nil {
		g.logger.Printf("report: %s failed: %v; using the built-in report", g.provider.Name(), err)
		return fallback(), false
	}
	out = strings.TrimSpace(llm.CleanOutput(out))
	if out == "" {
		g.logger.Printf("report: %s returned nothing; using the built-in report", g.provider.Name())
		return fallback(), false
	}
	return out + "\n", true
}

func (g *Generator) write(ctx context.Context, name, content string) (Report, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return Report{}, err
	}
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return Report{}, err
	}
	rep := Report{Path: path, Content: content}
	if g.pdf {
		pdf, err := g.convert(ctx, path)
		if err != nil {
			g.logger.Printf("report: PDF conversion skipped: %v", err)
		} else {
			rep.PDFPath = pdf
		}
	}
	return rep, nil
}

// convert runs pandoc next to the Markdown file.
func (g *Generator) convert(ctx context.Context, mdPath string) (string, error) {
	bin, err := exec.LookPath(g.pandoc)
	if err != nil {
		return "", fmt.Errorf("%s not found: %w", g.pandoc, err)
	}
	pdf := strings.TrimSuffix(mdPath, filepath.Ext(mdPath)) + ".pdf"
	cmd := exec.CommandContext(ctx, bin, mdPath, "-o", pdf)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", g.pandoc, err, msg)
		}
		return "", fmt.Errorf("%s: %w", g.pandoc, err)
	}
	return pdf, nil
}
