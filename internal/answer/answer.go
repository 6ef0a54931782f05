// Package answer maps natural-language answers to choice option indexes,
// asking an AI provider first and falling back to keyword matching.
package answer

import (
	"context"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/studydiary/internal/llm"
	"github.com/dshills/studydiary/internal/questionnaire"
	"github.com/dshills/studydiary/internal/redact"
)

const defaultTimeout = 10 * time.Second

var (
	numberRe = regexp.MustCompile(`\d+`)
	rangeRe  = regexp.MustCompile(`(\d+)-(\d+)`)
	replyRe  = regexp.MustCompile(`^-?\d+$`)
)

// negations select the first option, which is the "none" answer throughout
// the catalogue.
var negations = map[string]bool{
	"0": true, "no": true, "none": true, "nothing": true, "zero": true,
	"not": true, "didn't": true, "didnt": true, "skipped": true, "never": true,
}

// Resolver turns free-text answers into option indexes.
type Resolver struct {
	provider llm.Provider
	settings llm.Settings
	timeout  time.Duration
	logger   *log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger routes provider failures to l.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithSettings overrides the provider settings.
func WithSettings(s llm.Settings) Option {
	return func(r *Resolver) { r.settings = s }
}

// NewResolver returns a Resolver. A nil provider uses keyword matching only.
func NewResolver(p llm.Provider, opts ...Option) *Resolver {
	r := &Resolver{
		provider: p,
		settings: llm.Settings{Temperature: 0, MaxTokens: 16},
		timeout:  defaultTimeout,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the option index for answer. An integer within range is
// taken as-is; anything else goes to the provider and then to keyword
// matching. ok is false when nothing matched.
func (r *Resolver) Resolve(ctx context.Context, answer string, q questionnaire.Question) (int, bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" || len(q.Options) == 0 {
		return 0, false
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 0 && n < len(q.Options) {
		return n, true
	}
	if r.provider != nil {
		idx, known, err := r.ask(ctx, answer, q)
		if err == nil {
			return idx, known
		}
		r.logger.Printf("answer: %s: %v; using keyword matching", r.provider.Name(), err)
	}
	return Fallback(answer, q.Options)
}

// ask returns known=false when the provider explicitly answered -1.
func (r *Resolver) ask(ctx context.Context, answer string, q questionnaire.Question) (int, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.provider.Generate(ctx, BuildPrompt(redact.Redact(answer), q), r.settings)
	if err != nil {
		return 0, false, err
	}
	reply := llm.CleanOutput(out)
	if !replyRe.MatchString(reply) {
		return 0, false, fmt.Errorf("unexpected reply %q", reply)
	}
	n, _ := strconv.Atoi(reply)
	switch {
	case n == -1:
		return 0, false, nil
	case n < 0 || n >= len(q.Options):
		return 0, false, fmt.Errorf("option %d out of range", n)
	}
	return n, true, nil
}

// BuildPrompt asks for a single option number, or -1 when undecidable.
func BuildPrompt(answer string, q questionnaire.Question) string {
	var b strings.Builder
	b.WriteString("You map free-text answers to multiple-choice options. The user typed a natural-language answer instead of an option number.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\nOptions:\n", q.Prompt)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "%d. %s\n", i, opt)
	}
	fmt.Fprintf(&b, "\nUser answer: %s\n\n", answer)
	b.WriteString(`Pick the option that best matches the answer. Consider:
1. Semantic similarity
2. What the user actually means
3. Answers like "none", "0 minutes" or "didn't" usually mean option 0
4. If the answer contains a number, pick the option whose range contains it

Reply with only the option number and nothing else. Reply -1 if you cannot decide.
`)
	return b.String()
}

// Fallback matches answer against options without a provider. Negation words
// select option 0. A number selects the option whose range contains it, then
// an option naming it. Otherwise the option sharing the most words wins.
func Fallback(answer string, options []string) (int, bool) {
	lower := strings.ToLower(strings.TrimSpace(answer))
	words := strings.Fields(lower)
	for _, w := range words {
		if negations[strings.Trim(w, ".,!?;:")] {
			return 0, true
		}
	}

	if m := numberRe.FindString(answer); m != "" {
		n, _ := strconv.Atoi(m)
		for i, opt := range options {
			for _, rm := range rangeRe.FindAllStringSubmatch(opt, -1) {
				lo, _ := strconv.Atoi(rm[1])
				hi, _ := strconv.Atoi(rm[2])
				if lo <= n && n <= hi {
					return i, true
				}
			}
		}
		for i, opt := range options {
			for _, on := range numberRe.FindAllString(opt, -1) {
				if v, _ := strconv.Atoi(on); v == n {
					return i, true
				}
			}
		}
	}

	answerWords := make(map[string]bool, len(words))
	for _, w := range words {
		answerWords[w] = true
	}
	best, bestScore := 0, 0
	for i, opt := range options {
		optLower := strings.ToLower(opt)
		score := 0
		seen := map[string]bool{}
		for _, w := range strings.Fields(optLower) {
			if answerWords[w] && !seen[w] {
				score++
				seen[w] = true
			}
		}
		if strings.Contains(optLower, lower) || strings.Contains(lower, optLower) {
			score += 5
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore > 0
}

// ResolveAll converts raw string answers into questionnaire Answers. Choice
// answers that cannot be resolved default to option 0. The returned notes
// describe every interpreted or defaulted answer.
func (r *Resolver) ResolveAll(ctx context.Context, raw map[string]string, q *questionnaire.Questionnaire) (questionnaire.Answers, []string) {
	out := questionnaire.NewAnswers()
	var notes []string
	for _, qu := range q.Questions {
		val, ok := raw[qu.ID]
		if !ok {
			continue
		}
		if qu.Kind != questionnaire.KindChoice {
			out.SetText(qu.ID, val)
			continue
		}
		val = strings.TrimSpace(val)
		if n, err := strconv.Atoi(val); err == nil && n >= 0 && n < len(qu.Options) {
			out.SetChoice(qu.ID, n)
			continue
		}
		idx, ok := r.Resolve(ctx, val, qu)
		if ok {
			out.SetChoice(qu.ID, idx)
			notes = append(notes, fmt.Sprintf("interpreted %q for %q as option %d: %s", val, qu.Prompt, idx, qu.Options[idx]))
			continue
		}
		out.SetChoice(qu.ID, 0)
		notes = append(notes, fmt.Sprintf("could not interpret %q for %q; defaulted to: %s", val, qu.Prompt, qu.Options[0]))
	}
	return out, notes
}
