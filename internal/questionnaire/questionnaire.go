// Package questionnaire holds the daily question catalogue and turns raw
// answers into a scoring.Response.
package questionnaire

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/studydiary/internal/scoring"
)

//go:embed builtin/questions.yaml
var builtinFS embed.FS

// Kind is the answer type of a question.
type Kind string

const (
	KindAuto   Kind = "auto"
	KindChoice Kind = "choice"
	KindText   Kind = "text"
)

// Question is one entry of the catalogue. Options and Values are parallel for
// choice questions.
type Question struct {
	ID          string          `yaml:"id"`
	Prompt      string          `yaml:"question"`
	Kind        Kind            `yaml:"type"`
	Options     []string        `yaml:"options,omitempty"`
	Values      []scoring.Value `yaml:"values,omitempty"`
	Placeholder string          `yaml:"placeholder,omitempty"`
}

// Questionnaire is an ordered question catalogue.
type Questionnaire struct {
	Questions []Question
}

// ValidationError describes a single catalogue or answer problem.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Default returns the built-in catalogue.
func Default() (*Questionnaire, error) {
	data, err := builtinFS.ReadFile("builtin/questions.yaml")
	if err != nil {
		return nil, fmt.Errorf("questionnaire.Default: %w", err)
	}
	q, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("questionnaire.Default: %w", err)
	}
	return q, nil
}

// Load reads a catalogue from a YAML file.
func Load(path string) (*Questionnaire, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("questionnaire.Load: %w", err)
	}
	q, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("questionnaire.Load: %s: %w", path, err)
	}
	return q, nil
}

// Parse decodes and checks a YAML catalogue.
func Parse(data []byte) (*Questionnaire, error) {
	var qs []Question
	if err := yaml.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	q := &Questionnaire{Questions: qs}
	if errs := q.check(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid questions: %s", strings.Join(msgs, "; "))
	}
	return q, nil
}

func (q *Questionnaire) check() []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(q.Questions))
	for i, qu := range q.Questions {
		path := fmt.Sprintf("questions[%d]", i)
		if qu.ID == "" {
			errs = append(errs, ValidationError{path + ".id", "required"})
		} else if seen[qu.ID] {
			errs = append(errs, ValidationError{path + ".id", fmt.Sprintf("duplicate id %q", qu.ID)})
		}
		seen[qu.ID] = true
		switch qu.Kind {
		case KindAuto, KindText:
		case KindChoice:
			if len(qu.Options) == 0 {
				errs = append(errs, ValidationError{path + ".options", "choice question needs options"})
			}
			if len(qu.Options) != len(qu.Values) {
				errs = append(errs, ValidationError{path + ".values", fmt.Sprintf("%d values for %d options", len(qu.Values), len(qu.Options))})
			}
		default:
			errs = append(errs, ValidationError{path + ".type", fmt.Sprintf("unknown type %q", qu.Kind)})
		}
	}
	return errs
}

// Question looks up a question by ID.
func (q *Questionnaire) Question(id string) (Question, bool) {
	for _, qu := range q.Questions {
		if qu.ID == id {
			return qu, true
		}
	}
	return Question{}, false
}

// Answerable returns the questions the user answers, skipping auto fields.
func (q *Questionnaire) Answerable() []Question {
	out := make([]Question, 0, len(q.Questions))
	for _, qu := range q.Questions {
		if qu.Kind != KindAuto {
			out = append(out, qu)
		}
	}
	return out
}

// Validate reports missing answers and out-of-range option indexes.
func (q *Questionnaire) Validate(a Answers) []ValidationError {
	var errs []ValidationError
	for _, qu := range q.Answerable() {
		if !a.Has(qu.ID) {
			errs = append(errs, ValidationError{qu.ID, "missing answer: " + qu.Prompt})
			continue
		}
		if qu.Kind == KindChoice {
			idx, ok := a.Choices[qu.ID]
			if !ok {
				errs = append(errs, ValidationError{qu.ID, "expected an option number"})
			} else if idx < 0 || idx >= len(qu.Options) {
				errs = append(errs, ValidationError{qu.ID, fmt.Sprintf("option %d out of range 0-%d", idx, len(qu.Options)-1)})
			}
		}
	}
	return errs
}

// Process maps answers to a Response. Choice answers become {display, value}
// pairs; out-of-range indexes are skipped. The date defaults to now's date
// unless the answers carry one, which must be YYYY-MM-DD.
func (q *Questionnaire) Process(a Answers, now time.Time) (scoring.Response, error) {
	resp := scoring.Response{
		Date:      now.Format(scoring.DateLayout),
		Fields:    map[string]scoring.Field{},
		Text:      map[string]string{},
		Timestamp: now,
	}
	for _, qu := range q.Questions {
		switch qu.Kind {
		case KindAuto:
			if qu.ID != scoring.FieldDate {
				continue
			}
			if d := strings.TrimSpace(a.Text[qu.ID]); d != "" {
				if _, err := scoring.ParseDate(d); err != nil {
					return scoring.Response{}, fmt.Errorf("questionnaire.Process: %w", err)
				}
				resp.Date = d
			}
		case KindChoice:
			idx, ok := a.Choices[qu.ID]
			if !ok || idx < 0 || idx >= len(qu.Values) {
				continue
			}
			resp.Fields[qu.ID] = scoring.Field{Display: qu.Options[idx], Value: qu.Values[idx]}
		case KindText:
			if s, ok := a.Text[qu.ID]; ok {
				resp.Text[qu.ID] = strings.TrimSpace(s)
			}
		}
	}
	return resp, nil
}

// FormatForDisplay renders the answerable questions with numbered options.
func (q *Questionnaire) FormatForDisplay() string {
	var b strings.Builder
	rule := strings.Repeat("=", 50)
	fmt.Fprintf(&b, "%s\n📋 Daily study questionnaire\n%s\n\n", rule, rule)
	for i, qu := range q.Questions {
		if qu.Kind == KindAuto {
			continue
		}
		fmt.Fprintf(&b, "Question %d: %s\n", i, qu.Prompt)
		switch qu.Kind {
		case KindChoice:
			for j, opt := range qu.Options {
				fmt.Fprintf(&b, "  %d. %s\n", j, opt)
			}
		case KindText:
			fmt.Fprintf(&b, "  Enter: %s\n", qu.Placeholder)
		}
		b.WriteString("\n")
	}
	return b.String()
}
