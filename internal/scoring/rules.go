package scoring

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/rules.yaml
var builtinFS embed.FS

// Tier is a fixed reward or penalty.
type Tier struct {
	Label  string `yaml:"label"`
	Points int    `yaml:"points"`
}

// Step is one rung of a threshold ladder. Label may contain {value}, replaced
// with the measured value.
type Step struct {
	Min    float64 `yaml:"min"`
	Label  string  `yaml:"label"`
	Points int     `yaml:"points"`
}

// Ladder is an ascending set of thresholds. A ladder with a Penalty is a
// reward-or-penalty dimension; without one it is reward-or-nothing.
type Ladder struct {
	Steps   []Step `yaml:"steps"`
	Penalty *Tier  `yaml:"penalty,omitempty"`
}

// CategoryTable maps category tags to points. Known lists the full
// vocabulary of the dimension, including tags that score nothing.
type CategoryTable struct {
	Known  []string        `yaml:"known"`
	Scores map[string]Tier `yaml:"scores"`
}

// Band is one accuracy band; Min is the inclusive lower bound in percent.
type Band struct {
	Min    float64 `yaml:"min"`
	Label  string  `yaml:"label"`
	Points int     `yaml:"points"`
}

// Bands is ordered by descending Min; the last band must start at 0.
type Bands []Band

// RuleSet is the static scoring configuration. It is decoded once and must
// not be modified after it is handed to an Engine.
type RuleSet struct {
	CheckIn             Tier            `yaml:"check_in"`
	StudyDuration       Ladder          `yaml:"study_duration"`
	ProblemsCompleted   Ladder          `yaml:"problems_completed"`
	ThesisWriting       Ladder          `yaml:"thesis_writing"`
	MemorizationTime    Ladder          `yaml:"memorization_time"`
	OnlineCourseTime    Ladder          `yaml:"online_course_time"`
	SleepQuality        CategoryTable   `yaml:"sleep_quality"`
	DietQuality         CategoryTable   `yaml:"diet_quality"`
	BreaksTaken         CategoryTable   `yaml:"breaks_taken"`
	EmotionalState      CategoryTable   `yaml:"emotional_state"`
	ReviewCompleted     CategoryTable   `yaml:"review_completed"`
	NotesTaken          CategoryTable   `yaml:"notes_taken"`
	Accuracy            Bands           `yaml:"accuracy_rate"`
	WeeklyPerfect       Tier            `yaml:"weekly_perfect"`
	MonthlyPerfect      Tier            `yaml:"monthly_perfect"`
	SpecialAchievements map[string]Tier `yaml:"special_achievements"`
	Levels              Levels          `yaml:"levels"`
}

// ValidationError describes a single rule set violation.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// DefaultRules returns the built-in rule set.
func DefaultRules() (*RuleSet, error) {
	data, err := builtinFS.ReadFile("builtin/rules.yaml")
	if err != nil {
		return nil, fmt.Errorf("scoring.DefaultRules: %w", err)
	}
	rs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("scoring.DefaultRules: %w", err)
	}
	return rs, nil
}

// LoadRules reads a rule set from a YAML file.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scoring.LoadRules: %w", err)
	}
	rs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("scoring.LoadRules: %s: %w", path, err)
	}
	return rs, nil
}

// ParseRules decodes and validates a YAML rule set.
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if errs := rs.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid rules: %s", strings.Join(msgs, "; "))
	}
	return &rs, nil
}

// Validate checks the structural invariants the engine relies on.
func (rs *RuleSet) Validate() []ValidationError {
	var errs []ValidationError

	ladders := []struct {
		path        string
		ladder      Ladder
		wantPenalty bool
	}{
		{"study_duration", rs.StudyDuration, true},
		{"problems_completed", rs.ProblemsCompleted, false},
		{"thesis_writing", rs.ThesisWriting, true},
		{"memorization_time", rs.MemorizationTime, true},
		{"online_course_time", rs.OnlineCourseTime, true},
	}
	for _, l := range ladders {
		errs = append(errs, validateLadder(l.path, l.ladder)...)
		if l.wantPenalty && l.ladder.Penalty == nil {
			errs = append(errs, ValidationError{l.path + ".penalty", "required"})
		}
	}

	tables := []struct {
		path  string
		table CategoryTable
	}{
		{"sleep_quality", rs.SleepQuality},
		{"diet_quality", rs.DietQuality},
		{"breaks_taken", rs.BreaksTaken},
		{"emotional_state", rs.EmotionalState},
		{"review_completed", rs.ReviewCompleted},
		{"notes_taken", rs.NotesTaken},
	}
	for _, t := range tables {
		for tag := range t.table.Scores {
			if !t.table.Knows(tag) {
				errs = append(errs, ValidationError{t.path + ".scores." + tag, "tag not listed in known"})
			}
		}
	}

	if len(rs.Accuracy) == 0 {
		errs = append(errs, ValidationError{"accuracy_rate", "at least one band required"})
	} else {
		for i := 1; i < len(rs.Accuracy); i++ {
			if rs.Accuracy[i].Min >= rs.Accuracy[i-1].Min {
				errs = append(errs, ValidationError{fmt.Sprintf("accuracy_rate[%d].min", i), "bands must be strictly decreasing"})
			}
		}
		if last := rs.Accuracy[len(rs.Accuracy)-1]; last.Min != 0 {
			errs = append(errs, ValidationError{"accuracy_rate", "last band must start at 0"})
		}
	}

	if rs.MonthlyPerfect.Points <= rs.WeeklyPerfect.Points {
		errs = append(errs, ValidationError{"monthly_perfect.points", "must exceed weekly_perfect.points"})
	}

	if len(rs.Levels) == 0 {
		errs = append(errs, ValidationError{"levels", "at least one level required"})
	}
	for i := 1; i < len(rs.Levels); i++ {
		if rs.Levels[i].MinPoints <= rs.Levels[i-1].MinPoints {
			errs = append(errs, ValidationError{fmt.Sprintf("levels[%d].min_points", i), "must be strictly increasing"})
		}
	}

	return errs
}

func validateLadder(path string, l Ladder) []ValidationError {
	var errs []ValidationError
	if len(l.Steps) == 0 {
		return []ValidationError{{path + ".steps", "at least one step required"}}
	}
	for i := 1; i < len(l.Steps); i++ {
		if l.Steps[i].Min <= l.Steps[i-1].Min {
			errs = append(errs, ValidationError{fmt.Sprintf("%s.steps[%d].min", path, i), "thresholds must be strictly increasing"})
		}
	}
	if l.Penalty != nil && l.Penalty.Points > 0 {
		errs = append(errs, ValidationError{path + ".penalty.points", "penalty must not be positive"})
	}
	return errs
}
