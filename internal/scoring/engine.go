package scoring

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
)

// Engine scores daily responses against a fixed rule set. It holds no state
// besides the rules and is safe for concurrent use.
type Engine struct {
	rules  *RuleSet
	logger *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes notes about ignored input (unknown tags, unparseable
// accuracy) to l.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns an engine for rules, which must already be validated.
func NewEngine(rules *RuleSet, opts ...Option) *Engine {
	e := &Engine{rules: rules, logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the engine's rule set. Callers must not modify it.
func (e *Engine) Rules() *RuleSet { return e.rules }

// Calculate scores one day. Details follow a fixed order: check-in, study
// time, practice volume, life habits, review and notes, thesis, memorization,
// online course, accuracy, streak.
//
// Missing dimensions are scored as absent. The only error is ErrInvalidDate
// from the streak step; the returned Result is then complete except for the
// streak bonus.
func (e *Engine) Calculate(resp Response, history []HistoryRecord) (Result, error) {
	rs := e.rules
	var res Result

	res.add(PointDetail{Category: CategoryCheckIn, Item: rs.CheckIn.Label, Points: rs.CheckIn.Points})

	e.scoreLadder(&res, CategoryStudyTime, rs.StudyDuration, resp.Number(FieldStudyDuration))
	e.scoreLadder(&res, CategoryPractice, rs.ProblemsCompleted, resp.Number(FieldProblemsCompleted))

	e.scoreCategory(&res, CategoryHabits, FieldSleepQuality, rs.SleepQuality, resp)
	e.scoreCategory(&res, CategoryHabits, FieldDietQuality, rs.DietQuality, resp)
	e.scoreCategory(&res, CategoryBreaks, FieldBreaksTaken, rs.BreaksTaken, resp)
	e.scoreCategory(&res, CategoryHabits, FieldEmotionalState, rs.EmotionalState, resp)
	e.scoreCategory(&res, CategoryReview, FieldReviewCompleted, rs.ReviewCompleted, resp)
	e.scoreCategory(&res, CategoryNotes, FieldNotesTaken, rs.NotesTaken, resp)

	e.scoreLadder(&res, CategoryThesis, rs.ThesisWriting, resp.Number(FieldThesisWriting))
	e.scoreLadder(&res, CategoryMemorization, rs.MemorizationTime, resp.Number(FieldMemorizationTime))
	e.scoreLadder(&res, CategoryOnlineCourse, rs.OnlineCourseTime, resp.Number(FieldOnlineCourseTime))

	e.scoreAccuracy(&res, resp)

	bonus, err := rs.StreakBonus(resp, history)
	if err != nil {
		return res, fmt.Errorf("scoring.Calculate: streak: %w", err)
	}
	if bonus != nil {
		res.add(*bonus)
	}
	return res, nil
}

// scoreLadder pays the top qualifying step. Below the floor a reward-or-penalty
// ladder emits its penalty; a reward-or-nothing ladder emits nothing.
func (e *Engine) scoreLadder(res *Result, category string, l Ladder, v float64) {
	if step, ok := l.Resolve(v); ok {
		res.add(PointDetail{Category: category, Item: expandLabel(step.Label, v), Points: step.Points})
		return
	}
	if l.Penalty != nil {
		res.add(PointDetail{Category: CategoryPenalty, Item: l.Penalty.Label, Points: l.Penalty.Points})
	}
}

func (e *Engine) scoreCategory(res *Result, category, field string, table CategoryTable, resp Response) {
	tag := resp.Category(field)
	if tag == "" {
		return
	}
	if !table.Knows(tag) {
		e.logger.Printf("scoring: ignoring unknown %s value %q", field, tag)
		return
	}
	tier, ok := table.Score(tag)
	if !ok {
		return
	}
	if tier.Points < 0 {
		category = CategoryPenalty
	}
	res.add(PointDetail{Category: category, Item: tier.Label, Points: tier.Points})
}

// scoreAccuracy only applies on days with practice. Unparseable input scores
// nothing; the rest of the pass continues.
func (e *Engine) scoreAccuracy(res *Result, resp Response) {
	if resp.Number(FieldProblemsCompleted) <= 0 {
		return
	}
	raw := resp.Raw(FieldAccuracyRate)
	if raw == "" {
		return
	}
	pct, err := ParseAccuracy(raw)
	if err != nil {
		if errors.Is(err, ErrUnparseableAccuracy) {
			e.logger.Printf("scoring: %v", err)
		}
		return
	}
	band, ok := e.rules.Accuracy.Classify(pct)
	if !ok {
		return
	}
	res.add(PointDetail{Category: CategoryAccuracy, Item: expandLabel(band.Label, pct), Points: band.Points})
}

// SpecialAchievement returns the fixed reward for an achievement key.
func (e *Engine) SpecialAchievement(key string) (PointDetail, bool) {
	t, ok := e.rules.SpecialAchievements[key]
	if !ok {
		return PointDetail{}, false
	}
	return PointDetail{Category: CategorySpecial, Item: t.Label, Points: t.Points}, true
}

// SpecialAchievementKeys lists the configured achievement keys in sorted order.
func (e *Engine) SpecialAchievementKeys() []string {
	keys := make([]string, 0, len(e.rules.SpecialAchievements))
	for k := range e.rules.SpecialAchievements {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Level resolves cumulative points against the configured levels.
func (e *Engine) Level(total int) LevelInfo {
	return e.rules.Levels.Resolve(total)
}
