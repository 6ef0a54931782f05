// Package scoring turns a day's questionnaire response into signed points.
package scoring

// Questionnaire field IDs read by the engine.
const (
	FieldDate               = "date"
	FieldStudyCompleted     = "study_completed"
	FieldStudyDuration      = "study_duration"
	FieldProblemsCompleted  = "problems_completed"
	FieldFocusLevel         = "focus_level"
	FieldEmotionalState     = "emotional_state"
	FieldPhysicalCondition  = "physical_condition"
	FieldSleepQuality       = "sleep_quality"
	FieldDietQuality        = "diet_quality"
	FieldBreaksTaken        = "breaks_taken"
	FieldReviewCompleted    = "review_completed"
	FieldNotesTaken         = "notes_taken"
	FieldThesisWriting      = "thesis_writing"
	FieldMemorizationTime   = "memorization_time"
	FieldOnlineCourseTime   = "online_course_time"
	FieldAccuracyRate       = "accuracy_rate"
	FieldSpecialAchievement = "special_achievement"
	FieldTomorrowPlan       = "tomorrow_plan"
)

// Detail categories.
const (
	CategoryCheckIn      = "Check-in"
	CategoryStudyTime    = "Study time"
	CategoryPractice     = "Practice"
	CategoryHabits       = "Habits"
	CategoryBreaks       = "Breaks"
	CategoryReview       = "Review"
	CategoryNotes        = "Notes"
	CategoryThesis       = "Thesis"
	CategoryMemorization = "Memorization"
	CategoryOnlineCourse = "Online course"
	CategoryAccuracy     = "Accuracy"
	CategoryStreak       = "Streak"
	CategoryPenalty      = "Penalty"
	CategorySpecial      = "Special achievement"
	CategoryRedemption   = "Redemption"
)

// DateLayout is the calendar date format used by responses and history.
const DateLayout = "2006-01-02"

// PointDetail is one line of a score breakdown. Points may be negative.
type PointDetail struct {
	Category string `json:"category"`
	Item     string `json:"item"`
	Points   int    `json:"points"`
}

// Result is the outcome of scoring one day.
type Result struct {
	Total   int           `json:"total"`
	Details []PointDetail `json:"details"`
}

func (r *Result) add(d PointDetail) {
	r.Details = append(r.Details, d)
	r.Total += d.Points
}

// HistoryRecord is the slice of a past day used for streak detection.
type HistoryRecord struct {
	Date         string  `json:"date"`
	DailyPoints  int     `json:"daily_points"`
	StudyMinutes float64 `json:"study_minutes"`
}

// SumPoints adds up detail points.
func SumPoints(details []PointDetail) int {
	total := 0
	for _, d := range details {
		total += d.Points
	}
	return total
}
