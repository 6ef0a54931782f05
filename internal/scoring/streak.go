package scoring

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate marks a response or history record whose date is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

const (
	weekWindow  = 7
	monthWindow = 30
)

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// StreakBonus returns the perfect-week or perfect-month bonus for the day of
// current, or nil when neither window is complete. A day counts when it has
// more than zero study minutes; current stands for its own date. Windows are
// calendar days ending at current's date, so missing days break the streak.
func (rs *RuleSet) StreakBonus(current Response, history []HistoryRecord) (*PointDetail, error) {
	if len(history) == 0 {
		return nil, nil
	}
	day, err := ParseDate(current.Date)
	if err != nil {
		return nil, err
	}
	monthStart := day.AddDate(0, 0, -(monthWindow - 1))

	studied := make(map[string]bool, monthWindow)
	for _, rec := range history {
		d, err := ParseDate(rec.Date)
		if err != nil {
			return nil, err
		}
		if d.Before(monthStart) || d.After(day) {
			continue
		}
		key := d.Format(DateLayout)
		studied[key] = studied[key] || rec.StudyMinutes > 0
	}
	studied[day.Format(DateLayout)] = current.Number(FieldStudyDuration) > 0

	if countStudied(studied, day, weekWindow) == weekWindow {
		return &PointDetail{Category: CategoryStreak, Item: rs.WeeklyPerfect.Label, Points: rs.WeeklyPerfect.Points}, nil
	}
	if countStudied(studied, day, monthWindow) == monthWindow {
		return &PointDetail{Category: CategoryStreak, Item: rs.MonthlyPerfect.Label, Points: rs.MonthlyPerfect.Points}, nil
	}
	return nil, nil
}

func countStudied(studied map[string]bool, end time.Time, days int) int {
	n := 0
	for i := range days {
		if studied[end.AddDate(0, 0, -i).Format(DateLayout)] {
			n++
		}
	}
	return n
}
