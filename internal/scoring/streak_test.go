package scoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// daysBefore returns history records for the n days before end, each with minutes.
func daysBefore(end string, n int, minutes float64) []HistoryRecord {
	day, _ := time.Parse(DateLayout, end)
	out := make([]HistoryRecord, 0, n)
	for i := n; i >= 1; i-- {
		out = append(out, HistoryRecord{Date: day.AddDate(0, 0, -i).Format(DateLayout), StudyMinutes: minutes})
	}
	return out
}

func studyOn(date string, minutes float64) Response {
	return Response{Date: date, Fields: map[string]Field{FieldStudyDuration: num(minutes)}}
}

func TestStreakBonus(t *testing.T) {
	rs, err := DefaultRules()
	require.NoError(t, err)

	t.Run("empty history", func(t *testing.T) {
		d, err := rs.StreakBonus(studyOn("2024-01-10", 60), nil)
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("seven consecutive days", func(t *testing.T) {
		d, err := rs.StreakBonus(studyOn("2024-01-10", 60), daysBefore("2024-01-10", 6, 30))
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, CategoryStreak, d.Category)
		assert.Equal(t, 10, d.Points)
	})

	t.Run("current day without study breaks the week", func(t *testing.T) {
		d, err := rs.StreakBonus(studyOn("2024-01-10", 0), daysBefore("2024-01-10", 6, 30))
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("gap inside the window", func(t *testing.T) {
		h := daysBefore("2024-01-10", 6, 30)
		h[2].StudyMinutes = 0
		d, err := rs.StreakBonus(studyOn("2024-01-10", 60), h)
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("missing calendar day", func(t *testing.T) {
		h := daysBefore("2024-01-10", 6, 30)
		h = append(h[:3], h[4:]...)
		d, err := rs.StreakBonus(studyOn("2024-01-10", 60), h)
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("duplicate dates count once", func(t *testing.T) {
		h := daysBefore("2024-01-10", 5, 30)
		h = append(h, h[0], h[1])
		d, err := rs.StreakBonus(studyOn("2024-01-10", 60), h)
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("records outside the window are ignored", func(t *testing.T) {
		h := daysBefore("2024-01-10", 6, 30)
		h = append(h, HistoryRecord{Date: "2024-01-11", StudyMinutes: 0}, HistoryRecord{Date: "2023-11-01"})
		d, err := rs.StreakBonus(studyOn("2024-01-10", 60), h)
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, 10, d.Points)
	})

	t.Run("month of study still pays the weekly bonus", func(t *testing.T) {
		d, err := rs.StreakBonus(studyOn("2024-01-30", 60), daysBefore("2024-01-30", 29, 30))
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, rs.WeeklyPerfect.Points, d.Points)
	})

	t.Run("invalid history date", func(t *testing.T) {
		_, err := rs.StreakBonus(studyOn("2024-01-10", 60), []HistoryRecord{{Date: "yesterday"}})
		assert.True(t, errors.Is(err, ErrInvalidDate))
	})

	t.Run("invalid current date", func(t *testing.T) {
		_, err := rs.StreakBonus(studyOn("", 60), daysBefore("2024-01-10", 6, 30))
		assert.True(t, errors.Is(err, ErrInvalidDate))
	})
}

func TestCalculate_StreakDetailIsLast(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Calculate(studyOn("2024-01-10", 60), daysBefore("2024-01-10", 6, 45))
	require.NoError(t, err)
	last := res.Details[len(res.Details)-1]
	assert.Equal(t, CategoryStreak, last.Category)
	assert.Equal(t, SumPoints(res.Details), res.Total)
}
