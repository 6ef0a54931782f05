package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/studydiary/internal/scoring"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "diary.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func studyResponse(date string, minutes float64) scoring.Response {
	return scoring.Response{
		Date: date,
		Fields: map[string]scoring.Field{
			scoring.FieldStudyDuration:     {Display: "study", Value: scoring.Number(minutes)},
			scoring.FieldProblemsCompleted: {Display: "problems", Value: scoring.Number(10)},
			scoring.FieldSleepQuality:      {Display: "sleep", Value: scoring.Tag("good")},
		},
		Text:      map[string]string{scoring.FieldTomorrowPlan: "chapter 3"},
		Timestamp: time.Date(2024, 1, 10, 21, 0, 0, 0, time.UTC),
	}
}

func details(points ...int) []scoring.PointDetail {
	out := make([]scoring.PointDetail, 0, len(points))
	for i, p := range points {
		out = append(out, scoring.PointDetail{Category: scoring.CategoryStudyTime, Item: string(rune('a' + i)), Points: p})
	}
	return out
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want Backend
		ok   bool
	}{
		{"", SQLite, true},
		{"SQLite", SQLite, true},
		{"mysql", MySQL, true},
		{"postgres", PostgreSQL, true},
		{"postgresql", PostgreSQL, true},
		{"oracle", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackend(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{backend: PostgreSQL}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))
	lite := &Store{backend: SQLite}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestResponses(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveResponse(ctx, studyResponse("2024-01-08", 60)))
	require.NoError(t, s.SaveResponse(ctx, studyResponse("2024-01-10", 120)))
	// Replaces the earlier response for the same date.
	require.NoError(t, s.SaveResponse(ctx, studyResponse("2024-01-10", 300)))

	got, err := s.ResponseByDate(ctx, "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, 300.0, got.Number(scoring.FieldStudyDuration))
	assert.Equal(t, "good", got.Category(scoring.FieldSleepQuality))
	assert.Equal(t, "chapter 3", got.Raw(scoring.FieldTomorrowPlan))

	_, err = s.ResponseByDate(ctx, "2024-01-09")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := s.Responses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2024-01-08", all[0].Date)

	end := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	recent, err := s.RecentResponses(ctx, end, 2)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "2024-01-10", recent[0].Date)

	err = s.SaveResponse(ctx, scoring.Response{Date: "yesterday"})
	assert.ErrorIs(t, err, scoring.ErrInvalidDate)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveResponse(ctx, studyResponse("2024-01-09", 90)))
	require.NoError(t, s.SaveResponse(ctx, studyResponse("2024-01-10", 30)))
	_, err := s.RecordDay(ctx, "2024-01-09", details(5, 3), time.Time{})
	require.NoError(t, err)

	h, err := s.History(ctx, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 30)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, scoring.HistoryRecord{Date: "2024-01-09", DailyPoints: 8, StudyMinutes: 90}, h[0])
	assert.Equal(t, scoring.HistoryRecord{Date: "2024-01-10", DailyPoints: 0, StudyMinutes: 30}, h[1])
}

func TestLedgerTotalsMatchEntries(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	total, err := s.RecordDay(ctx, "2024-01-08", details(10, -2), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 8, total)

	total, err = s.RecordDay(ctx, "2024-01-09", details(6), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 14, total)

	// Re-recording a day replaces its entry.
	total, err = s.RecordDay(ctx, "2024-01-08", details(3), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 9, total)

	entries, err := s.PointsHistory(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].Balance)
	assert.Equal(t, 9, entries[1].Balance)
	assert.Equal(t, details(6), entries[1].Details)

	sum := 0
	for _, e := range entries {
		sum += e.Points
	}
	got, err := s.TotalPoints(ctx)
	require.NoError(t, err)
	assert.Equal(t, sum, got)

	since, err := s.PointsHistory(ctx, "2024-01-09")
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, 9, since[0].Balance, "running totals include earlier entries")
}

func TestRecordDay_EmptyDetails(t *testing.T) {
	s := openTestStore(t)
	total, err := s.RecordDay(context.Background(), "2024-01-08", nil, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

var coffee = Reward{ID: "coffee", Name: "Fancy coffee", Description: "A latte", Points: 20, Category: "food", Emoji: "☕"}

func TestRedeem(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	at := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)

	_, err := s.RecordDay(ctx, "2024-01-10", details(15), time.Time{})
	require.NoError(t, err)

	_, _, err = s.Redeem(ctx, coffee, at)
	require.ErrorIs(t, err, ErrInsufficientPoints)
	total, err := s.TotalPoints(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, total, "failed redemption leaves the ledger untouched")
	reds, err := s.Redemptions(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, reds)

	_, err = s.RecordDay(ctx, "2024-01-11", details(10), time.Time{})
	require.NoError(t, err)

	red, remaining, err := s.Redeem(ctx, coffee, at)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)
	assert.Len(t, red.ID, 36)
	assert.Equal(t, "2024-01-11", red.Date)
	assert.Equal(t, 20, red.PointsSpent)

	total, err = s.TotalPoints(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	reds, err = s.Redemptions(ctx, "2024-01-11")
	require.NoError(t, err)
	require.Len(t, reds, 1)
	assert.Equal(t, red.ID, reds[0].ID)
	assert.True(t, reds[0].CreatedAt.Equal(at))

	entries, err := s.PointsHistory(ctx, "")
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, KindRedemption, last.Kind)
	assert.Equal(t, -20, last.Points)
	assert.Equal(t, scoring.CategoryRedemption, last.Details[0].Category)

	daily, err := s.DailyEntries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, daily, 2)
}

func TestRewards(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	nap := Reward{ID: "nap", Name: "Nap", Description: "30 minutes", Points: 10, Category: "rest", Emoji: "😴"}
	n, err := s.SeedRewards(ctx, []Reward{coffee, nap})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.SeedRewards(ctx, []Reward{coffee})
	require.NoError(t, err)
	assert.Zero(t, n, "seeding skips a populated catalogue")

	list, err := s.Rewards(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "nap", list[0].ID, "ordered by cost")

	err = s.AddReward(ctx, nap)
	assert.ErrorIs(t, err, ErrDuplicate)

	nap.Points = 12
	require.NoError(t, s.UpdateReward(ctx, nap))
	got, err := s.Reward(ctx, "nap")
	require.NoError(t, err)
	assert.Equal(t, 12, got.Points)

	err = s.UpdateReward(ctx, Reward{ID: "ghost", Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.RemoveReward(ctx, "nap"))
	_, err = s.Reward(ctx, "nap")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.RemoveReward(ctx, "nap"), ErrNotFound)
}

func TestRollback(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveResponse(ctx, studyResponse("2024-01-09", 60)))
	require.NoError(t, s.SaveResponse(ctx, studyResponse("2024-01-10", 60)))
	_, err := s.RecordDay(ctx, "2024-01-09", details(20), time.Time{})
	require.NoError(t, err)
	_, err = s.RecordDay(ctx, "2024-01-10", details(12), time.Time{})
	require.NoError(t, err)
	_, _, err = s.Redeem(ctx, coffee, time.Date(2024, 1, 10, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	dates, err := s.RollbackDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-10", "2024-01-09"}, dates)

	res, err := s.Rollback(ctx, "2024-01-10")
	require.NoError(t, err)
	assert.True(t, res.ResponseRemoved)
	assert.Equal(t, 12, res.PointsRemoved)
	assert.Equal(t, 0, res.Total, "redemption stays: 20 - 20")

	_, err = s.ResponseByDate(ctx, "2024-01-10")
	assert.ErrorIs(t, err, ErrNotFound)

	reds, err := s.Redemptions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, reds, 1)

	_, err = s.Rollback(ctx, "2024-01-10")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	st, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Days)
	assert.Zero(t, st.Average)

	require.NoError(t, s.SaveResponse(ctx, studyResponse("2024-01-09", 60)))
	require.NoError(t, s.SaveResponse(ctx, studyResponse("2024-01-10", 0)))
	_, err = s.RecordDay(ctx, "2024-01-09", details(20, -4), time.Time{})
	require.NoError(t, err)
	_, err = s.RecordDay(ctx, "2024-01-10", details(6), time.Time{})
	require.NoError(t, err)
	_, _, err = s.Redeem(ctx, coffee, time.Date(2024, 1, 10, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	st, err = s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Days)
	assert.Equal(t, 1, st.StudyDays)
	assert.Equal(t, 60.0, st.StudyMinutes)
	assert.Equal(t, 20.0, st.Problems)
	assert.Equal(t, 26, st.Earned)
	assert.Equal(t, 4, st.Lost)
	assert.Equal(t, 20, st.Spent)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 11.0, st.Average)
	assert.Equal(t, "2024-01-09", st.BestDate)
	assert.Equal(t, 16, st.BestPoints)
	assert.Equal(t, 1, st.Redemptions)
	assert.Equal(t, "2024-01-09", st.FirstDate)
	assert.Equal(t, "2024-01-10", st.LastDate)
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "diary.db")

	res, err := Migrate(ctx, SQLite, path, -1)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, uint(4), res.To)

	res, err = Migrate(ctx, SQLite, path, -1)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	res, err = Migrate(ctx, SQLite, path, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(4), res.From)
	assert.Equal(t, uint(2), res.To)

	res, err = Migrate(ctx, SQLite, path, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(0), res.To)

	s, err := Open(ctx, SQLite, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	total, err := s.TotalPoints(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}
