package redeem

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/studydiary/internal/scoring"
	"github.com/dshills/studydiary/internal/store"
)

func newService(t *testing.T, balance int) (*Service, *store.Store) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.SQLite, filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	if balance != 0 {
		_, err = st.RecordDay(ctx, "2024-01-10", []scoring.PointDetail{{Category: scoring.CategoryStudyTime, Item: "study", Points: balance}}, time.Time{})
		require.NoError(t, err)
	}

	cat, err := DefaultCatalogue()
	require.NoError(t, err)
	svc := NewService(st, cat)
	svc.now = func() time.Time { return time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC) }
	n, err := svc.Seed(ctx)
	require.NoError(t, err)
	require.Equal(t, 20, n)
	return svc, st
}

func TestDefaultCatalogue(t *testing.T) {
	c, err := DefaultCatalogue()
	require.NoError(t, err)
	require.Len(t, c.Rewards, 20)

	seen := map[string]bool{}
	for _, r := range c.Rewards {
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
		assert.Contains(t, c.Categories, r.Category, r.ID)
	}
	assert.Equal(t, "Study progress", c.CategoryName("study"))
	assert.Equal(t, "misc", c.CategoryName("misc"))
}

func TestValidateReward(t *testing.T) {
	good := store.Reward{ID: "tea", Name: "Tea", Points: 5, Category: "food"}
	assert.NoError(t, ValidateReward(good))

	bad := good
	bad.ID = "green tea"
	bad.Points = 0
	err := ValidateReward(bad)
	require.ErrorIs(t, err, ErrInvalidReward)
	assert.Contains(t, err.Error(), "whitespace")
	assert.Contains(t, err.Error(), "points must be positive")
}

func TestAvailableAndByCategory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 0)

	avail, err := svc.Available(ctx, 20)
	require.NoError(t, err)
	require.Len(t, avail, 4)
	assert.Equal(t, "rest_10min", avail[0].ID)
	for _, r := range avail {
		assert.LessOrEqual(t, r.Points, 20)
	}

	none, err := svc.Available(ctx, -5)
	require.NoError(t, err)
	assert.Empty(t, none)

	study, err := svc.ByCategory(ctx, "study")
	require.NoError(t, err)
	require.Len(t, study, 3)
	assert.Equal(t, []int{150, 200, 300}, []int{study[0].Points, study[1].Points, study[2].Points})

	all, err := svc.ByCategory(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 20)
}

func TestRedeem(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t, 50)

	red, remaining, err := svc.Redeem(ctx, "snack_healthy")
	require.NoError(t, err)
	assert.Equal(t, 30, remaining)
	assert.Equal(t, "Healthy snack", red.RewardName)
	assert.Equal(t, "2024-01-11", red.Date)

	_, _, err = svc.Redeem(ctx, "chat_friend")
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	total, err := st.TotalPoints(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, total)

	_, _, err = svc.Redeem(ctx, "yacht")
	assert.ErrorIs(t, err, ErrUnknownReward)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 100)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Count)
	assert.Empty(t, st.MostPopular)

	for _, id := range []string{"rest_10min", "water_reminder", "water_reminder", "snack_healthy"} {
		_, _, err := svc.Redeem(ctx, id)
		require.NoError(t, err)
	}

	st, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Count)
	assert.Equal(t, 50, st.PointsSpent)
	assert.Equal(t, "Hydrate", st.MostPopular)
	assert.Equal(t, map[string]int{"rest": 1, "health": 2, "food": 1}, st.Categories)

	hist, err := svc.History(ctx, "")
	require.NoError(t, err)
	assert.Len(t, hist, 4)
}

func TestAddUpdateRemove(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 0)

	tea := store.Reward{ID: "tea", Name: "Tea", Description: "A pot of tea", Points: 15, Category: "food", Emoji: "🍵"}
	require.NoError(t, svc.Add(ctx, tea))
	assert.ErrorIs(t, svc.Add(ctx, tea), store.ErrDuplicate)

	tea.Points = 25
	require.NoError(t, svc.Update(ctx, tea))
	food, err := svc.ByCategory(ctx, "food")
	require.NoError(t, err)
	assert.Equal(t, "tea", food[1].ID)

	require.NoError(t, svc.Remove(ctx, "tea"))
	assert.ErrorIs(t, svc.Remove(ctx, "tea"), ErrUnknownReward)
	assert.ErrorIs(t, svc.Update(ctx, tea), ErrUnknownReward)

	assert.Error(t, svc.Add(ctx, store.Reward{ID: "x"}))
}
