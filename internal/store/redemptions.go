package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/studydiary/internal/scoring"
)

// Redemption records one reward purchase.
type Redemption struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	RewardID    string    `json:"reward_id"`
	RewardName  string    `json:"reward_name"`
	Category    string    `json:"category"`
	PointsSpent int       `json:"points_spent"`
	CreatedAt   time.Time `json:"created_at"`
}

// Redeem deducts the reward's cost from the balance and records the purchase
// in one transaction. It fails with ErrInsufficientPoints, leaving the ledger
// untouched, when the balance is below the cost.
func (s *Store) Redeem(ctx context.Context, r Reward, at time.Time) (Redemption, int, error) {
	if r.Points <= 0 {
		return Redemption{}, 0, fmt.Errorf("store.Redeem: reward %q has non-positive cost %d", r.ID, r.Points)
	}
	if at.IsZero() {
		at = s.now()
	}
	red := Redemption{
		ID:          uuid.NewString(),
		Date:        at.Format(scoring.DateLayout),
		RewardID:    r.ID,
		RewardName:  r.Name,
		Category:    r.Category,
		PointsSpent: r.Points,
		CreatedAt:   at,
	}
	details, err := json.Marshal([]scoring.PointDetail{{
		Category: scoring.CategoryRedemption,
		Item:     fmt.Sprintf("%s %s", r.Emoji, r.Name),
		Points:   -r.Points,
	}})
	if err != nil {
		return Redemption{}, 0, fmt.Errorf("store.Redeem: %w", err)
	}

	var remaining int
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		balance, err := s.sumTx(ctx, tx)
		if err != nil {
			return err
		}
		if balance < r.Points {
			return fmt.Errorf("%s costs %d, balance is %d: %w", r.Name, r.Points, balance, ErrInsufficientPoints)
		}
		if _, err := s.insertID(ctx, tx,
			`INSERT INTO ledger_entries (entry_date, kind, points, details, created_at) VALUES (?, ?, ?, ?, ?)`,
			red.Date, KindRedemption, -r.Points, string(details), formatTime(at)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			s.rebind(`INSERT INTO redemptions (id, entry_date, reward_id, reward_name, category, points_spent, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
			red.ID, red.Date, red.RewardID, red.RewardName, red.Category, red.PointsSpent, formatTime(at)); err != nil {
			return err
		}
		remaining = balance - r.Points
		return nil
	})
	if err != nil {
		return Redemption{}, 0, fmt.Errorf("store.Redeem: %w", err)
	}
	return red, remaining, nil
}

// Redemptions returns purchases dated on or after since (all when empty),
// oldest first.
func (s *Store) Redemptions(ctx context.Context, since string) ([]Redemption, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, entry_date, reward_id, reward_name, category, points_spent, created_at
FROM redemptions WHERE entry_date >= ? ORDER BY created_at, id`), since)
	if err != nil {
		return nil, fmt.Errorf("store.Redemptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Redemption
	for rows.Next() {
		var r Redemption
		var created string
		if err := rows.Scan(&r.ID, &r.Date, &r.RewardID, &r.RewardName, &r.Category, &r.PointsSpent, &created); err != nil {
			return nil, fmt.Errorf("store.Redemptions: %w", err)
		}
		r.CreatedAt = parseTime(created)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.Redemptions: %w", err)
	}
	return out, nil
}
