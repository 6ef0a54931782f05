package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Reward is a redeemable item in the shop catalogue.
type Reward struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Points      int    `yaml:"points" json:"points"`
	Category    string `yaml:"category" json:"category"`
	Emoji       string `yaml:"emoji" json:"emoji"`
}

const rewardColumns = `id, name, description, points, category, emoji`

// Rewards returns the catalogue ordered by cost, then id.
func (s *Store) Rewards(ctx context.Context) ([]Reward, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+rewardColumns+` FROM rewards ORDER BY points, id`)
	if err != nil {
		return nil, fmt.Errorf("store.Rewards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Reward
	for rows.Next() {
		var r Reward
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.Points, &r.Category, &r.Emoji); err != nil {
			return nil, fmt.Errorf("store.Rewards: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.Rewards: %w", err)
	}
	return out, nil
}

// Reward returns the reward with id, or ErrNotFound.
func (s *Store) Reward(ctx context.Context, id string) (Reward, error) {
	var r Reward
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+rewardColumns+` FROM rewards WHERE id = ?`), id).
		Scan(&r.ID, &r.Name, &r.Description, &r.Points, &r.Category, &r.Emoji)
	if errors.Is(err, sql.ErrNoRows) {
		return Reward{}, fmt.Errorf("store.Reward: %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Reward{}, fmt.Errorf("store.Reward: %w", err)
	}
	return r, nil
}

// AddReward inserts r. It fails with ErrDuplicate when the id is taken.
func (s *Store) AddReward(ctx context.Context, r Reward) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := s.rewardExists(ctx, tx, r.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("reward %q: %w", r.ID, ErrDuplicate)
		}
		return s.insertReward(ctx, tx, r)
	})
	if err != nil {
		return fmt.Errorf("store.AddReward: %w", err)
	}
	return nil
}

// UpdateReward replaces the stored reward with the same id.
func (s *Store) UpdateReward(ctx context.Context, r Reward) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE rewards SET name = ?, description = ?, points = ?, category = ?, emoji = ? WHERE id = ?`),
		r.Name, r.Description, r.Points, r.Category, r.Emoji, r.ID)
	if err != nil {
		return fmt.Errorf("store.UpdateReward: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 for unchanged rows, so confirm the row exists.
		if _, err := s.Reward(ctx, r.ID); err != nil {
			return fmt.Errorf("store.UpdateReward: %w", err)
		}
	}
	return nil
}

// RemoveReward deletes the reward with id. Past redemptions are kept.
func (s *Store) RemoveReward(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM rewards WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("store.RemoveReward: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store.RemoveReward: %q: %w", id, ErrNotFound)
	}
	return nil
}

// SeedRewards inserts the catalogue when the rewards table is empty and
// reports how many rewards were added.
func (s *Store) SeedRewards(ctx context.Context, rewards []Reward) (int, error) {
	added := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var n int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM rewards`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, r := range rewards {
			if err := s.insertReward(ctx, tx, r); err != nil {
				return fmt.Errorf("reward %q: %w", r.ID, err)
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("store.SeedRewards: %w", err)
	}
	return added, nil
}

func (s *Store) rewardExists(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	var n int64
	err := tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM rewards WHERE id = ?`), id).Scan(&n)
	return n > 0, err
}

func (s *Store) insertReward(ctx context.Context, tx *sql.Tx, r Reward) error {
	_, err := tx.ExecContext(ctx,
		s.rebind(`INSERT INTO rewards (`+rewardColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		r.ID, r.Name, r.Description, r.Points, r.Category, r.Emoji)
	return err
}
