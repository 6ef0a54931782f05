package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dshills/studydiary/internal/scoring"
)

// Ledger entry kinds.
const (
	KindDaily      = "daily"
	KindRedemption = "redemption"
)

// LedgerEntry is one signed change to the points balance.
type LedgerEntry struct {
	ID        int64                 `json:"id"`
	Date      string                `json:"date"`
	Kind      string                `json:"kind"`
	Points    int                   `json:"points"`
	Details   []scoring.PointDetail `json:"details"`
	CreatedAt time.Time             `json:"created_at"`
	// Balance is the running total after this entry.
	Balance int `json:"balance"`
}

// RecordDay stores the scored details for date, replacing any earlier daily
// entry for that date. It returns the new total balance.
func (s *Store) RecordDay(ctx context.Context, date string, details []scoring.PointDetail, at time.Time) (int, error) {
	if _, err := scoring.ParseDate(date); err != nil {
		return 0, fmt.Errorf("store.RecordDay: %w", err)
	}
	if details == nil {
		details = []scoring.PointDetail{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return 0, fmt.Errorf("store.RecordDay: %w", err)
	}
	if at.IsZero() {
		at = s.now()
	}

	var total int
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			s.rebind(`DELETE FROM ledger_entries WHERE entry_date = ? AND kind = ?`), date, KindDaily); err != nil {
			return err
		}
		if _, err := s.insertID(ctx, tx,
			`INSERT INTO ledger_entries (entry_date, kind, points, details, created_at) VALUES (?, ?, ?, ?, ?)`,
			date, KindDaily, scoring.SumPoints(details), string(raw), formatTime(at)); err != nil {
			return err
		}
		total, err = s.sumTx(ctx, tx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("store.RecordDay: %w", err)
	}
	return total, nil
}

// TotalPoints returns the current balance: the sum of every ledger entry.
func (s *Store) TotalPoints(ctx context.Context) (int, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(points), 0) FROM ledger_entries`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("store.TotalPoints: %w", err)
	}
	return int(total), nil
}

func (s *Store) sumTx(ctx context.Context, tx *sql.Tx) (int, error) {
	var total int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(points), 0) FROM ledger_entries`).Scan(&total); err != nil {
		return 0, err
	}
	return int(total), nil
}

// PointsHistory returns ledger entries dated on or after since (every entry
// when since is empty) in insertion order, with running balances computed
// over the whole ledger.
func (s *Store) PointsHistory(ctx context.Context, since string) ([]LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entry_date, kind, points, details, created_at FROM ledger_entries ORDER BY entry_date, id`)
	if err != nil {
		return nil, fmt.Errorf("store.PointsHistory: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []LedgerEntry
	balance := 0
	for rows.Next() {
		var e LedgerEntry
		var details, created string
		if err := rows.Scan(&e.ID, &e.Date, &e.Kind, &e.Points, &details, &created); err != nil {
			return nil, fmt.Errorf("store.PointsHistory: %w", err)
		}
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			return nil, fmt.Errorf("store.PointsHistory: entry %d: %w", e.ID, err)
		}
		e.CreatedAt = parseTime(created)
		balance += e.Points
		e.Balance = balance
		if since == "" || e.Date >= since {
			out = append(out, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.PointsHistory: %w", err)
	}
	return out, nil
}

// DailyEntries returns only the daily entries of PointsHistory.
func (s *Store) DailyEntries(ctx context.Context, since string) ([]LedgerEntry, error) {
	all, err := s.PointsHistory(ctx, since)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if e.Kind == KindDaily {
			out = append(out, e)
		}
	}
	return out, nil
}
