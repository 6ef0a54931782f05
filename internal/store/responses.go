package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/studydiary/internal/scoring"
)

// SaveResponse stores resp, replacing any earlier response for the same date.
func (s *Store) SaveResponse(ctx context.Context, resp scoring.Response) error {
	if _, err := scoring.ParseDate(resp.Date); err != nil {
		return fmt.Errorf("store.SaveResponse: %w", err)
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("store.SaveResponse: %w", err)
	}
	at := resp.Timestamp
	if at.IsZero() {
		at = s.now()
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM responses WHERE entry_date = ?`), resp.Date); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			s.rebind(`INSERT INTO responses (entry_date, payload, created_at) VALUES (?, ?, ?)`),
			resp.Date, string(payload), formatTime(at))
		return err
	})
	if err != nil {
		return fmt.Errorf("store.SaveResponse: %w", err)
	}
	return nil
}

// ResponseByDate returns the response stored for date, or ErrNotFound.
func (s *Store) ResponseByDate(ctx context.Context, date string) (scoring.Response, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT payload FROM responses WHERE entry_date = ?`), date).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return scoring.Response{}, fmt.Errorf("store.ResponseByDate: response for %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return scoring.Response{}, fmt.Errorf("store.ResponseByDate: %w", err)
	}
	var resp scoring.Response
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return scoring.Response{}, fmt.Errorf("store.ResponseByDate: decode %s: %w", date, err)
	}
	return resp, nil
}

// Responses returns every stored response ordered by date.
func (s *Store) Responses(ctx context.Context) ([]scoring.Response, error) {
	out, err := s.queryResponses(ctx, `SELECT payload FROM responses ORDER BY entry_date`)
	if err != nil {
		return nil, fmt.Errorf("store.Responses: %w", err)
	}
	return out, nil
}

// RecentResponses returns responses dated within the days-long window ending
// at end, ordered by date.
func (s *Store) RecentResponses(ctx context.Context, end time.Time, days int) ([]scoring.Response, error) {
	out, err := s.queryResponses(ctx,
		`SELECT payload FROM responses WHERE entry_date >= ? AND entry_date <= ? ORDER BY entry_date`,
		windowStart(end, days), end.Format(scoring.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("store.RecentResponses: %w", err)
	}
	return out, nil
}

func (s *Store) queryResponses(ctx context.Context, query string, args ...any) ([]scoring.Response, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []scoring.Response
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var resp scoring.Response
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

// History returns streak records for the window ending at end: one per stored
// response, with the day's recorded points when present.
func (s *Store) History(ctx context.Context, end time.Time, days int) ([]scoring.HistoryRecord, error) {
	responses, err := s.RecentResponses(ctx, end, days)
	if err != nil {
		return nil, fmt.Errorf("store.History: %w", err)
	}
	points, err := s.dailyPoints(ctx, windowStart(end, days), end.Format(scoring.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("store.History: %w", err)
	}
	records := scoring.HistoryFromResponses(responses)
	for i := range records {
		records[i].DailyPoints = points[records[i].Date]
	}
	return records, nil
}

func (s *Store) dailyPoints(ctx context.Context, from, to string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT entry_date, points FROM ledger_entries WHERE kind = ? AND entry_date >= ? AND entry_date <= ?`),
		KindDaily, from, to)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := map[string]int{}
	for rows.Next() {
		var date string
		var pts int
		if err := rows.Scan(&date, &pts); err != nil {
			return nil, err
		}
		out[date] += pts
	}
	return out, rows.Err()
}
