package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dshills/studydiary/internal/scoring"
)

// RollbackResult reports what Rollback removed.
type RollbackResult struct {
	Date            string `json:"date"`
	ResponseRemoved bool   `json:"response_removed"`
	PointsRemoved   int    `json:"points_removed"`
	Total           int    `json:"total"`
}

// Rollback deletes the response and daily ledger entry for date. Redemptions
// made that day stay in the ledger.
func (s *Store) Rollback(ctx context.Context, date string) (RollbackResult, error) {
	res := RollbackResult{Date: date}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var pts int64
		if err := tx.QueryRowContext(ctx,
			s.rebind(`SELECT COALESCE(SUM(points), 0) FROM ledger_entries WHERE entry_date = ? AND kind = ?`),
			date, KindDaily).Scan(&pts); err != nil {
			return err
		}
		del, err := tx.ExecContext(ctx,
			s.rebind(`DELETE FROM ledger_entries WHERE entry_date = ? AND kind = ?`), date, KindDaily)
		if err != nil {
			return err
		}
		entries, _ := del.RowsAffected()

		del, err = tx.ExecContext(ctx, s.rebind(`DELETE FROM responses WHERE entry_date = ?`), date)
		if err != nil {
			return err
		}
		removed, _ := del.RowsAffected()
		if entries == 0 && removed == 0 {
			return fmt.Errorf("nothing recorded for %s: %w", date, ErrNotFound)
		}
		res.ResponseRemoved = removed > 0
		res.PointsRemoved = int(pts)
		res.Total, err = s.sumTx(ctx, tx)
		return err
	})
	if err != nil {
		return RollbackResult{}, fmt.Errorf("store.Rollback: %w", err)
	}
	return res, nil
}

// RollbackDates lists dates that can be rolled back, newest first.
func (s *Store) RollbackDates(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT entry_date FROM responses
UNION SELECT entry_date FROM ledger_entries WHERE kind = ?
ORDER BY 1 DESC`), KindDaily)
	if err != nil {
		return nil, fmt.Errorf("store.RollbackDates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("store.RollbackDates: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.RollbackDates: %w", err)
	}
	return out, nil
}

// Stats summarizes the whole ledger.
type Stats struct {
	Days         int     `json:"days"`
	StudyDays    int     `json:"study_days"`
	StudyMinutes float64 `json:"study_minutes"`
	Problems     float64 `json:"problems"`
	Earned       int     `json:"earned"`
	Lost         int     `json:"lost"`
	Spent        int     `json:"spent"`
	Total        int     `json:"total"`
	Average      float64 `json:"average"`
	BestDate     string  `json:"best_date,omitempty"`
	BestPoints   int     `json:"best_points"`
	Redemptions  int     `json:"redemptions"`
	FirstDate    string  `json:"first_date,omitempty"`
	LastDate     string  `json:"last_date,omitempty"`
}

// Statistics computes Stats from responses and the ledger.
func (s *Store) Statistics(ctx context.Context) (Stats, error) {
	var st Stats
	responses, err := s.Responses(ctx)
	if err != nil {
		return st, fmt.Errorf("store.Statistics: %w", err)
	}
	for _, r := range responses {
		mins := r.Number(scoring.FieldStudyDuration)
		if mins > 0 {
			st.StudyDays++
		}
		st.StudyMinutes += mins
		st.Problems += r.Number(scoring.FieldProblemsCompleted)
	}

	entries, err := s.PointsHistory(ctx, "")
	if err != nil {
		return st, fmt.Errorf("store.Statistics: %w", err)
	}
	daily := 0
	for _, e := range entries {
		st.Total += e.Points
		if e.Kind == KindRedemption {
			st.Spent -= e.Points
			st.Redemptions++
			continue
		}
		daily++
		if st.FirstDate == "" || e.Date < st.FirstDate {
			st.FirstDate = e.Date
		}
		if e.Date > st.LastDate {
			st.LastDate = e.Date
		}
		for _, d := range e.Details {
			if d.Points > 0 {
				st.Earned += d.Points
			} else {
				st.Lost -= d.Points
			}
		}
		if st.BestDate == "" || e.Points > st.BestPoints {
			st.BestDate, st.BestPoints = e.Date, e.Points
		}
	}
	st.Days = daily
	if daily > 0 {
		st.Average = float64(st.Earned-st.Lost) / float64(daily)
	}
	return st, nil
}
