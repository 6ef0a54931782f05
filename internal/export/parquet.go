package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/dshills/studydiary/internal/scoring"
	"github.com/dshills/studydiary/internal/store"
)

// LedgerRow is one ledger entry in Parquet form.
type LedgerRow struct {
	Date      string    `parquet:"date,snappy"`
	Kind      string    `parquet:"kind,snappy"`
	Points    int32     `parquet:"points,snappy"`
	Total     int32     `parquet:"total,snappy"`
	Details   string    `parquet:"details,snappy"`
	CreatedAt time.Time `parquet:"created_at,snappy"`
}

// ResponseRow flattens the numeric answers of a response. Payload keeps the
// full JSON document.
type ResponseRow struct {
	Date         string  `parquet:"date,snappy"`
	StudyMinutes float64 `parquet:"study_minutes,snappy"`
	Problems     float64 `parquet:"problems,snappy"`
	ThesisWords  float64 `parquet:"thesis_words,snappy"`
	Memorization float64 `parquet:"memorization_minutes,snappy"`
	OnlineCourse float64 `parquet:"online_course_minutes,snappy"`
	// Accuracy is the raw accuracy answer, absent when not given.
	Accuracy *string `parquet:"accuracy,optional,snappy"`
	Payload  string  `parquet:"payload,snappy"`
}

// LedgerRows converts entries for Parquet output.
func LedgerRows(entries []store.LedgerEntry) []LedgerRow {
	rows := make([]LedgerRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, LedgerRow{
			Date:      e.Date,
			Kind:      e.Kind,
			Points:    int32(e.Points),
			Total:     int32(e.Balance),
			Details:   FormatDetails(e.Details),
			CreatedAt: e.CreatedAt.UTC(),
		})
	}
	return rows
}

// ResponseRows converts responses for Parquet output.
func ResponseRows(responses []scoring.Response) ([]ResponseRow, error) {
	rows := make([]ResponseRow, 0, len(responses))
	for _, r := range responses {
		payload, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("response %s: %w", r.Date, err)
		}
		row := ResponseRow{
			Date:         r.Date,
			StudyMinutes: r.Number(scoring.FieldStudyDuration),
			Problems:     r.Number(scoring.FieldProblemsCompleted),
			ThesisWords:  r.Number(scoring.FieldThesisWriting),
			Memorization: r.Number(scoring.FieldMemorizationTime),
			OnlineCourse: r.Number(scoring.FieldOnlineCourseTime),
			Payload:      string(payload),
		}
		if acc := r.Raw(scoring.FieldAccuracyRate); acc != "" {
			row.Accuracy = &acc
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteLedgerParquet writes the ledger to a Parquet file.
func WriteLedgerParquet(path string, entries []store.LedgerEntry) error {
	return writeParquet(path, LedgerRows(entries))
}

// WriteResponsesParquet writes responses to a Parquet file.
func WriteResponsesParquet(path string, responses []scoring.Response) error {
	rows, err := ResponseRows(responses)
	if err != nil {
		return err
	}
	return writeParquet(path, rows)
}

func writeParquet[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the row struct tags.
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}
