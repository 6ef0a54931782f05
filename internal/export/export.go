// Package export writes the ledger and responses as JSON, CSV or Parquet.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/studydiary/internal/prompt"
	"github.com/dshills/studydiary/internal/scoring"
	"github.com/dshills/studydiary/internal/store"
)

// Format is an export file format.
type Format string

const (
	JSON    Format = "json"
	CSV     Format = "csv"
	Parquet Format = "parquet"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSON, CSV, Parquet:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q: use json, csv or parquet", s)
}

// Bundle is everything an export contains.
type Bundle struct {
	ExportedAt  time.Time           `json:"exported_at"`
	Total       int                 `json:"total_points"`
	Responses   []scoring.Response  `json:"responses"`
	Ledger      []store.LedgerEntry `json:"ledger"`
	Redemptions []store.Redemption  `json:"redemptions"`
}

// Write exports b into dir and returns the files written.
func Write(dir string, f Format, b Bundle) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export.Write: %w", err)
	}
	stamp := b.ExportedAt.Format("20060102_150405")

	switch f {
	case JSON:
		path := filepath.Join(dir, "studydiary_export_"+stamp+".json")
		if err := writeFile(path, func(w io.Writer) error { return WriteJSON(w, b) }); err != nil {
			return nil, fmt.Errorf("export.Write: %w", err)
		}
		return []string{path}, nil
	case CSV:
		path := filepath.Join(dir, "ledger_"+stamp+".csv")
		if err := writeFile(path, func(w io.Writer) error { return WriteCSV(w, b.Ledger) }); err != nil {
			return nil, fmt.Errorf("export.Write: %w", err)
		}
		return []string{path}, nil
	case Parquet:
		ledger := filepath.Join(dir, "ledger_"+stamp+".parquet")
		if err := WriteLedgerParquet(ledger, b.Ledger); err != nil {
			return nil, fmt.Errorf("export.Write: %w", err)
		}
		responses := filepath.Join(dir, "responses_"+stamp+".parquet")
		if err := WriteResponsesParquet(responses, b.Responses); err != nil {
			return nil, fmt.Errorf("export.Write: %w", err)
		}
		return []string{ledger, responses}, nil
	}
	return nil, fmt.Errorf("export.Write: unsupported format %q", f)
}

func writeFile(path string, fn func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := fn(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteJSON writes the bundle as indented JSON.
func WriteJSON(w io.Writer, b Bundle) error {
	if b.Responses == nil {
		b.Responses = []scoring.Response{}
	}
	if b.Ledger == nil {
		b.Ledger = []store.LedgerEntry{}
	}
	if b.Redemptions == nil {
		b.Redemptions = []store.Redemption{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// WriteCSV writes one row per ledger entry.
func WriteCSV(w io.Writer, entries []store.LedgerEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "kind", "points", "total", "details"}); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{e.Date, e.Kind, strconv.Itoa(e.Points), strconv.Itoa(e.Balance), FormatDetails(e.Details)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatDetails joins details as "Category: item (+n)" separated by "; ".
func FormatDetails(details []scoring.PointDetail) string {
	parts := make([]string, 0, len(details))
	for _, d := range details {
		parts = append(parts, fmt.Sprintf("%s: %s (%s)", d.Category, d.Item, prompt.Signed(d.Points)))
	}
	return strings.Join(parts, "; ")
}
