package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/studydiary/internal/scoring"
	"github.com/dshills/studydiary/internal/store"
)

func sampleBundle() Bundle {
	at := time.Date(2024, 1, 11, 8, 30, 0, 0, time.UTC)
	return Bundle{
		ExportedAt: at,
		Total:      5,
		Responses: []scoring.Response{{
			Date: "2024-01-10",
			Fields: map[string]scoring.Field{
				scoring.FieldStudyDuration:     {Display: "2 hours", Value: scoring.Number(120)},
				scoring.FieldProblemsCompleted: {Display: "25", Value: scoring.Number(25)},
			},
			Text: map[string]string{scoring.FieldAccuracyRate: "88"},
		}, {
			Date:   "2024-01-11",
			Fields: map[string]scoring.Field{scoring.FieldStudyDuration: {Value: scoring.Number(0)}},
		}},
		Ledger: []store.LedgerEntry{
			{ID: 1, Date: "2024-01-10", Kind: store.KindDaily, Points: 25, Balance: 25, CreatedAt: at,
				Details: []scoring.PointDetail{{Category: scoring.CategoryStudyTime, Item: "Studied 120 minutes", Points: 8}, {Category: scoring.CategoryPenalty, Item: "No breaks", Points: -2}}},
			{ID: 2, Date: "2024-01-11", Kind: store.KindRedemption, Points: -20, Balance: 5, CreatedAt: at,
				Details: []scoring.PointDetail{{Category: scoring.CategoryRedemption, Item: "☕ Coffee", Points: -20}}},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"json", "CSV", " parquet "} {
		_, err := ParseFormat(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleBundle()))

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	for _, key := range []string{"exported_at", "total_points", "responses", "ledger", "redemptions"} {
		assert.Contains(t, doc, key)
	}
	assert.JSONEq(t, "[]", string(doc["redemptions"]))

	var responses []scoring.Response
	require.NoError(t, json.Unmarshal(doc["responses"], &responses))
	require.Len(t, responses, 2)
	assert.Equal(t, 120.0, responses[0].Number(scoring.FieldStudyDuration))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleBundle().Ledger))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"date", "kind", "points", "total", "details"}, records[0])
	assert.Equal(t, []string{"2024-01-10", "daily", "25", "25", "Study time: Studied 120 minutes (+8); Penalty: No breaks (-2)"}, records[1])
	assert.Equal(t, "-20", records[2][2])
}

func TestParquetSchema(t *testing.T) {
	schema := parquet.SchemaOf(new(LedgerRow))
	for _, col := range []string{"date", "kind", "points", "total", "details", "created_at"} {
		_, ok := schema.Lookup(col)
		assert.True(t, ok, "column %s", col)
	}
	schema = parquet.SchemaOf(new(ResponseRow))
	for _, col := range []string{"date", "study_minutes", "problems", "accuracy", "payload"} {
		_, ok := schema.Lookup(col)
		assert.True(t, ok, "column %s", col)
	}
}

func readParquet[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()
	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestWrite_Parquet(t *testing.T) {
	dir := t.TempDir()
	b := sampleBundle()
	paths, err := Write(dir, Parquet, b)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "ledger_20240111_083000.parquet"), paths[0])

	ledger := readParquet[LedgerRow](t, paths[0])
	require.Len(t, ledger, 2)
	assert.Equal(t, int32(25), ledger[0].Points)
	assert.Equal(t, int32(5), ledger[1].Total)
	assert.Equal(t, store.KindRedemption, ledger[1].Kind)

	responses := readParquet[ResponseRow](t, paths[1])
	require.Len(t, responses, 2)
	assert.Equal(t, 120.0, responses[0].StudyMinutes)
	require.NotNil(t, responses[0].Accuracy)
	assert.Equal(t, "88", *responses[0].Accuracy)
	assert.Nil(t, responses[1].Accuracy)
}

func TestWrite_JSONAndCSVFiles(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []Format{JSON, CSV} {
		paths, err := Write(dir, f, sampleBundle())
		require.NoError(t, err)
		require.Len(t, paths, 1)
		info, err := os.Stat(paths[0])
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}
