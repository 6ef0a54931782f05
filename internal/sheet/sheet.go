// Package sheet exports the daily questionnaire as an .xlsx workbook and
// imports the answers filled into it.
package sheet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dshills/studydiary/internal/questionnaire"
	"github.com/dshills/studydiary/internal/scoring"
)

// SheetName is the worksheet holding the questionnaire.
const SheetName = "Daily questionnaire"

// Columns is the header row, in order.
var Columns = []string{"No", "Question", "Type", "Options", "Answer"}

const (
	colNo = iota
	colQuestion
	colType
	colOptions
	colAnswer
)

var (
	// ErrNoAnswers is returned by Validate when no question was answered.
	ErrNoAnswers = errors.New("no answers filled in")
	// ErrNoSheets is returned by Latest when the directory holds no questionnaire.
	ErrNoSheets = errors.New("no questionnaire found")
)

var typeLabels = map[questionnaire.Kind]string{
	questionnaire.KindAuto:   "Auto-filled",
	questionnaire.KindChoice: "Choice",
	questionnaire.KindText:   "Text",
}

// FileName returns the workbook name for date.
func FileName(date time.Time) string {
	return "daily_questionnaire_" + date.Format(scoring.DateLayout) + ".xlsx"
}

// Export writes the workbook and its instructions file into dir and returns
// the workbook path. The date question is pre-filled with date.
func Export(q *questionnaire.Questionnaire, dir string, date time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("sheet.Export: %w", err)
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return "", fmt.Errorf("sheet.Export: %w", err)
	}
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return "", fmt.Errorf("sheet.Export: %w", err)
	}

	for i, qu := range q.Questions {
		row := i + 2
		var options, answer string
		switch qu.Kind {
		case questionnaire.KindAuto:
			if qu.ID == scoring.FieldDate {
				answer = date.Format(scoring.DateLayout)
			}
		case questionnaire.KindChoice:
			lines := make([]string, len(qu.Options))
			for j, opt := range qu.Options {
				lines[j] = fmt.Sprintf("%d. %s", j, opt)
			}
			options = strings.Join(lines, "\n")
		case questionnaire.KindText:
			options = qu.Placeholder
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return "", fmt.Errorf("sheet.Export: %w", err)
		}
		values := []any{i + 1, qu.Prompt, typeLabels[qu.Kind], options, answer}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return "", fmt.Errorf("sheet.Export: %w", err)
		}
		if strings.Contains(options, "\n") {
			if err := f.SetRowHeight(SheetName, row, 100); err != nil {
				return "", fmt.Errorf("sheet.Export: %w", err)
			}
		}
	}

	if err := format(f, len(q.Questions)+1); err != nil {
		return "", fmt.Errorf("sheet.Export: %w", err)
	}

	path := filepath.Join(dir, FileName(date))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("sheet.Export: %w", err)
	}
	instructions := filepath.Join(dir, "instructions_"+date.Format(scoring.DateLayout)+".txt")
	if err := os.WriteFile(instructions, []byte(Instructions), 0o644); err != nil {
		return "", fmt.Errorf("sheet.Export: %w", err)
	}
	return path, nil
}

func format(f *excelize.File, lastRow int) error {
	widths := map[string]float64{"A": 8, "B": 40, "C": 12, "D": 50, "E": 30}
	for col, w := range widths {
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return err
		}
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A2", "E"+strconv.Itoa(lastRow), wrap); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, "A1", "E1", bold)
}

// Instructions explains how to fill the workbook.
const Instructions = `Study diary: how to fill in the daily questionnaire

1. Choice questions
   Enter the option number (0, 1, 2, ...) in the Answer column.
   Plain words also work, for example "about 45 minutes" or "didn't study";
   they are matched to the closest option on import.

2. Text questions
   Type your answer in the Answer column. There is no length limit.

3. Auto-filled questions
   These are already filled in. Leave them unchanged.

4. Example
   Question: How long did you study today?
   Options:
     0. No study
     1. Under 30 minutes
     2. 30-60 minutes
   Answer: 2   (means 30-60 minutes)

5. Save the file without renaming it, then import it.

Good luck with your studies!
`

func readRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return f.GetRows(SheetName)
}

func cell(row []string, col int) string {
	if col < len(row) {
		return strings.TrimSpace(row[col])
	}
	return ""
}

// Validate checks the header row and that at least one question other than
// the auto-filled ones has an answer.
func Validate(path string) error {
	rows, err := readRows(path)
	if err != nil {
		return fmt.Errorf("sheet.Validate: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("sheet.Validate: %s: empty worksheet", path)
	}
	for i, want := range Columns {
		if got := cell(rows[0], i); got != want {
			return fmt.Errorf("sheet.Validate: %s: missing column %q (found %q)", path, want, got)
		}
	}
	for _, row := range rows[1:] {
		if cell(row, colType) == typeLabels[questionnaire.KindAuto] {
			continue
		}
		if cell(row, colAnswer) != "" {
			return nil
		}
	}
	return fmt.Errorf("sheet.Validate: %s: %w", path, ErrNoAnswers)
}

// Import reads the raw answers keyed by question id. Rows are matched by
// question text, then by their number. Blank answers are skipped.
func Import(path string, q *questionnaire.Questionnaire) (map[string]string, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, fmt.Errorf("sheet.Import: %w", err)
	}
	byPrompt := make(map[string]questionnaire.Question, len(q.Questions))
	for _, qu := range q.Questions {
		byPrompt[qu.Prompt] = qu
	}

	raw := map[string]string{}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		answer := cell(row, colAnswer)
		if answer == "" {
			continue
		}
		qu, ok := byPrompt[cell(row, colQuestion)]
		if !ok {
			n, err := strconv.Atoi(cell(row, colNo))
			if err != nil || n < 1 || n > len(q.Questions) {
				continue
			}
			qu = q.Questions[n-1]
		}
		if qu.Kind == questionnaire.KindAuto && qu.ID != scoring.FieldDate {
			continue
		}
		raw[qu.ID] = answer
	}
	return raw, nil
}

// Latest returns the newest questionnaire workbook in dir.
func Latest(dir string) (string, error) {
	files, err := list(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("sheet.Latest: %w", err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("sheet.Latest: %s: %w", dir, ErrNoSheets)
	}
	return files[0], nil
}

// Answered lists imported workbooks, newest first.
func Answered(dir string) ([]string, error) {
	files, err := list(filepath.Join(dir, "answered"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sheet.Answered: %w", err)
	}
	return files, nil
}

func list(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "daily_questionnaire_") && strings.HasSuffix(name, ".xlsx") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

// MoveAnswered moves an imported workbook into the answered/ directory next
// to it and returns the new path.
func MoveAnswered(path string) (string, error) {
	dir := filepath.Join(filepath.Dir(path), "answered")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("sheet.MoveAnswered: %w", err)
	}
	dst := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		return "", fmt.Errorf("sheet.MoveAnswered: %w", err)
	}
	return dst, nil
}
