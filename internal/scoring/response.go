package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Value is an answer value: either a number or a category tag.
type Value struct {
	num   float64
	tag   string
	isNum bool
}

// Number returns a numeric Value.
func Number(v float64) Value { return Value{num: v, isNum: true} }

// Tag returns a category Value.
func Tag(s string) Value { return Value{tag: s} }

// Float returns the numeric value and whether the value is numeric.
func (v Value) Float() (float64, bool) { return v.num, v.isNum }

// IsZero reports whether v holds neither a number nor a tag.
func (v Value) IsZero() bool { return !v.isNum && v.tag == "" }

// String renders a number without trailing zeros, or the tag as-is.
func (v Value) String() string {
	if v.isNum {
		return formatNumber(v.num)
	}
	return v.tag
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isNum {
		return json.Marshal(v.num)
	}
	if v.tag == "" {
		return []byte("null"), nil
	}
	return json.Marshal(v.tag)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Value{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Tag(s)
		return nil
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("value must be a number or string: %w", err)
		}
		*v = Number(f)
		return nil
	}
}

// UnmarshalYAML decodes numeric scalars as numbers and everything else as tags.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: value must be a scalar", n.Line)
	}
	switch n.ShortTag() {
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*v = Number(f)
	case "!!null":
		*v = Value{}
	default:
		*v = Tag(n.Value)
	}
	return nil
}

// Field is an answered choice question: what the user saw and the value it maps to.
type Field struct {
	Display string `json:"display,omitempty"`
	Value   Value  `json:"value"`
}

// Response is one processed daily questionnaire. It is immutable once scored.
type Response struct {
	Date      string
	Fields    map[string]Field
	Text      map[string]string
	Timestamp time.Time
}

// Number returns the numeric value of a choice field, or 0 when the field is
// missing or holds a category.
func (r Response) Number(id string) float64 {
	f, ok := r.Fields[id]
	if !ok {
		return 0
	}
	n, ok := f.Value.Float()
	if !ok {
		return 0
	}
	return n
}

// Category returns the tag of a choice field, or "" when missing or numeric.
func (r Response) Category(id string) string {
	f, ok := r.Fields[id]
	if !ok {
		return ""
	}
	if _, isNum := f.Value.Float(); isNum {
		return ""
	}
	return f.Value.tag
}

// Display returns the option text shown for a choice field.
func (r Response) Display(id string) string {
	return r.Fields[id].Display
}

// Raw returns the free-text answer for id, falling back to the string form of
// a choice value.
func (r Response) Raw(id string) string {
	if s, ok := r.Text[id]; ok {
		return s
	}
	if f, ok := r.Fields[id]; ok {
		return f.Value.String()
	}
	return ""
}

// MarshalJSON writes the flat document form:
// {"date": ..., "<field>": {"display": ..., "value": ...}, "<text>": "...", "timestamp": ...}.
func (r Response) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(r.Fields)+len(r.Text)+2)
	for k, v := range r.Text {
		doc[k] = v
	}
	for k, v := range r.Fields {
		doc[k] = v
	}
	doc[FieldDate] = r.Date
	if !r.Timestamp.IsZero() {
		doc["timestamp"] = r.Timestamp.Format(time.RFC3339)
	}
	return json.Marshal(doc)
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	out := Response{Fields: map[string]Field{}, Text: map[string]string{}}
	for k, raw := range doc {
		raw = bytes.TrimSpace(raw)
		switch {
		case k == FieldDate:
			if err := json.Unmarshal(raw, &out.Date); err != nil {
				return fmt.Errorf("date: %w", err)
			}
		case k == "timestamp":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("timestamp: %w", err)
			}
			if s != "" {
				ts, err := time.Parse(time.RFC3339, s)
				if err != nil {
					return fmt.Errorf("timestamp: %w", err)
				}
				out.Timestamp = ts
			}
		case len(raw) > 0 && raw[0] == '{':
			var f Field
			if err := json.Unmarshal(raw, &f); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			out.Fields[k] = f
		case len(raw) > 0 && raw[0] == '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			out.Text[k] = s
		case bytes.Equal(raw, []byte("null")):
		default:
			// Bare numbers (e.g. "accuracy_rate": 92) are kept as raw text.
			out.Text[k] = string(raw)
		}
	}
	*r = out
	return nil
}

// FieldIDs returns the answered choice field IDs in sorted order.
func (r Response) FieldIDs() []string {
	ids := make([]string, 0, len(r.Fields))
	for id := range r.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HistoryFromResponses reduces responses to streak history records.
func HistoryFromResponses(responses []Response) []HistoryRecord {
	out := make([]HistoryRecord, 0, len(responses))
	for _, r := range responses {
		out = append(out, HistoryRecord{
			Date:         r.Date,
			StudyMinutes: r.Number(FieldStudyDuration),
		})
	}
	return out
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
