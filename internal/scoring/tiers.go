package scoring

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// ErrUnparseableAccuracy is returned by ParseAccuracy for text that is not a number.
var ErrUnparseableAccuracy = errors.New("unparseable accuracy")

// Resolve returns the highest step whose threshold does not exceed v.
// Only that step pays out; lower steps are not added.
func (l Ladder) Resolve(v float64) (Step, bool) {
	i := sort.Search(len(l.Steps), func(i int) bool { return l.Steps[i].Min > v })
	if i == 0 {
		return Step{}, false
	}
	return l.Steps[i-1], true
}

// Floor is the lowest threshold of the ladder.
func (l Ladder) Floor() float64 {
	if len(l.Steps) == 0 {
		return 0
	}
	return l.Steps[0].Min
}

// Score looks up a category tag. Tags without an entry score nothing.
func (c CategoryTable) Score(tag string) (Tier, bool) {
	t, ok := c.Scores[tag]
	return t, ok
}

// Knows reports whether tag belongs to the dimension's vocabulary.
func (c CategoryTable) Knows(tag string) bool {
	return slices.Contains(c.Known, tag)
}

// Classify returns the first band whose lower bound does not exceed pct.
func (b Bands) Classify(pct float64) (Band, bool) {
	for _, band := range b {
		if pct >= band.Min {
			return band, true
		}
	}
	return Band{}, false
}

// ParseAccuracy reads an accuracy percentage such as "92", "92.5" or "85 %".
// The result is clamped to [0, 100].
func ParseAccuracy(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrUnparseableAccuracy)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrUnparseableAccuracy, raw)
	}
	return math.Max(0, math.Min(100, v)), nil
}

func expandLabel(label string, v float64) string {
	return strings.ReplaceAll(label, "{value}", formatNumber(v))
}
