package scoring

// Level is a named milestone keyed by cumulative points.
type Level struct {
	Name      string `yaml:"name" json:"name"`
	MinPoints int    `yaml:"min_points" json:"min_points"`
	Emoji     string `yaml:"emoji" json:"emoji"`
}

// Levels is ordered by ascending MinPoints.
type Levels []Level

// LevelInfo is the user's position on the level ladder.
type LevelInfo struct {
	Current  Level  `json:"current"`
	Next     *Level `json:"next,omitempty"`
	Progress int    `json:"progress"`
	Needed   int    `json:"needed"`
}

// Resolve places total on the ladder. Reaching a level's MinPoints exactly
// places the user at that level. Totals below the first floor resolve to the
// first level. At the top level Next is nil and Progress and Needed are 0.
func (ls Levels) Resolve(total int) LevelInfo {
	if len(ls) == 0 {
		return LevelInfo{}
	}
	idx := 0
	for i, l := range ls {
		if total >= l.MinPoints {
			idx = i
		}
	}
	info := LevelInfo{Current: ls[idx]}
	if idx+1 < len(ls) {
		next := ls[idx+1]
		info.Next = &next
		info.Progress = total - info.Current.MinPoints
		info.Needed = next.MinPoints - total
	}
	return info
}

// Span is the number of points between the current level floor and the next.
func (li LevelInfo) Span() int {
	if li.Next == nil {
		return 0
	}
	return li.Next.MinPoints - li.Current.MinPoints
}
