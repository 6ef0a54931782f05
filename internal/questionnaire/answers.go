package questionnaire

// Answers holds raw answers keyed by question ID: an option index for choice
// questions, free text for the rest (including an explicit date).
type Answers struct {
	Choices map[string]int
	Text    map[string]string
}

// NewAnswers returns an empty Answers ready for use.
func NewAnswers() Answers {
	return Answers{Choices: map[string]int{}, Text: map[string]string{}}
}

// SetChoice records an option index.
func (a Answers) SetChoice(id string, idx int) { a.Choices[id] = idx }

// SetText records a free-text answer.
func (a Answers) SetText(id, s string) { a.Text[id] = s }

// Has reports whether id was answered in either form.
func (a Answers) Has(id string) bool {
	if _, ok := a.Choices[id]; ok {
		return true
	}
	_, ok := a.Text[id]
	return ok
}

// Len is the number of answered questions.
func (a Answers) Len() int { return len(a.Choices) + len(a.Text) }
