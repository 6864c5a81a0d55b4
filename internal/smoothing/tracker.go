package smoothing

// Transition describes a change of the displayed label.
type Transition struct {
	// Previous is the label shown before this frame.
	Previous string

	// Label is the label shown from this frame on.
	Label string

	// Stable is true when Label names a shape rather than the placeholder.
	Stable bool

	// Record is the newest record when Stable, otherwise the record that broke
	// the streak.
	Record Record
}

// Tracker feeds records into a History and reports when the label changes.
type Tracker struct {
	history *History
	label   string
}

// NewTracker wraps history. The initial label is the placeholder.
func NewTracker(history *History) *Tracker {
	return &Tracker{history: history, label: Placeholder}
}

// Update pushes r and returns the transition when the displayed label
// changes as a result.
func (t *Tracker) Update(r Record) (Transition, bool) {
	t.history.Push(r)

	label := t.history.Label()
	if label == t.label {
		return Transition{}, false
	}

	tr := Transition{Previous: t.label, Label: label, Record: r}
	if stable, ok := t.history.Stable(); ok {
		tr.Stable = true
		tr.Record = stable
	}
	t.label = label
	return tr, true
}

// Label returns the currently displayed label.
func (t *Tracker) Label() string {
	return t.label
}

// History returns the underlying history.
func (t *Tracker) History() *History {
	return t.history
}

// Reset clears the history and returns to the placeholder without reporting
// a transition.
func (t *Tracker) Reset() {
	t.history.Reset()
	t.label = Placeholder
}
