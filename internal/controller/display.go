package controller

import "sync"

// View receives every display mutation the controller makes. Display is
// the stock implementation; front-ends render its snapshots.
type View interface {
	// Notify is the blocking user notification (an alert in a browser).
	Notify(message string)
	// SetIndexPending disables or enables the file picker and index button
	// and sets the button label.
	SetIndexPending(pending bool, label string)
	ClearFileSelection()
	// SetQuestionPending disables or enables the question input and ask
	// button and shows or hides the loading indicator.
	SetQuestionPending(pending bool)
	SetPlan(plan string)
	SetAnswer(answer string)
	SetContext(context string)
	SetSubQuestions(items []string)
}

// DisplayState is a point-in-time copy of every display region.
type DisplayState struct {
	IndexLabel    string
	IndexPending  bool
	SelectedFile  string
	SelectionSeq  int
	Question      string
	Planning      bool
	AskPending    bool
	Plan          string
	Answer        string
	Context       string
	SubQuestions  []string
	Notifications []string

	// Version increases with every mutation. OnChange callbacks may run
	// concurrently and out of order; consumers keep the highest Version.
	Version uint64
}

// Display holds the regions and control states shared by a front-end and
// the controller. Safe for concurrent use.
type Display struct {
	mu       sync.Mutex
	state    DisplayState
	onChange func(DisplayState)
}

func NewDisplay(planning bool) *Display {
	return &Display{state: DisplayState{IndexLabel: LabelIndex, Planning: planning}}
}

// OnChange registers fn to receive a snapshot after every mutation. fn runs
// outside the lock on the mutating goroutine, so two mutators may deliver
// out of order; compare Version.
func (d *Display) OnChange(fn func(DisplayState)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = fn
}

// Snapshot copies the current state. Notifications are left in place.
func (d *Display) Snapshot() DisplayState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.copyState()
}

func (d *Display) copyState() DisplayState {
	s := d.state
	s.SubQuestions = append([]string(nil), d.state.SubQuestions...)
	s.Notifications = append([]string(nil), d.state.Notifications...)
	return s
}

func (d *Display) update(apply func(s *DisplayState)) {
	d.mu.Lock()
	apply(&d.state)
	d.state.Version++
	fn := d.onChange
	var snapshot DisplayState
	if fn != nil {
		snapshot = d.copyState()
	}
	d.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}

// TakeNotifications drains pending notifications in arrival order.
func (d *Display) TakeNotifications() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.state.Notifications
	d.state.Notifications = nil
	return n
}

// SelectFile records the file picker's selection.
func (d *Display) SelectFile(name string) {
	d.update(func(s *DisplayState) { s.SelectedFile = name })
}

// SetQuestion records the question input and planning checkbox.
func (d *Display) SetQuestion(question string, planning bool) {
	d.update(func(s *DisplayState) {
		s.Question = question
		s.Planning = planning
	})
}

func (d *Display) Notify(message string) {
	d.update(func(s *DisplayState) { s.Notifications = append(s.Notifications, message) })
}

func (d *Display) SetIndexPending(pending bool, label string) {
	d.update(func(s *DisplayState) {
		s.IndexPending = pending
		s.IndexLabel = label
	})
}

// ClearFileSelection empties the selection and bumps SelectionSeq so
// front-ends holding their own picker state know to reset it.
func (d *Display) ClearFileSelection() {
	d.update(func(s *DisplayState) {
		s.SelectedFile = ""
		s.SelectionSeq++
	})
}

func (d *Display) SetQuestionPending(pending bool) {
	d.update(func(s *DisplayState) { s.AskPending = pending })
}

func (d *Display) SetPlan(plan string) {
	d.update(func(s *DisplayState) { s.Plan = plan })
}

func (d *Display) SetAnswer(answer string) {
	d.update(func(s *DisplayState) { s.Answer = answer })
}

func (d *Display) SetContext(context string) {
	d.update(func(s *DisplayState) { s.Context = context })
}

func (d *Display) SetSubQuestions(items []string) {
	items = append([]string(nil), items...)
	d.update(func(s *DisplayState) { s.SubQuestions = items })
}
