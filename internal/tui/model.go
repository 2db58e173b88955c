// Package tui is the interactive terminal front-end. It owns the input
// controls; the controller owns everything that is displayed.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/sirupsen/logrus"

	"pdfqa/internal/controller"
)

type focus int

const (
	focusFile focus = iota
	focusQuestion
	focusPlanning
	focusCount
)

const (
	headerHeight = 7
	footerHeight = 3
)

// Submitter is the controller surface the terminal drives.
type Submitter interface {
	SubmitIndex(ctx context.Context, upload *controller.Upload) error
	SubmitQuestion(ctx context.Context, question string, enablePlanning bool) error
}

type Options struct {
	BackendURL  string
	ShowContext bool
	Planning    bool
}

// actionDoneMsg arrives when a controller call returns.
type actionDoneMsg struct {
	op  string
	err error
}

type Model struct {
	ctx     context.Context
	ctrl    Submitter
	display *controller.Display
	opts    Options

	// UI Components
	fileInput     textinput.Model
	questionInput textinput.Model
	spinner       spinner.Model
	viewport      viewport.Model
	renderer      *glamour.TermRenderer

	// State
	indexing     bool // an index submit is dispatched and not yet done
	asking       bool
	planning     bool
	focus        focus
	notices      []string
	selectionSeq int
	width        int
	height       int
	ready        bool
}

func New(ctx context.Context, ctrl Submitter, display *controller.Display, opts Options) Model {
	fileInput := textinput.New()
	fileInput.Placeholder = "path/to/document.pdf"
	fileInput.Prompt = ""
	fileInput.Focus()

	questionInput := textinput.New()
	questionInput.Placeholder = "Ask a question about your documents..."
	questionInput.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:           ctx,
		ctrl:          ctrl,
		display:       display,
		opts:          opts,
		fileInput:     fileInput,
		questionInput: questionInput,
		spinner:       sp,
		planning:      opts.Planning,
		selectionSeq:  display.Snapshot().SelectionSeq,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		vpHeight := msg.Height - headerHeight - footerHeight
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.fileInput.Width = msg.Width - 30
		m.questionInput.Width = msg.Width - 16

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(msg.Width-4),
		)
		if err != nil {
			logrus.WithError(err).Debug("markdown renderer unavailable, showing raw answers")
		} else {
			m.renderer = renderer
		}
		m.refreshResults()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case actionDoneMsg:
		switch msg.op {
		case controller.OpIndex:
			m.indexing = false
		case controller.OpAsk:
			m.asking = false
		}
		m.notices = append(m.notices, m.display.TakeNotifications()...)
		if seq := m.display.Snapshot().SelectionSeq; seq != m.selectionSeq {
			m.selectionSeq = seq
			m.fileInput.Reset()
		}
		if msg.err != nil && !errors.Is(msg.err, controller.ErrBusy) {
			logrus.WithField("op", msg.op).WithError(msg.err).Debug("action finished with error")
		}
		m.refreshResults()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	// a pending notification blocks input until it is dismissed
	if len(m.notices) > 0 {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc, tea.KeySpace:
			m.notices = m.notices[1:]
		}
		return m, nil
	}

	state := m.display.Snapshot()

	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyTab:
		return m, m.setFocus((m.focus + 1) % focusCount)
	case tea.KeyShiftTab:
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyEnter:
		switch m.focus {
		case focusFile:
			if m.indexing {
				return m, nil
			}
			m.indexing = true
			return m, m.submitIndex()
		case focusQuestion:
			if m.asking {
				return m, nil
			}
			m.asking = true
			return m, m.submitQuestion()
		case focusPlanning:
			m.planning = !m.planning
			return m, nil
		}
	case tea.KeySpace:
		if m.focus == focusPlanning {
			m.planning = !m.planning
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusFile:
		if !state.IndexPending && !m.indexing {
			m.fileInput, cmd = m.fileInput.Update(msg)
		}
	case focusQuestion:
		if !state.AskPending && !m.asking {
			m.questionInput, cmd = m.questionInput.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.fileInput.Blur()
	m.questionInput.Blur()
	switch f {
	case focusFile:
		return m.fileInput.Focus()
	case focusQuestion:
		return m.questionInput.Focus()
	}
	return nil
}

func (m Model) submitIndex() tea.Cmd {
	upload := controller.FileUpload(m.fileInput.Value())
	if upload != nil {
		m.display.SelectFile(upload.Name)
	}
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return actionDoneMsg{op: controller.OpIndex, err: ctrl.SubmitIndex(ctx, upload)}
	}
}

func (m Model) submitQuestion() tea.Cmd {
	question, planning := m.questionInput.Value(), m.planning
	m.display.SetQuestion(question, planning)
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return actionDoneMsg{op: controller.OpAsk, err: ctrl.SubmitQuestion(ctx, question, planning)}
	}
}

func (m *Model) refreshResults() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderResults(m.display.Snapshot()))
	m.viewport.GotoTop()
}

// Run starts the program on the alternate screen and blocks until the user
// quits or ctx is done.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
