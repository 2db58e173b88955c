package tui

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"pdfqa/internal/controller"
)

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	state := m.display.Snapshot()
	var b strings.Builder

	fmt.Fprintf(&b, "PDF Q&A  (%s)\n\n", m.opts.BackendURL)

	indexBtn := "[ " + state.IndexLabel + " ]"
	if state.IndexPending {
		indexBtn = m.spinner.View() + " " + state.IndexLabel
	}
	fmt.Fprintf(&b, "%s PDF file  %s  %s\n", m.cursor(focusFile), m.fileInput.View(), indexBtn)
	if state.SelectedFile != "" && m.fileInput.Value() == "" {
		fmt.Fprintf(&b, "            last selected: %s\n", state.SelectedFile)
	} else {
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s Question  %s\n", m.cursor(focusQuestion), m.questionInput.View())

	check := " "
	if m.planning {
		check = "x"
	}
	fmt.Fprintf(&b, "%s [%s] Enable planning", m.cursor(focusPlanning), check)
	if state.AskPending {
		fmt.Fprintf(&b, "    %s Thinking...", m.spinner.View())
	}
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")

	if len(m.notices) > 0 {
		fmt.Fprintf(&b, "! %s  (enter to dismiss)", m.notices[0])
	} else {
		b.WriteString("tab focus • enter submit • space toggle planning • pgup/pgdn scroll • esc quit")
	}
	return b.String()
}

func (m Model) cursor(f focus) string {
	if m.focus == f {
		return ">"
	}
	return " "
}

// renderResults lays out the result regions for the viewport.
func (m Model) renderResults(state controller.DisplayState) string {
	var b strings.Builder

	b.WriteString("Plan\n")
	b.WriteString(state.Plan)
	b.WriteString("\n\nSub-questions\n")
	for _, item := range state.SubQuestions {
		b.WriteString(item)
		b.WriteString("\n")
	}

	b.WriteString("\nAnswer\n")
	b.WriteString(m.renderAnswer(state.Answer))

	if m.opts.ShowContext {
		b.WriteString("\n\nContext\n")
		b.WriteString(state.Context)
	}
	return b.String()
}

func (m Model) renderAnswer(answer string) string {
	if answer == "" || m.renderer == nil {
		return answer
	}
	out, err := m.renderer.Render(answer)
	if err != nil {
		logrus.WithError(err).Debug("failed to render answer markdown")
		return answer
	}
	return strings.TrimRight(out, "\n")
}
