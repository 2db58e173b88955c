package tui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"pdfqa/internal/controller"
	"pdfqa/internal/models"
)

type stubBackend struct {
	gotFile  string
	gotQA    models.QARequest
	indexErr error
	askResp  *models.QAResponse
}

func (s *stubBackend) IndexPDF(ctx context.Context, filename string, content io.Reader) (*models.IndexResponse, error) {
	b, _ := io.ReadAll(content)
	s.gotFile = filename + ":" + string(b)
	if s.indexErr != nil {
		return nil, s.indexErr
	}
	return &models.IndexResponse{ChunksIndexed: 3}, nil
}

func (s *stubBackend) AskQuestion(ctx context.Context, req models.QARequest) (*models.QAResponse, error) {
	s.gotQA = req
	if s.askResp == nil {
		return nil, errors.New("backend down")
	}
	return s.askResp, nil
}

func newTestModel(backend *stubBackend) (Model, *controller.Display) {
	display := controller.NewDisplay(true)
	m := New(context.Background(), controller.New(backend, display), display, Options{
		BackendURL: "http://backend.test",
		Planning:   true,
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model), display
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// runAction executes the controller call a submit returned and feeds the
// result back, the way the program loop does.
func runAction(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("Expected a command")
	}
	msg := cmd()
	if _, ok := msg.(actionDoneMsg); !ok {
		t.Fatalf("Expected actionDoneMsg, got %T", msg)
	}
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func writeTempPDF(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.pdf")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestIndex_NoFileNotifies(t *testing.T) {
	m, _ := newTestModel(&stubBackend{})

	m, cmd := press(t, m, keyEnter)
	m = runAction(t, m, cmd)

	if len(m.notices) != 1 || m.notices[0] != controller.MsgSelectFile {
		t.Fatalf("Unexpected notices: %v", m.notices)
	}
	if !strings.Contains(m.View(), "! "+controller.MsgSelectFile) {
		t.Error("Expected notice shown")
	}

	// input is blocked until the notice is dismissed
	m, _ = press(t, m, keyRunes("a"))
	if m.fileInput.Value() != "" {
		t.Errorf("Expected key swallowed, got %q", m.fileInput.Value())
	}
	m, _ = press(t, m, keyEnter)
	if len(m.notices) != 0 {
		t.Errorf("Expected notice dismissed, got %v", m.notices)
	}
}

func TestIndex_SuccessResetsInput(t *testing.T) {
	backend := &stubBackend{}
	m, display := newTestModel(backend)
	m.fileInput.SetValue(writeTempPDF(t, "%PDF-1.4"))

	m, cmd := press(t, m, keyEnter)
	m = runAction(t, m, cmd)

	if backend.gotFile != "notes.pdf:%PDF-1.4" {
		t.Errorf("Unexpected upload: %q", backend.gotFile)
	}
	if m.fileInput.Value() != "" {
		t.Errorf("Expected input reset, got %q", m.fileInput.Value())
	}
	if len(m.notices) != 1 || m.notices[0] != "Indexed 3 chunks" {
		t.Errorf("Unexpected notices: %v", m.notices)
	}
	if s := display.Snapshot(); s.IndexPending || s.IndexLabel != controller.LabelIndex {
		t.Errorf("Expected controls restored, got %+v", s)
	}
}

func TestIndex_FailureKeepsInput(t *testing.T) {
	m, _ := newTestModel(&stubBackend{indexErr: errors.New("500")})
	path := writeTempPDF(t, "x")
	m.fileInput.SetValue(path)

	m, cmd := press(t, m, keyEnter)
	m = runAction(t, m, cmd)

	if m.fileInput.Value() != path {
		t.Errorf("Expected input kept, got %q", m.fileInput.Value())
	}
	if len(m.notices) != 1 || m.notices[0] != controller.MsgIndexFailed {
		t.Errorf("Unexpected notices: %v", m.notices)
	}
}

func TestAsk_RendersRegions(t *testing.T) {
	backend := &stubBackend{askResp: &models.QAResponse{
		Plan:         "step one",
		Answer:       "forty two",
		SubQuestions: json.RawMessage(`["first","second"]`),
	}}
	m, _ := newTestModel(backend)

	m, _ = press(t, m, keyTab)
	for _, r := range "why?" {
		m, _ = press(t, m, keyRunes(string(r)))
	}
	m, cmd := press(t, m, keyEnter)
	m = runAction(t, m, cmd)

	if backend.gotQA.Question != "why?" || !backend.gotQA.EnablePlanning {
		t.Errorf("Unexpected request: %+v", backend.gotQA)
	}
	view := m.View()
	for _, want := range []string{"step one", "1. first", "2. second", "forty"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}
	if m.questionInput.Value() != "why?" {
		t.Errorf("Expected question kept, got %q", m.questionInput.Value())
	}
}

func TestAsk_PlanningToggle(t *testing.T) {
	backend := &stubBackend{askResp: &models.QAResponse{Answer: "ok"}}
	m, _ := newTestModel(backend)

	m, _ = press(t, m, keyTab)
	m.questionInput.SetValue("q")
	m, _ = press(t, m, keyTab)
	m, _ = press(t, m, keySpace)
	if m.planning {
		t.Fatal("Expected planning toggled off")
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})

	m, cmd := press(t, m, keyEnter)
	m = runAction(t, m, cmd)

	if backend.gotQA.EnablePlanning {
		t.Error("Expected planning flag false")
	}
	if !strings.Contains(m.View(), controller.PlanningDisabled) {
		t.Error("Expected placeholder plan in view")
	}
}

func TestAsk_SpaceTypesIntoQuestion(t *testing.T) {
	m, _ := newTestModel(&stubBackend{})

	m, _ = press(t, m, keyTab)
	m, _ = press(t, m, keyRunes("a"))
	m, _ = press(t, m, keySpace)
	m, _ = press(t, m, keyRunes("b"))

	if m.questionInput.Value() != "a b" {
		t.Errorf("Expected %q, got %q", "a b", m.questionInput.Value())
	}
	if !m.planning {
		t.Error("Planning should only toggle when focused")
	}
}

func TestPendingInputIgnoresKeys(t *testing.T) {
	m, display := newTestModel(&stubBackend{})
	display.SetIndexPending(true, controller.LabelIndexing)

	m, _ = press(t, m, keyRunes("x"))

	if m.fileInput.Value() != "" {
		t.Errorf("Expected no edit while pending, got %q", m.fileInput.Value())
	}
	if !strings.Contains(m.View(), controller.LabelIndexing) {
		t.Error("Expected pending label in view")
	}
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{{Type: tea.KeyCtrlC}, {Type: tea.KeyEsc}} {
		t.Run(key.String(), func(t *testing.T) {
			m, _ := newTestModel(&stubBackend{})
			_, cmd := press(t, m, key)
			if cmd == nil {
				t.Fatal("Expected quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("Expected tea.QuitMsg")
			}
		})
	}
}

func TestRenderResults_ContextRegion(t *testing.T) {
	display := controller.NewDisplay(true)
	display.SetContext("chunk text")

	hidden := New(context.Background(), nil, display, Options{})
	if strings.Contains(hidden.renderResults(display.Snapshot()), "chunk text") {
		t.Error("Context should be hidden by default")
	}

	shown := New(context.Background(), nil, display, Options{ShowContext: true})
	if !strings.Contains(shown.renderResults(display.Snapshot()), "chunk text") {
		t.Error("Expected context rendered")
	}
}

func TestIndex_EnterWhileInFlightIsIgnored(t *testing.T) {
	backend := &stubBackend{}
	m, display := newTestModel(backend)
	m.fileInput.SetValue(writeTempPDF(t, "%PDF-1.4"))

	m, first := press(t, m, keyEnter)
	if first == nil {
		t.Fatal("Expected a command")
	}

	m.fileInput.SetValue(filepath.Join(t.TempDir(), "other.pdf"))
	m, second := press(t, m, keyEnter)
	if second != nil {
		t.Error("Expected no second submit while the first is in flight")
	}
	if got := display.Snapshot().SelectedFile; got != "notes.pdf" {
		t.Errorf("Expected selection kept, got %q", got)
	}

	m = runAction(t, m, first)
	if m.indexing {
		t.Error("Expected in-flight flag cleared")
	}
	if backend.gotFile != "notes.pdf:%PDF-1.4" {
		t.Errorf("Unexpected upload: %q", backend.gotFile)
	}
}

func TestAsk_EnterWhileInFlightIsIgnored(t *testing.T) {
	m, display := newTestModel(&stubBackend{askResp: &models.QAResponse{Answer: "ok"}})
	m, _ = press(t, m, keyTab)
	m.questionInput.SetValue("first")

	m, first := press(t, m, keyEnter)
	m.questionInput.SetValue("second")
	m, second := press(t, m, keyEnter)

	if second != nil {
		t.Error("Expected no second submit while the first is in flight")
	}
	if got := display.Snapshot().Question; got != "first" {
		t.Errorf("Expected question kept, got %q", got)
	}
	m = runAction(t, m, first)
	if m.asking {
		t.Error("Expected in-flight flag cleared")
	}
}
