// Package controller binds the two user actions, indexing a PDF and asking
// a question, to the backend and reflects every outcome into a View.
//
// Each action is a single attempt. Whatever happens, the controls touched
// on entry are restored before the action returns.
package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"pdfqa/internal/models"
)

const (
	LabelIndex    = "Index PDF"
	LabelIndexing = "Indexing..."

	MsgSelectFile     = "Please select a PDF file"
	MsgIndexFailed    = "Failed to index PDF"
	MsgEnterQuestion  = "Please enter a question"
	MsgQuestionFailed = "Error while processing the question"

	PlanningDisabled = "Planning disabled"

	OpIndex = "index-pdf"
	OpAsk   = "qa"
)

// Backend is the pair of calls the controller needs.
type Backend interface {
	IndexPDF(ctx context.Context, filename string, content io.Reader) (*models.IndexResponse, error)
	AskQuestion(ctx context.Context, req models.QARequest) (*models.QAResponse, error)
}

type Controller struct {
	backend Backend
	view    View

	indexing atomic.Bool
	asking   atomic.Bool
}

func New(backend Backend, view View) *Controller {
	return &Controller{backend: backend, view: view}
}

// SubmitIndex uploads the selected file to the indexing endpoint.
func (c *Controller) SubmitIndex(ctx context.Context, upload *Upload) error {
	if upload == nil {
		c.view.Notify(MsgSelectFile)
		return &ValidationError{Message: MsgSelectFile}
	}
	if !c.indexing.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.indexing.Store(false)

	c.view.SetIndexPending(true, LabelIndexing)
	defer c.view.SetIndexPending(false, LabelIndex)

	resp, err := c.index(ctx, upload)
	if err != nil {
		logrus.WithFields(logrus.Fields{"op": OpIndex, "file": upload.Name}).WithError(err).Warn("indexing failed")
		c.view.Notify(MsgIndexFailed)
		return &RequestError{Op: OpIndex, Err: err}
	}

	logrus.WithFields(logrus.Fields{"op": OpIndex, "file": upload.Name, "chunks": resp.ChunksIndexed}).Info("pdf indexed")
	c.view.Notify(fmt.Sprintf("Indexed %d chunks", resp.ChunksIndexed))
	c.view.ClearFileSelection()
	return nil
}

func (c *Controller) index(ctx context.Context, upload *Upload) (*models.IndexResponse, error) {
	f, err := upload.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", upload.Name, err)
	}
	defer f.Close()

	return c.backend.IndexPDF(ctx, upload.Name, f)
}

// SubmitQuestion sends question to the QA endpoint and replaces the plan,
// answer, context and sub-question regions with the result. The question
// is sent as typed; trimming only decides whether it is empty.
func (c *Controller) SubmitQuestion(ctx context.Context, question string, enablePlanning bool) error {
	if strings.TrimSpace(question) == "" {
		c.view.Notify(MsgEnterQuestion)
		return &ValidationError{Message: MsgEnterQuestion}
	}
	if !c.asking.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.asking.Store(false)

	c.view.SetPlan("")
	c.view.SetAnswer("")
	c.view.SetContext("")
	c.view.SetQuestionPending(true)
	defer c.view.SetQuestionPending(false)

	resp, err := c.backend.AskQuestion(ctx, models.QARequest{
		Question:       question,
		EnablePlanning: enablePlanning,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"op": OpAsk, "planning": enablePlanning}).WithError(err).Warn("question failed")
		c.view.Notify(MsgQuestionFailed)
		return &RequestError{Op: OpAsk, Err: err}
	}

	subQuestions := FormatSubQuestions(resp.SubQuestions)
	logrus.WithFields(logrus.Fields{"op": OpAsk, "planning": enablePlanning, "sub_questions": len(subQuestions)}).Info("question answered")

	c.view.SetPlan(PlanText(resp.Plan))
	c.view.SetAnswer(resp.Answer)
	c.view.SetContext(resp.Context)
	c.view.SetSubQuestions(subQuestions)
	return nil
}

// PlanText is what the plan region shows for a response plan.
func PlanText(plan string) string {
	if plan == "" {
		return PlanningDisabled
	}
	return plan
}

// FormatSubQuestions numbers the entries of a JSON array from 1. Anything
// that is not an array renders as no entries. Non-string entries render as
// their JSON text.
func FormatSubQuestions(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		text := strings.TrimSpace(string(item))
		if strings.HasPrefix(text, `"`) {
			_ = json.Unmarshal(item, &text)
		}
		out = append(out, fmt.Sprintf("%d. %s", i+1, text))
	}
	return out
}
