package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"pdfqa/internal/controller"
	"pdfqa/internal/models"
)

const (
	msgIndexBusy = "Indexing already in progress"
	msgAskBusy   = "A question is already being processed"

	multipartMemory = 32 << 20
)

// Submitter is the controller surface the page drives.
type Submitter interface {
	SubmitIndex(ctx context.Context, upload *controller.Upload) error
	SubmitQuestion(ctx context.Context, question string, enablePlanning bool) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// PageHandler serves the local page. Every form post runs the controller
// and redirects back to the page, which renders the shared display.
type PageHandler struct {
	submitter   Submitter
	display     *controller.Display
	backend     pinger
	backendURL  string
	showContext bool
	maxUpload   int64
	live        bool
}

func NewPageHandler(submitter Submitter, display *controller.Display, backend pinger, backendURL string, showContext bool, maxUpload int64) *PageHandler {
	return &PageHandler{
		submitter:   submitter,
		display:     display,
		backend:     backend,
		backendURL:  backendURL,
		showContext: showContext,
		maxUpload:   maxUpload,
	}
}

// SetLive makes the page subscribe to /ws for display updates.
func (h *PageHandler) SetLive(live bool) { h.live = live }

// Page renders the display and consumes its pending notifications.
func (h *PageHandler) Page(w http.ResponseWriter, r *http.Request) {
	state := h.display.Snapshot()
	state.Notifications = h.display.TakeNotifications()

	htmlBytes, err := RenderPage(PageData{
		DisplayState: state,
		ShowContext:  h.showContext,
		Backend:      h.backendURL,
		Live:         h.live,
	})
	if err != nil {
		logrus.WithError(err).Error("failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(htmlBytes)
}

// IndexPDF handles the index form. A missing or empty file part is "no
// file selected" and is left to the controller to report.
func (h *PageHandler) IndexPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File exceeds the upload limit", r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid form body", r))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	var upload *controller.Upload
	file, header, err := r.FormFile("file")
	if err == nil {
		file.Close()
		if header.Filename != "" {
			upload = headerUpload(header)
			h.display.SelectFile(header.Filename)
		}
	}

	if err := h.submitter.SubmitIndex(r.Context(), upload); errors.Is(err, controller.ErrBusy) {
		h.display.Notify(msgIndexBusy)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func headerUpload(header *multipart.FileHeader) *controller.Upload {
	return &controller.Upload{
		Name: header.Filename,
		Open: func() (io.ReadCloser, error) { return header.Open() },
	}
}

// Ask handles the question form. The checkbox posts "on" when ticked.
func (h *PageHandler) Ask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid form body", r))
		return
	}

	question := r.PostFormValue("question")
	planning := r.PostFormValue("enable_planning") != ""
	h.display.SetQuestion(question, planning)

	if err := h.submitter.SubmitQuestion(r.Context(), question, planning); errors.Is(err, controller.ErrBusy) {
		h.display.Notify(msgAskBusy)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Health reports the page is up and whether the backend answers.
func (h *PageHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "reachable"
	if err := h.backend.Ping(ctx); err != nil {
		status = "unreachable"
	}
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok", Backend: status})
}
