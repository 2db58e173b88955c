package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pdfqa/internal/middleware"
	"pdfqa/internal/models"
)

const (
	IndexPath = "/index-pdf"
	QAPath    = "/qa"

	// multipart part that carries the pdf
	UploadField = "file"

	maxErrorBody = 1024
)

// BackendClient talks to the indexing and QA endpoints. One call is one
// attempt: no retry, no backoff.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendClient builds a client for baseURL. A zero timeout means
// requests run until the backend answers or ctx is done.
func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	return &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *BackendClient) BaseURL() string { return c.baseURL }

// IndexPDF uploads content as the "file" part of a multipart form.
func (c *BackendClient) IndexPDF(ctx context.Context, filename string, content io.Reader) (*models.IndexResponse, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", filename, err)
	}

	fields := logrus.Fields{"file": filename, "bytes": len(data)}
	if info, err := InspectPDF(data); err != nil {
		fields["error"] = err.Error()
		logrus.WithFields(fields).Warn("upload does not look like a readable pdf, sending anyway")
	} else {
		fields["pages"] = info.Pages
		logrus.WithFields(fields).Debug("inspected upload")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, UploadField, escapeQuotes(filename)))
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+IndexPath, &body)
	if err != nil {
		return nil, fmt.Errorf("create index request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out models.IndexResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AskQuestion posts the question and planning flag as JSON.
func (c *BackendClient) AskQuestion(ctx context.Context, qa models.QARequest) (*models.QAResponse, error) {
	payload, err := json.Marshal(qa)
	if err != nil {
		return nil, fmt.Errorf("marshal qa request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+QAPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create qa request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out models.QAResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping reports whether the backend answers HTTP at all. Any status counts.
func (c *BackendClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *BackendClient) do(req *http.Request, out interface{}) error {
	requestID := middleware.GetRequestID(req.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(middleware.RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	log := logrus.WithFields(logrus.Fields{
		"method":     req.Method,
		"path":       req.URL.Path,
		"request_id": requestID,
	})
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("backend request failed")
		return fmt.Errorf("post %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	log = log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn("backend returned non-2xx status")
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		log.WithError(err).Warn("backend response is not json")
		return &DecodeError{Err: err}
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		log.Warn("backend response is null")
		return &DecodeError{Err: errors.New("response body is null")}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.WithError(err).Warn("backend response has unexpected shape")
		return &DecodeError{Err: err}
	}

	log.Debug("backend request done")
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
