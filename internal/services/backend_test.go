package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pdfqa/internal/middleware"
	"pdfqa/internal/models"
)

func TestIndexPDF_SendsMultipartFile(t *testing.T) {
	var gotName, gotBody, gotType, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != IndexPath {
			t.Errorf("Expected POST %s, got %s %s", IndexPath, r.Method, r.URL.Path)
		}
		gotRequestID = r.Header.Get(middleware.RequestIDHeader)

		file, header, err := r.FormFile(UploadField)
		if err != nil {
			t.Errorf("Expected a %q part: %v", UploadField, err)
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		defer file.Close()
		b, _ := io.ReadAll(file)
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotBody = string(b)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"chunks_indexed": 7}`))
	}))
	defer srv.Close()

	client := NewBackendClient(srv.URL+"/", 0)
	resp, err := client.IndexPDF(context.Background(), `lecture "one".pdf`, strings.NewReader("%PDF-1.4 body"))
	if err != nil {
		t.Fatalf("IndexPDF error: %v", err)
	}

	if resp.ChunksIndexed != 7 {
		t.Errorf("Expected 7 chunks, got %d", resp.ChunksIndexed)
	}
	if gotName != `lecture "one".pdf` {
		t.Errorf("Expected filename to round-trip, got %q", gotName)
	}
	if gotType != "application/pdf" {
		t.Errorf("Expected application/pdf part, got %q", gotType)
	}
	if gotBody != "%PDF-1.4 body" {
		t.Errorf("Expected file content to round-trip, got %q", gotBody)
	}
	if gotRequestID == "" {
		t.Error("Expected an X-Request-ID header")
	}
}

func TestAskQuestion_SendsJSON(t *testing.T) {
	var got models.QARequest
	var gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != QAPath {
			t.Errorf("Expected %s, got %s", QAPath, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}
		gotRequestID = r.Header.Get(middleware.RequestIDHeader)
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"plan":"step1","answer":"42","sub_questions":["a","b"]}`))
	}))
	defer srv.Close()

	ctx := middleware.WithRequestID(context.Background(), "req-1")
	resp, err := NewBackendClient(srv.URL, 0).AskQuestion(ctx, models.QARequest{Question: "why?", EnablePlanning: true})
	if err != nil {
		t.Fatalf("AskQuestion error: %v", err)
	}

	if got.Question != "why?" || !got.EnablePlanning {
		t.Errorf("Unexpected request payload: %+v", got)
	}
	if gotRequestID != "req-1" {
		t.Errorf("Expected request id from context, got %q", gotRequestID)
	}
	if resp.Plan != "step1" || resp.Answer != "42" {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if string(resp.SubQuestions) != `["a","b"]` {
		t.Errorf("Expected raw sub_questions, got %s", resp.SubQuestions)
	}
}

func TestBackendClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			check: func(t *testing.T, err error) {
				var se *StatusError
				if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError || se.Body != "boom" {
					t.Errorf("Expected StatusError 500 boom, got %v", err)
				}
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>oops</html>"))
			},
			check: func(t *testing.T, err error) {
				var de *DecodeError
				if !errors.As(err, &de) {
					t.Errorf("Expected DecodeError, got %v", err)
				}
			},
		},
		{
			name: "null body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("null"))
			},
			check: func(t *testing.T, err error) {
				var de *DecodeError
				if !errors.As(err, &de) {
					t.Errorf("Expected DecodeError, got %v", err)
				}
			},
		},
		{
			name: "wrong shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"answer": 12}`))
			},
			check: func(t *testing.T, err error) {
				var de *DecodeError
				if !errors.As(err, &de) {
					t.Errorf("Expected DecodeError, got %v", err)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := NewBackendClient(srv.URL, 0).AskQuestion(context.Background(), models.QARequest{Question: "q"})
			if err == nil {
				t.Fatal("Expected an error")
			}
			tc.check(t, err)
		})
	}
}

func TestBackendClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewBackendClient(url, time.Second).IndexPDF(context.Background(), "a.pdf", strings.NewReader("x"))
	if err == nil {
		t.Fatal("Expected a transport error")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Errorf("Transport error should not be a StatusError: %v", err)
	}
}

func TestBackendClient_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBackendClient(srv.URL, 0).AskQuestion(ctx, models.QARequest{Question: "q"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
