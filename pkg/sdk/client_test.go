package ragdex

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSubmitJob_OK(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/jobs" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"indexed"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, WithAPIKey("secret"))
	err := client.SubmitJob(context.Background(), Job{
		Bucket:   "docs-bucket",
		FilePath: "reports/q3.pdf",
		Page:     2,
		TenantID: "acme",
	})
	if err != nil {
		t.Fatalf("SubmitJob: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("auth header: got %q", gotAuth)
	}
	if gotBody["file_path"] != "reports/q3.pdf" {
		t.Errorf("file_path: got %v", gotBody["file_path"])
	}
	if gotBody["page_num"] != float64(2) {
		t.Errorf("page_num: got %v", gotBody["page_num"])
	}
	if gotBody["client_id"] != "acme" {
		t.Errorf("client_id: got %v", gotBody["client_id"])
	}
}

func TestSubmitJob_BlobNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"blob_not_found","message":"blob not found"}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	err := client.SubmitJob(context.Background(), Job{Bucket: "b", FilePath: "missing.pdf", TenantID: "acme"})

	if !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", apiErr.StatusCode, http.StatusNotFound)
	}
}

func TestSubmitJob_ValidationFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"validation_failed","message":"bucket is required"}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	err := client.SubmitJob(context.Background(), Job{})

	if !errors.Is(err, ErrInvalidJob) {
		t.Fatalf("expected ErrInvalidJob, got %v", err)
	}
}

func TestQuery_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/query" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["query"] != "what were q3 revenues?" {
			t.Errorf("query: got %v", body["query"])
		}
		if body["session_id"] != "sess-1" {
			t.Errorf("session_id: got %v", body["session_id"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"42 million","context_used":"[Source: q3.pdf, Page: 2]\nrevenues were 42M"}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	res, err := client.Query(context.Background(), Question{
		Text:      "what were q3 revenues?",
		TenantID:  "acme",
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if res.Answer != "42 million" {
		t.Errorf("answer: got %q", res.Answer)
	}
	if res.ContextUsed == "" {
		t.Error("expected non-empty context_used")
	}
}

func TestQuery_ValidationFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"validation_failed","message":"query text is required"}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Query(context.Background(), Question{})

	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestQuery_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"code":"rate_limited","message":"rate limited"}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Query(context.Background(), Question{Text: "q", TenantID: "t", SessionID: "s"})

	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestQuery_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Query(context.Background(), Question{Text: "q", TenantID: "t", SessionID: "s"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("status: got %d, want %d", apiErr.StatusCode, http.StatusBadGateway)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded","checks":{"database":"error","embedding":"ok"}}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	hs, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}

	if hs.Status != "degraded" {
		t.Errorf("status: got %q", hs.Status)
	}
	if hs.Checks["database"] != "error" {
		t.Errorf("database check: got %q", hs.Checks["database"])
	}
}
