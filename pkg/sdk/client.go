package ragdex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 120 * time.Second

// Option configures the Client.
type Option interface {
	apply(*Client)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*Client)

func (f optionFunc) apply(c *Client) { f(c) }

// WithAPIKey sets the Bearer token sent with every request.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *Client) {
		c.apiKey = key
	})
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *Client) {
		c.http = hc
	})
}

// Client is the ragdex SDK entry point.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a ragdex Client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c
}

// Job describes one page of one document to index.
type Job struct {
	Bucket   string `json:"bucket"`
	FilePath string `json:"file_path"`
	Page     int    `json:"page_num"`
	TenantID string `json:"client_id"`
}

// Question is a natural-language query scoped to a tenant and session.
type Question struct {
	Text      string `json:"query"`
	TenantID  string `json:"client_id"`
	SessionID string `json:"session_id"`
}

// QueryResult is the generated answer plus the document context the model saw.
type QueryResult struct {
	Answer      string `json:"answer"`
	ContextUsed string `json:"context_used"`
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// SubmitJob indexes one document page. It returns after the page has been
// fetched, chunked, embedded and persisted.
func (c *Client) SubmitJob(ctx context.Context, job Job) error {
	return c.post(ctx, "/v1/jobs", job, nil, ErrInvalidJob)
}

// Query answers a question over the tenant's indexed documents, continuing
// the conversation identified by SessionID.
func (c *Client) Query(ctx context.Context, q Question) (QueryResult, error) {
	var res QueryResult
	if err := c.post(ctx, "/v1/query", q, &res, ErrInvalidQuery); err != nil {
		return QueryResult{}, err
	}
	return res, nil
}

// Health checks the health of all service components. A degraded service
// returns a status without an error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("ragdex: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("ragdex: health request: %w", err)
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		return HealthStatus{}, fmt.Errorf("ragdex: decode health response: %w", err)
	}
	return hs, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any, validationSentinel error) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("ragdex: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("ragdex: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ragdex: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, validationSentinel)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ragdex: decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response, validationSentinel error) error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	// Keep the HTTP status even if the body is not the expected JSON.
	_ = json.NewDecoder(resp.Body).Decode(&body)

	sentinel := sentinelsByCode[body.Code]
	if body.Code == "validation_failed" {
		sentinel = validationSentinel
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       body.Code,
		Message:    body.Message,
		sentinel:   sentinel,
	}
}
