// Package search provides web search for the lead generation crew, backed by
// the Serper.dev Google search API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/leadscout-ai/leadscout/pkg/errors"
	"github.com/leadscout-ai/leadscout/pkg/resilience"
)

// Result is a single organic search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"link"`
	Snippet string `json:"snippet"`
}

// Searcher executes a web search query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// SerperClient implements Searcher against the Serper.dev API.
type SerperClient struct {
	apiKey     string
	baseURL    string
	maxResults int
	client     *http.Client
	retry      resilience.RetryConfig
}

// SerperOption configures a SerperClient.
type SerperOption func(*SerperClient)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(url string) SerperOption {
	return func(c *SerperClient) { c.baseURL = url }
}

// WithMaxResults caps the number of organic results requested per query.
func WithMaxResults(n int) SerperOption {
	return func(c *SerperClient) { c.maxResults = n }
}

// WithRetry overrides the retry policy.
func WithRetry(rc resilience.RetryConfig) SerperOption {
	return func(c *SerperClient) { c.retry = rc }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) SerperOption {
	return func(c *SerperClient) { c.client = hc }
}

// NewSerper creates a Serper.dev search client.
func NewSerper(apiKey string, opts ...SerperOption) *SerperClient {
	c := &SerperClient{
		apiKey:     apiKey,
		baseURL:    "https://google.serper.dev",
		maxResults: 5,
		client:     &http.Client{Timeout: 30 * time.Second},
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num,omitempty"`
}

type serperResponse struct {
	Organic []Result `json:"organic"`
}

// Search runs the query and returns the organic results. Transient failures
// (429, 5xx, network errors) are retried with backoff.
func (c *SerperClient) Search(ctx context.Context, query string) ([]Result, error) {
	if query == "" {
		return nil, errors.New(errors.CodeInvalidInput, "search query is empty", nil)
	}
	if c.apiKey == "" {
		return nil, errors.New(errors.CodeUnauthorized, "serper api key is not configured", nil)
	}

	value, err := c.retry.DoWithResult(ctx, func() (interface{}, error) {
		return c.search(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	results, _ := value.([]Result)
	return results, nil
}

func (c *SerperClient) search(ctx context.Context, query string) ([]Result, error) {
	body, err := json.Marshal(serperRequest{Query: query, Num: c.maxResults})
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "failed to marshal search request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "failed to create search request", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.New(errors.CodeSearchFailure, "serper request failed", err).
			WithRecoverable(true)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.New(errors.CodeUnauthorized, "serper rejected the api key", nil).
			WithContext("status", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.New(errors.CodeRateLimit, "serper rate limited", nil).
			WithRecoverable(true)
	case resp.StatusCode >= 500:
		return nil, errors.New(errors.CodeSearchFailure, "serper server error", nil).
			WithContext("status", resp.StatusCode).
			WithRecoverable(true)
	default:
		return nil, errors.New(errors.CodeSearchFailure, "serper returned unexpected status", nil).
			WithContext("status", resp.StatusCode)
	}

	var sResp serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sResp); err != nil {
		return nil, errors.New(errors.CodeSearchFailure, "failed to decode serper response", err)
	}
	if len(sResp.Organic) > c.maxResults && c.maxResults > 0 {
		sResp.Organic = sResp.Organic[:c.maxResults]
	}
	return sResp.Organic, nil
}

// Format renders results as plain text suitable for injection into a prompt.
func Format(results []Result) string {
	if len(results) == 0 {
		return "No search results found."
	}
	var b strings.Builder
	for _, r := range results {
		b.WriteString("Title: " + r.Title + "\n")
		b.WriteString("URL: " + r.URL + "\n")
		b.WriteString("Snippet: " + r.Snippet + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// MockSearcher is a testing implementation of Searcher.
type MockSearcher struct {
	Results []Result
	Err     error
	// Queries records every query received, in order.
	Queries []string
}

func (m *MockSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Results, nil
}
