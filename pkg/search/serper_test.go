package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leadscout-ai/leadscout/pkg/errors"
	"github.com/leadscout-ai/leadscout/pkg/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.DefaultRetryConfig().WithInitialDelay(time.Millisecond)
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/search" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-KEY") != "test-key" {
			t.Errorf("missing api key header")
		}
		w.Write([]byte(`{"organic":[
			{"title":"Acme Fintech","link":"https://acme.example","snippet":"Payments platform."},
			{"title":"Beta Pay","link":"https://beta.example","snippet":"B2B payments."}
		]}`))
	}))
	defer srv.Close()

	c := NewSerper("test-key", WithBaseURL(srv.URL), WithRetry(fastRetry()))
	results, err := c.Search(context.Background(), "fintech companies in Germany")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "Acme Fintech" || results[0].URL != "https://acme.example" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
}

func TestSearchRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"organic":[{"title":"T","link":"https://t","snippet":"s"}]}`))
	}))
	defer srv.Close()

	c := NewSerper("test-key", WithBaseURL(srv.URL), WithRetry(fastRetry()))
	results, err := c.Search(context.Background(), "query")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestSearchUnauthorizedIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewSerper("bad-key", WithBaseURL(srv.URL), WithRetry(fastRetry()))
	_, err := c.Search(context.Background(), "query")
	if !errors.IsCode(err, errors.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	c := NewSerper("key")
	_, err := c.Search(context.Background(), "")
	if !errors.IsCode(err, errors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestSearchMissingAPIKey(t *testing.T) {
	c := NewSerper("")
	_, err := c.Search(context.Background(), "query")
	if !errors.IsCode(err, errors.CodeUnauthorized) {
		t.Errorf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestSearchCapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"organic":[
			{"title":"1"},{"title":"2"},{"title":"3"},{"title":"4"}
		]}`))
	}))
	defer srv.Close()

	c := NewSerper("key", WithBaseURL(srv.URL), WithMaxResults(2), WithRetry(fastRetry()))
	results, err := c.Search(context.Background(), "query")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected results capped at 2, got %d", len(results))
	}
}

func TestFormat(t *testing.T) {
	got := Format([]Result{
		{Title: "Acme", URL: "https://acme.example", Snippet: "Payments."},
	})
	for _, want := range []string{"Title: Acme", "URL: https://acme.example", "Snippet: Payments."} {
		if !strings.Contains(got, want) {
			t.Errorf("Format output missing %q:\n%s", want, got)
		}
	}

	if Format(nil) != "No search results found." {
		t.Errorf("unexpected empty format: %q", Format(nil))
	}
}
