package crew

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/leadscout-ai/leadscout/pkg/errors"
	"github.com/leadscout-ai/leadscout/pkg/llm"
	"github.com/leadscout-ai/leadscout/pkg/prompts"
	"github.com/leadscout-ai/leadscout/pkg/search"
	"github.com/leadscout-ai/leadscout/pkg/telemetry"
)

const finalReport = "Here are the qualified leads.\n" +
	"```json\n" +
	`[
  {"company_name": "Acme Pay", "website_url": "https://acmepay.example", "score": 7.5},
  {"company_name": "Berlin Ledger", "website_url": "https://bl.example", "score": 9.0}
]` + "\n```\n"

func loadRegistry(t *testing.T) *prompts.Registry {
	t.Helper()
	reg, err := prompts.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return reg
}

func TestKickoffRunsAllStagesInOrder(t *testing.T) {
	scripted := llm.NewScripted(
		"lead generation output",
		"contact research output",
		"qualification output",
		finalReport,
	)
	c, err := New(loadRegistry(t), scripted, WithModel("gpt-4o-mini"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := c.Kickoff(context.Background(), Inputs{Industry: "fintech", Country: "Germany"})
	if err != nil {
		t.Fatalf("Kickoff failed: %v", err)
	}

	if out.RunID == "" {
		t.Error("expected a run id")
	}
	wantTasks := []string{
		prompts.TaskLeadGeneration,
		prompts.TaskContactResearch,
		prompts.TaskLeadQualification,
		prompts.TaskSalesManagement,
	}
	if len(out.Steps) != len(wantTasks) {
		t.Fatalf("steps = %d, want %d", len(out.Steps), len(wantTasks))
	}
	for i, want := range wantTasks {
		if out.Steps[i].TaskID != want {
			t.Errorf("step %d = %q, want %q", i, out.Steps[i].TaskID, want)
		}
	}
	if out.Raw != finalReport {
		t.Errorf("raw output should be the sales manager output")
	}
	if out.Usage.Model != "gpt-4o-mini" {
		t.Errorf("usage model = %q", out.Usage.Model)
	}
	if out.Usage.TotalTokens == 0 {
		t.Error("expected accumulated token usage")
	}
}

func TestKickoffParsesAndRanksLeads(t *testing.T) {
	scripted := llm.NewScripted("a", "b", "c", finalReport)
	c, err := New(loadRegistry(t), scripted)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := c.Kickoff(context.Background(), Inputs{Industry: "fintech", Country: "Germany"})
	if err != nil {
		t.Fatalf("Kickoff failed: %v", err)
	}
	if len(out.Leads) != 2 {
		t.Fatalf("leads = %d, want 2", len(out.Leads))
	}
	if out.Leads[0].CompanyName != "Berlin Ledger" {
		t.Errorf("expected leads sorted by score desc, got %q first", out.Leads[0].CompanyName)
	}
}

func TestKickoffPassesContextBetweenStages(t *testing.T) {
	scripted := llm.NewScripted("GENERATED-LEADS", "CONTACTS", "QUALIFIED", finalReport)
	c, err := New(loadRegistry(t), scripted)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := c.Kickoff(context.Background(), Inputs{Industry: "fintech", Country: "Germany"}); err != nil {
		t.Fatalf("Kickoff failed: %v", err)
	}

	// Contact research sees lead generation output.
	contact := scripted.Requests[1].Messages[1].Content
	if !strings.Contains(contact, "GENERATED-LEADS") {
		t.Error("contact research prompt missing lead generation output")
	}
	// Qualification sees both earlier outputs.
	qual := scripted.Requests[2].Messages[1].Content
	if !strings.Contains(qual, "GENERATED-LEADS") || !strings.Contains(qual, "CONTACTS") {
		t.Error("qualification prompt missing prior context")
	}
	// Sales management sees qualification output but not the raw contacts.
	sales := scripted.Requests[3].Messages[1].Content
	if !strings.Contains(sales, "QUALIFIED") {
		t.Error("sales prompt missing qualification output")
	}
}

func TestKickoffSearchesForResearchStages(t *testing.T) {
	scripted := llm.NewScripted("a", "b", "c", finalReport)
	searcher := &search.MockSearcher{Results: []search.Result{
		{Title: "Acme Pay", URL: "https://acmepay.example", Snippet: "Payments platform."},
	}}
	c, err := New(loadRegistry(t), scripted, WithSearcher(searcher))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := c.Kickoff(context.Background(), Inputs{Industry: "fintech", Country: "Germany"}); err != nil {
		t.Fatalf("Kickoff failed: %v", err)
	}

	// The sales manager works from context only, so three searches run.
	if len(searcher.Queries) != 3 {
		t.Fatalf("queries = %d, want 3: %v", len(searcher.Queries), searcher.Queries)
	}
	if !strings.Contains(searcher.Queries[0], "fintech") || !strings.Contains(searcher.Queries[0], "Germany") {
		t.Errorf("query not derived from inputs: %q", searcher.Queries[0])
	}
	if !strings.Contains(scripted.Requests[0].Messages[1].Content, "https://acmepay.example") {
		t.Error("search results not injected into the first prompt")
	}
}

func TestKickoffValidatesInputs(t *testing.T) {
	c, err := New(loadRegistry(t), llm.NewScripted("x"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = c.Kickoff(context.Background(), Inputs{Country: "Germany"})
	if !errors.IsCode(err, errors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for missing industry, got %v", err)
	}
	_, err = c.Kickoff(context.Background(), Inputs{Industry: "fintech"})
	if !errors.IsCode(err, errors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for missing country, got %v", err)
	}
}

func TestKickoffToleratesUnparseableFinalOutput(t *testing.T) {
	scripted := llm.NewScripted("a", "b", "c", "I could not produce JSON today.")
	c, err := New(loadRegistry(t), scripted)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := c.Kickoff(context.Background(), Inputs{Industry: "fintech", Country: "Germany"})
	if err != nil {
		t.Fatalf("Kickoff should succeed even when parsing fails: %v", err)
	}
	if len(out.Leads) != 0 {
		t.Errorf("expected no parsed leads")
	}
	if out.Raw == "" {
		t.Error("raw output must be preserved for inspection")
	}
}

func TestKickoffPropagatesProviderFailure(t *testing.T) {
	provider := &llm.MockProvider{Err: errors.New(errors.CodeUnauthorized, "bad key", nil)}
	c, err := New(loadRegistry(t), provider)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = c.Kickoff(context.Background(), Inputs{Industry: "fintech", Country: "Germany"})
	if !errors.IsCode(err, errors.CodeUnauthorized) {
		t.Errorf("expected UNAUTHORIZED, got %v", err)
	}
}

func spanAttr(attrs []attribute.KeyValue, key string) (string, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestKickoffSpansCarrySharedAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	scripted := llm.NewScripted("a", "b", "c", finalReport)
	searcher := &search.MockSearcher{Results: []search.Result{
		{Title: "Acme Pay", URL: "https://acmepay.example", Snippet: "Payments."},
	}}
	c, err := New(loadRegistry(t), scripted, WithModel("gpt-4o-mini"), WithSearcher(searcher))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := c.Kickoff(context.Background(), Inputs{Industry: "fintech", Country: "Germany"})
	if err != nil {
		t.Fatalf("Kickoff failed: %v", err)
	}

	var kickoffSpans, taskSpans int
	for _, span := range recorder.Ended() {
		attrs := span.Attributes()
		switch span.Name() {
		case "Crew.Kickoff":
			kickoffSpans++
			if id, ok := spanAttr(attrs, telemetry.AttrRunID); !ok || id != out.RunID {
				t.Errorf("kickoff span run id = %q, %v", id, ok)
			}
			if v, _ := spanAttr(attrs, telemetry.AttrIndustry); v != "fintech" {
				t.Errorf("kickoff span industry = %q", v)
			}
			if v, _ := spanAttr(attrs, telemetry.AttrCountry); v != "Germany" {
				t.Errorf("kickoff span country = %q", v)
			}
		case "Crew.Task":
			taskSpans++
			if _, ok := spanAttr(attrs, telemetry.AttrTaskID); !ok {
				t.Error("task span missing task id")
			}
			if _, ok := spanAttr(attrs, telemetry.AttrAgentID); !ok {
				t.Error("task span missing agent id")
			}
			if v, _ := spanAttr(attrs, telemetry.AttrLLMModel); v != "gpt-4o-mini" {
				t.Errorf("task span model = %q", v)
			}
			if _, ok := spanAttr(attrs, telemetry.AttrLLMTokensTotal); !ok {
				t.Error("task span missing token usage")
			}
		}
	}
	if kickoffSpans != 1 {
		t.Errorf("kickoff spans = %d", kickoffSpans)
	}
	if taskSpans != 4 {
		t.Errorf("task spans = %d", taskSpans)
	}

	// The three research tasks search; their spans carry the query.
	var withQuery int
	for _, span := range recorder.Ended() {
		if span.Name() != "Crew.Task" {
			continue
		}
		if _, ok := spanAttr(span.Attributes(), telemetry.AttrSearchQuery); ok {
			withQuery++
		}
	}
	if withQuery != 3 {
		t.Errorf("task spans with search query = %d, want 3", withQuery)
	}
}

func TestKickoffEnforcesStepTimeout(t *testing.T) {
	slow := &llm.MockProvider{ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		time.Sleep(500 * time.Millisecond)
		return &llm.ChatResponse{Content: "too late"}, nil
	}}
	c, err := New(loadRegistry(t), slow, WithStepTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = c.Kickoff(context.Background(), Inputs{Industry: "fintech", Country: "Germany"})
	if !errors.IsCode(err, errors.CodeTimeout) {
		t.Errorf("expected TIMEOUT, got %v", err)
	}
}

func TestNewValidatesDependencies(t *testing.T) {
	if _, err := New(nil, llm.NewScripted("x")); !errors.IsCode(err, errors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT without registry, got %v", err)
	}
	if _, err := New(loadRegistry(t), nil); !errors.IsCode(err, errors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT without provider, got %v", err)
	}
}
