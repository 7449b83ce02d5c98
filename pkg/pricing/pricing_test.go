package pricing

import (
	"math"
	"sync"
	"testing"

	"github.com/leadscout-ai/leadscout/pkg/llm"
)

func TestCost(t *testing.T) {
	// 1M input + 1M output tokens of gpt-4o-mini: $0.15 + $0.60.
	usage := llm.Usage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000}
	if got := Cost("gpt-4o-mini", usage); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("Cost = %v, want 0.75", got)
	}
}

func TestCostUnknownModel(t *testing.T) {
	usage := llm.Usage{PromptTokens: 1000, CompletionTokens: 1000}
	if got := Cost("some-local-model", usage); got != 0 {
		t.Errorf("expected zero cost for unknown model, got %v", got)
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker("gpt-4o-mini")
	tr.Track(llm.Usage{PromptTokens: 500_000, CompletionTokens: 100_000, TotalTokens: 600_000})
	tr.Track(llm.Usage{PromptTokens: 500_000, CompletionTokens: 100_000, TotalTokens: 600_000})

	s := tr.Summary()
	if s.PromptTokens != 1_000_000 || s.CompletionTokens != 200_000 || s.TotalTokens != 1_200_000 {
		t.Errorf("unexpected summary tokens: %+v", s)
	}
	// 1M input at $0.15 + 0.2M output at $0.60.
	want := 0.15 + 0.12
	if math.Abs(s.TotalCost-want) > 1e-9 {
		t.Errorf("TotalCost = %v, want %v", s.TotalCost, want)
	}
}

func TestTrackerConcurrent(t *testing.T) {
	tr := NewTracker("gpt-4o-mini")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Track(llm.Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20})
		}()
	}
	wg.Wait()

	if s := tr.Summary(); s.TotalTokens != 1000 {
		t.Errorf("expected 1000 total tokens, got %d", s.TotalTokens)
	}
}
