// Package pricing tracks token usage and estimates model cost per run.
package pricing

import (
	"sync"

	"github.com/leadscout-ai/leadscout/pkg/llm"
)

// ModelPrice holds per-million-token rates in USD.
type ModelPrice struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// prices lists the models the crew is expected to run with. Unknown models
// track tokens but report zero cost.
var prices = map[string]ModelPrice{
	"gpt-4o-mini": {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"gpt-4o":      {InputPerMTok: 2.50, OutputPerMTok: 10.00},
}

// PriceFor returns the price entry for a model, if known.
func PriceFor(model string) (ModelPrice, bool) {
	p, ok := prices[model]
	return p, ok
}

// Cost computes the USD cost of a usage sample for the given model.
func Cost(model string, usage llm.Usage) float64 {
	p, ok := prices[model]
	if !ok {
		return 0
	}
	input := float64(usage.PromptTokens) / 1_000_000 * p.InputPerMTok
	output := float64(usage.CompletionTokens) / 1_000_000 * p.OutputPerMTok
	return input + output
}

// Tracker accumulates usage across crew steps. Safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	model string
	usage llm.Usage
	cost  float64
}

// NewTracker creates a tracker for the given model.
func NewTracker(model string) *Tracker {
	return &Tracker{model: model}
}

// Track records one usage sample.
func (t *Tracker) Track(usage llm.Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage.Add(usage)
	t.cost += Cost(t.model, usage)
}

// Summary is a point-in-time snapshot of accumulated usage.
type Summary struct {
	Model            string  `json:"model"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	TotalCost        float64 `json:"total_cost"`
}

// Summary returns the accumulated usage and estimated cost.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Summary{
		Model:            t.model,
		PromptTokens:     t.usage.PromptTokens,
		CompletionTokens: t.usage.CompletionTokens,
		TotalTokens:      t.usage.TotalTokens,
		TotalCost:        t.cost,
	}
}
