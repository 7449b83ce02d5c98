// Package agent executes a single crew role against an LLM provider,
// optionally enriching the prompt with web search results.
package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/leadscout-ai/leadscout/pkg/errors"
	"github.com/leadscout-ai/leadscout/pkg/llm"
	"github.com/leadscout-ai/leadscout/pkg/prompts"
	"github.com/leadscout-ai/leadscout/pkg/resilience"
	"github.com/leadscout-ai/leadscout/pkg/search"
	"github.com/leadscout-ai/leadscout/pkg/telemetry"
)

// Agent binds a rendered role template to a provider.
type Agent struct {
	id          string
	tmpl        prompts.AgentTemplate
	provider    llm.Provider
	searcher    search.Searcher
	model       string
	temperature float64
	retry       resilience.RetryConfig
	metrics     *telemetry.RunMetrics
}

// Option configures an Agent instance.
type Option func(*Agent)

// WithTemplate sets the rendered role template. Required.
func WithTemplate(tmpl prompts.AgentTemplate) Option {
	return func(a *Agent) { a.tmpl = tmpl }
}

// WithProvider sets the LLM backend. Required.
func WithProvider(p llm.Provider) Option {
	return func(a *Agent) { a.provider = p }
}

// WithSearcher gives the agent web search access. Agents without a searcher
// work from the task context alone.
func WithSearcher(s search.Searcher) Option {
	return func(a *Agent) { a.searcher = s }
}

// WithModel sets the model passed to the provider.
func WithModel(model string) Option {
	return func(a *Agent) { a.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) Option {
	return func(a *Agent) { a.temperature = temp }
}

// WithRetry overrides the chat retry policy.
func WithRetry(rc resilience.RetryConfig) Option {
	return func(a *Agent) { a.retry = rc }
}

// WithMetrics attaches run metrics for search outcome recording. A nil value
// is accepted and disables recording.
func WithMetrics(rm *telemetry.RunMetrics) Option {
	return func(a *Agent) { a.metrics = rm }
}

// New creates a new Agent with a required id and options.
func New(id string, opts ...Option) (*Agent, error) {
	a := &Agent{id: id, retry: resilience.DefaultRetryConfig()}
	for _, opt := range opts {
		opt(a)
	}
	if a.id == "" {
		return nil, errors.New(errors.CodeInvalidInput, "agent id is required", nil)
	}
	if a.provider == nil {
		return nil, errors.New(errors.CodeInvalidInput, "agent provider is required", nil).
			WithContext("agent_id", a.id)
	}
	if a.tmpl.Role == "" {
		return nil, errors.New(errors.CodeInvalidInput, "agent template is required", nil).
			WithContext("agent_id", a.id)
	}
	return a, nil
}

// ID returns the agent identifier.
func (a *Agent) ID() string { return a.id }

// Role returns the rendered agent role.
func (a *Agent) Role() string { return strings.TrimSpace(a.tmpl.Role) }

// Assignment is one unit of work handed to an agent.
type Assignment struct {
	TaskID         string
	Description    string
	ExpectedOutput string
	// Context carries the raw outputs of previous tasks.
	Context []string
	// SearchQuery, when set and the agent has a searcher, is executed before
	// prompting and the results are injected into the task prompt.
	SearchQuery string
}

// Result is the outcome of one assignment.
type Result struct {
	Content       string
	Usage         llm.Usage
	SearchResults []search.Result
}

// Execute runs the assignment against the provider.
func (a *Agent) Execute(ctx context.Context, as Assignment) (*Result, error) {
	var results []search.Result
	if a.searcher != nil && as.SearchQuery != "" {
		var err error
		results, err = a.searcher.Search(ctx, as.SearchQuery)
		a.metrics.RecordSearch(ctx, err == nil)
		if err != nil {
			// Search enriches the prompt but is not required for the step.
			slog.WarnContext(ctx, "agent.search.failed",
				slog.String("agent_id", a.id),
				slog.String("query", as.SearchQuery),
				slog.String("error", err.Error()),
			)
			results = nil
		}
	}

	req := llm.ChatRequest{
		Model:       a.model,
		Temperature: a.temperature,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: a.systemPrompt()},
			{Role: llm.RoleUser, Content: a.userPrompt(as, results)},
		},
	}

	var resp *llm.ChatResponse
	err := a.retry.Do(ctx, func() error {
		var chatErr error
		resp, chatErr = a.provider.Chat(ctx, req)
		return chatErr
	})
	if err != nil {
		return nil, errors.AsLeadScoutError(err).
			WithAttribute("agent_id", a.id).
			WithAttribute("task_id", as.TaskID)
	}

	return &Result{
		Content:       resp.Content,
		Usage:         resp.Usage,
		SearchResults: results,
	}, nil
}

func (a *Agent) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are ")
	b.WriteString(strings.TrimSpace(a.tmpl.Role))
	b.WriteString(".\n\n")
	b.WriteString(strings.TrimSpace(a.tmpl.Backstory))
	b.WriteString("\n\nYour goal: ")
	b.WriteString(strings.TrimSpace(a.tmpl.Goal))
	return b.String()
}

func (a *Agent) userPrompt(as Assignment, results []search.Result) string {
	var b strings.Builder
	b.WriteString("Current task:\n")
	b.WriteString(strings.TrimSpace(as.Description))

	if len(as.Context) > 0 {
		b.WriteString("\n\nContext from previous steps:\n")
		for _, c := range as.Context {
			b.WriteString("---\n")
			b.WriteString(strings.TrimSpace(c))
			b.WriteString("\n")
		}
	}

	if len(results) > 0 {
		b.WriteString("\nWeb search results:\n")
		b.WriteString(search.Format(results))
		b.WriteString("\n")
	}

	b.WriteString("\nExpected output:\n")
	b.WriteString(strings.TrimSpace(as.ExpectedOutput))
	return b.String()
}
