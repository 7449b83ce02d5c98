// Package crew sequences the four lead generation agents: discovery, contact
// research, qualification, and the final sales report.
package crew

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/leadscout-ai/leadscout/pkg/agent"
	"github.com/leadscout-ai/leadscout/pkg/core"
	"github.com/leadscout-ai/leadscout/pkg/errors"
	"github.com/leadscout-ai/leadscout/pkg/leads"
	"github.com/leadscout-ai/leadscout/pkg/llm"
	"github.com/leadscout-ai/leadscout/pkg/pricing"
	"github.com/leadscout-ai/leadscout/pkg/prompts"
	"github.com/leadscout-ai/leadscout/pkg/resilience"
	"github.com/leadscout-ai/leadscout/pkg/search"
	"github.com/leadscout-ai/leadscout/pkg/telemetry"
)

// Inputs are the user-supplied parameters for one run.
type Inputs struct {
	Industry string `json:"industry"`
	Country  string `json:"country"`
}

// StepOutput captures the result of one task in the pipeline.
type StepOutput struct {
	TaskID   string        `json:"task_id"`
	AgentID  string        `json:"agent_id"`
	Raw      string        `json:"raw"`
	Usage    llm.Usage     `json:"usage"`
	Duration time.Duration `json:"duration"`
}

// Output is the result of a full crew run.
type Output struct {
	RunID      string          `json:"run_id"`
	Industry   string          `json:"industry"`
	Country    string          `json:"country"`
	Steps      []StepOutput    `json:"steps"`
	Raw        string          `json:"raw"`
	Leads      []leads.Lead    `json:"leads"`
	Usage      pricing.Summary `json:"usage"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// stage wires a task to its search behavior and the prior outputs it sees.
type stage struct {
	taskID    string
	useSearch bool
	query     func(in Inputs) string
	context   []string
}

var stages = []stage{
	{
		taskID:    prompts.TaskLeadGeneration,
		useSearch: true,
		query: func(in Inputs) string {
			return fmt.Sprintf("top %s companies in %s", in.Industry, in.Country)
		},
	},
	{
		taskID:    prompts.TaskContactResearch,
		useSearch: true,
		query: func(in Inputs) string {
			return fmt.Sprintf("%s companies %s founders executives linkedin", in.Industry, in.Country)
		},
		context: []string{prompts.TaskLeadGeneration},
	},
	{
		taskID:    prompts.TaskLeadQualification,
		useSearch: true,
		query: func(in Inputs) string {
			return fmt.Sprintf("%s market size growth %s", in.Industry, in.Country)
		},
		context: []string{prompts.TaskLeadGeneration, prompts.TaskContactResearch},
	},
	{
		taskID:  prompts.TaskSalesManagement,
		context: []string{prompts.TaskLeadQualification},
	},
}

// Crew runs the lead generation pipeline.
type Crew struct {
	registry    *prompts.Registry
	provider    llm.Provider
	searcher    search.Searcher
	model       string
	temperature float64
	retry       resilience.RetryConfig
	stepTimeout time.Duration
	metrics     *telemetry.RunMetrics
	tracer      trace.Tracer
}

// Option configures a Crew.
type Option func(*Crew)

// WithSearcher gives search-enabled agents web access.
func WithSearcher(s search.Searcher) Option {
	return func(c *Crew) { c.searcher = s }
}

// WithModel sets the model for every agent.
func WithModel(model string) Option {
	return func(c *Crew) { c.model = model }
}

// WithTemperature sets the sampling temperature for every agent.
func WithTemperature(temp float64) Option {
	return func(c *Crew) { c.temperature = temp }
}

// WithRetry overrides the per-step retry policy.
func WithRetry(rc resilience.RetryConfig) Option {
	return func(c *Crew) { c.retry = rc }
}

// WithStepTimeout bounds each task's execution. Zero disables the bound.
func WithStepTimeout(d time.Duration) Option {
	return func(c *Crew) { c.stepTimeout = d }
}

// WithMetrics attaches run metrics; agents report search outcomes through it.
func WithMetrics(rm *telemetry.RunMetrics) Option {
	return func(c *Crew) { c.metrics = rm }
}

// New creates a Crew over a validated prompt registry and a provider.
func New(registry *prompts.Registry, provider llm.Provider, opts ...Option) (*Crew, error) {
	if registry == nil {
		return nil, errors.New(errors.CodeInvalidInput, "prompt registry is required", nil)
	}
	if provider == nil {
		return nil, errors.New(errors.CodeInvalidInput, "llm provider is required", nil)
	}
	c := &Crew{
		registry: registry,
		provider: provider,
		retry:    resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("leadscout/crew")
	}
	return c, nil
}

// Kickoff runs all four stages sequentially and returns the aggregated
// output. The final stage's raw output is parsed into leads; when parsing
// fails the raw text is still returned for inspection.
func (c *Crew) Kickoff(ctx context.Context, in Inputs) (*Output, error) {
	if in.Industry == "" {
		return nil, errors.New(errors.CodeInvalidInput, "industry is required", nil)
	}
	if in.Country == "" {
		return nil, errors.New(errors.CodeInvalidInput, "country is required", nil)
	}

	ctx, runID := core.EnsureRunID(ctx)
	ctx, span := c.tracer.Start(ctx, "Crew.Kickoff",
		trace.WithAttributes(telemetry.RunAttributes(runID, in.Industry, in.Country)...))
	defer span.End()

	log := slog.Default()
	log.InfoContext(ctx, "crew.run.start",
		slog.String("run_id", runID),
		slog.String("industry", in.Industry),
		slog.String("country", in.Country),
	)

	tracker := pricing.NewTracker(c.model)
	out := &Output{
		RunID:     runID,
		Industry:  in.Industry,
		Country:   in.Country,
		StartedAt: time.Now().UTC(),
	}
	produced := make(map[string]string, len(stages))

	for _, st := range stages {
		step, err := c.runStage(ctx, st, in, produced)
		if err != nil {
			log.ErrorContext(ctx, "crew.task.error",
				slog.String("run_id", runID),
				slog.String("task_id", st.taskID),
				slog.String("error", err.Error()),
			)
			span.RecordError(err)
			return nil, err
		}
		tracker.Track(step.Usage)
		produced[st.taskID] = step.Raw
		out.Steps = append(out.Steps, *step)
	}

	out.FinishedAt = time.Now().UTC()
	out.Raw = produced[prompts.TaskSalesManagement]
	out.Usage = tracker.Summary()

	parsed, err := leads.Parse(out.Raw)
	if err != nil {
		// The raw report is still useful; surface the defect in logs only.
		log.WarnContext(ctx, "crew.parse.failed",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
	} else {
		leads.SortByScore(parsed)
		out.Leads = parsed
	}

	log.InfoContext(ctx, "crew.run.complete",
		slog.String("run_id", runID),
		slog.Int("leads", len(out.Leads)),
		slog.Int("total_tokens", out.Usage.TotalTokens),
	)
	return out, nil
}

func (c *Crew) runStage(ctx context.Context, st stage, in Inputs, produced map[string]string) (*StepOutput, error) {
	task, err := c.registry.RenderTask(st.taskID, in.Industry, in.Country)
	if err != nil {
		return nil, err
	}
	tmpl, err := c.registry.RenderAgent(task.Agent, in.Industry, in.Country)
	if err != nil {
		return nil, err
	}

	opts := []agent.Option{
		agent.WithTemplate(tmpl),
		agent.WithProvider(c.provider),
		agent.WithModel(c.model),
		agent.WithTemperature(c.temperature),
		agent.WithRetry(c.retry),
		agent.WithMetrics(c.metrics),
	}
	if st.useSearch && c.searcher != nil {
		opts = append(opts, agent.WithSearcher(c.searcher))
	}
	a, err := agent.New(task.Agent, opts...)
	if err != nil {
		return nil, err
	}

	as := agent.Assignment{
		TaskID:         st.taskID,
		Description:    task.Description,
		ExpectedOutput: task.ExpectedOutput,
	}
	for _, dep := range st.context {
		if raw, ok := produced[dep]; ok {
			as.Context = append(as.Context, raw)
		}
	}
	if st.useSearch && st.query != nil {
		as.SearchQuery = st.query(in)
	}

	ctx, span := c.tracer.Start(ctx, "Crew.Task",
		trace.WithAttributes(telemetry.TaskAttributes(st.taskID, task.Agent, c.model)...))
	defer span.End()

	slog.InfoContext(ctx, "crew.task.start",
		slog.String("task_id", st.taskID),
		slog.String("agent_id", task.Agent),
	)

	start := time.Now()
	var res *agent.Result
	err = resilience.WithTimeout(ctx, resilience.TimeoutConfig{Duration: c.stepTimeout}, func(ctx context.Context) error {
		var execErr error
		res, execErr = a.Execute(ctx, as)
		return execErr
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(telemetry.UsageAttributes(res.Usage.PromptTokens, res.Usage.CompletionTokens)...)
	if as.SearchQuery != "" {
		span.SetAttributes(telemetry.SearchAttributes(as.SearchQuery, len(res.SearchResults))...)
	}

	step := &StepOutput{
		TaskID:   st.taskID,
		AgentID:  task.Agent,
		Raw:      res.Content,
		Usage:    res.Usage,
		Duration: time.Since(start),
	}
	slog.InfoContext(ctx, "crew.task.complete",
		slog.String("task_id", st.taskID),
		slog.String("agent_id", task.Agent),
		slog.Int("tokens", res.Usage.TotalTokens),
		slog.Duration("duration", step.Duration),
	)
	return step, nil
}
