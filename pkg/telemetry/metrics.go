// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/leadscout-ai/leadscout/pkg/errors"
)

// RunMetrics tracks crew run outcomes, token spend, and backend errors.
type RunMetrics struct {
	runCounter    metric.Int64Counter
	runDuration   metric.Float64Histogram
	leadCounter   metric.Int64Counter
	tokenCounter  metric.Int64Counter
	searchCounter metric.Int64Counter
	errorCounter  metric.Int64Counter
}

// NewRunMetrics registers the instrument set on the global meter provider.
func NewRunMetrics() (*RunMetrics, error) {
	meter := otel.Meter("leadscout/runs")

	runCounter, err := meter.Int64Counter(
		"leadscout.runs.total",
		metric.WithDescription("Completed crew runs by status"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"leadscout.runs.duration_seconds",
		metric.WithDescription("End-to-end crew run duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	leadCounter, err := meter.Int64Counter(
		"leadscout.leads.total",
		metric.WithDescription("Leads produced by completed runs"),
	)
	if err != nil {
		return nil, err
	}

	tokenCounter, err := meter.Int64Counter(
		"leadscout.tokens.total",
		metric.WithDescription("Tokens consumed by model and direction"),
	)
	if err != nil {
		return nil, err
	}

	searchCounter, err := meter.Int64Counter(
		"leadscout.searches.total",
		metric.WithDescription("Web searches issued by outcome"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"leadscout.errors.total",
		metric.WithDescription("Errors by code and component"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		runCounter:    runCounter,
		runDuration:   runDuration,
		leadCounter:   leadCounter,
		tokenCounter:  tokenCounter,
		searchCounter: searchCounter,
		errorCounter:  errorCounter,
	}, nil
}

// RecordRun records one finished run with its status, duration, and yield.
func (rm *RunMetrics) RecordRun(ctx context.Context, status string, seconds float64, leadCount int) {
	if rm == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("run.status", status))
	rm.runCounter.Add(ctx, 1, attrs)
	rm.runDuration.Record(ctx, seconds, attrs)
	if leadCount > 0 {
		rm.leadCounter.Add(ctx, int64(leadCount), attrs)
	}
}

// RecordTokens records token spend for one model call or one whole run.
func (rm *RunMetrics) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int) {
	if rm == nil {
		return
	}
	rm.tokenCounter.Add(ctx, int64(promptTokens), metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("direction", "input"),
	))
	rm.tokenCounter.Add(ctx, int64(completionTokens), metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("direction", "output"),
	))
}

// RecordSearch records one web search attempt.
func (rm *RunMetrics) RecordSearch(ctx context.Context, ok bool) {
	if rm == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	rm.searchCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordError counts an error by its code and the component that raised it.
func (rm *RunMetrics) RecordError(ctx context.Context, err error, component string) {
	if rm == nil || err == nil {
		return
	}
	code := "UNKNOWN"
	recoverable := "unknown"
	if le, ok := err.(*errors.LeadScoutError); ok {
		code = string(le.Code)
		recoverable = le.RecoverableString()
	}
	rm.errorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("error.code", code),
		attribute.String("component", component),
		attribute.String("recoverable", recoverable),
	))
}
