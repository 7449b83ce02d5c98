// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for crew telemetry. The gen_ai.* names follow the
// OpenTelemetry GenAI conventions; the rest are project-scoped.
const (
	AttrRunID    = "leadscout.run.id"
	AttrIndustry = "leadscout.run.industry"
	AttrCountry  = "leadscout.run.country"

	AttrAgentID = "leadscout.agent.id"
	AttrTaskID  = "leadscout.task.id"

	AttrSearchQuery   = "leadscout.search.query"
	AttrSearchResults = "leadscout.search.result_count"

	AttrLLMModel        = "gen_ai.request.model"
	AttrLLMProvider     = "gen_ai.system"
	AttrLLMTokensInput  = "gen_ai.usage.input_tokens"
	AttrLLMTokensOutput = "gen_ai.usage.output_tokens"
	AttrLLMTokensTotal  = "gen_ai.usage.total_tokens"
)

// RunAttributes returns the span attributes for one crew run.
func RunAttributes(runID, industry, country string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.String(AttrIndustry, industry),
		attribute.String(AttrCountry, country),
	}
}

// TaskAttributes returns the span attributes for one crew task.
func TaskAttributes(taskID, agentID, model string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrTaskID, taskID),
		attribute.String(AttrAgentID, agentID),
	}
	if model != "" {
		attrs = append(attrs, attribute.String(AttrLLMModel, model))
	}
	return attrs
}

// UsageAttributes returns token usage attributes for a model call span.
func UsageAttributes(inputTokens, outputTokens int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{}
	if inputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensInput, inputTokens))
	}
	if outputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensOutput, outputTokens))
	}
	if inputTokens > 0 || outputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensTotal, inputTokens+outputTokens))
	}
	return attrs
}

// SearchAttributes returns attributes for a web search span.
func SearchAttributes(query string, resultCount int) []attribute.KeyValue {
	if len(query) > 200 {
		query = query[:200] + "..."
	}
	return []attribute.KeyValue{
		attribute.String(AttrSearchQuery, query),
		attribute.Int(AttrSearchResults, resultCount),
	}
}
