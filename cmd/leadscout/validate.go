package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/leadscout-ai/leadscout/pkg/config"
	"github.com/leadscout-ai/leadscout/pkg/pricing"
	"github.com/leadscout-ai/leadscout/pkg/store"
)

type validateResult struct {
	Config    checkResult `json:"config"`
	Prompts   checkResult `json:"prompts"`
	LLM       checkResult `json:"llm"`
	Search    checkResult `json:"search"`
	Store     checkResult `json:"store"`
	Telemetry checkResult `json:"telemetry"`
	Overall   string      `json:"overall"`
}

type checkResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warn", "error"
	Message string `json:"message,omitempty"`
}

func runValidate(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	if len(args) > 0 {
		fatal(fmt.Errorf("unexpected args: %v", args))
	}

	result := validateResult{
		Config:    checkResult{Name: "config", Status: "ok"},
		Prompts:   validatePrompts(cfg),
		LLM:       validateLLM(cfg),
		Search:    validateSearch(cfg),
		Store:     validateStore(cfg),
		Telemetry: validateTelemetry(cfg),
	}

	result.Overall = "ok"
	for _, check := range []checkResult{result.Config, result.Prompts, result.LLM, result.Search, result.Store, result.Telemetry} {
		switch check.Status {
		case "error":
			result.Overall = "error"
		case "warn":
			if result.Overall == "ok" {
				result.Overall = "warn"
			}
		}
	}

	if global.JSON {
		printJSON(result)
	} else {
		writer := newTabWriter()
		writeRow(writer, "CHECK", "STATUS", "MESSAGE")
		for _, check := range []checkResult{result.Config, result.Prompts, result.LLM, result.Search, result.Store, result.Telemetry} {
			writeRow(writer, check.Name, check.Status, check.Message)
		}
		writer.Flush()
		fmt.Println("\noverall:", result.Overall)
	}

	if result.Overall == "error" {
		os.Exit(1)
	}
}

func validatePrompts(cfg *config.Config) checkResult {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return checkResult{Name: "prompts", Status: "error", Message: err.Error()}
	}
	return checkResult{
		Name:    "prompts",
		Status:  "ok",
		Message: fmt.Sprintf("%d agents, %d tasks", len(registry.Agents()), len(registry.Tasks())),
	}
}

func validateLLM(cfg *config.Config) checkResult {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "", "openai":
		if cfg.LLM.APIKey == "" && os.Getenv("OPENAI_API_KEY") == "" {
			return checkResult{Name: "llm", Status: "error", Message: "openai provider needs llm.api_key or OPENAI_API_KEY"}
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			return checkResult{Name: "llm", Status: "warn", Message: "ollama base_url not set, using default"}
		}
	case "mock":
		return checkResult{Name: "llm", Status: "warn", Message: "mock provider returns canned responses"}
	default:
		return checkResult{Name: "llm", Status: "error", Message: fmt.Sprintf("unknown provider %q", cfg.LLM.Provider)}
	}

	if _, known := pricing.PriceFor(cfg.LLM.Model); !known {
		return checkResult{
			Name:    "llm",
			Status:  "warn",
			Message: fmt.Sprintf("no pricing for model %q, cost will report as zero", cfg.LLM.Model),
		}
	}
	return checkResult{Name: "llm", Status: "ok", Message: cfg.LLM.Model}
}

func validateSearch(cfg *config.Config) checkResult {
	switch strings.ToLower(cfg.Search.Provider) {
	case "none", "":
		return checkResult{Name: "search", Status: "warn", Message: "search disabled, agents rely on model knowledge"}
	case "serper":
		if cfg.Search.APIKey == "" && os.Getenv("SERPER_API_KEY") == "" {
			return checkResult{Name: "search", Status: "warn", Message: "no serper api key, search will be skipped"}
		}
		return checkResult{Name: "search", Status: "ok"}
	default:
		return checkResult{Name: "search", Status: "error", Message: fmt.Sprintf("unknown provider %q", cfg.Search.Provider)}
	}
}

func validateStore(cfg *config.Config) checkResult {
	if cfg.Store.Path == "" {
		return checkResult{Name: "store", Status: "warn", Message: "store.path empty, runs will not be persisted"}
	}
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return checkResult{Name: "store", Status: "error", Message: err.Error()}
	}
	defer db.Close()
	if _, err := store.NewRunStore(db); err != nil {
		return checkResult{Name: "store", Status: "error", Message: err.Error()}
	}
	return checkResult{Name: "store", Status: "ok", Message: cfg.Store.Path}
}

func validateTelemetry(cfg *config.Config) checkResult {
	switch cfg.Telemetry.Exporter {
	case "", "stdout", "none":
		return checkResult{Name: "telemetry", Status: "ok", Message: cfg.Telemetry.Exporter}
	case "otlp":
		if cfg.Telemetry.OTLPEndpoint == "" {
			return checkResult{Name: "telemetry", Status: "error", Message: "otlp exporter needs telemetry.otlp_endpoint"}
		}
		return checkResult{Name: "telemetry", Status: "ok", Message: cfg.Telemetry.OTLPEndpoint}
	default:
		return checkResult{Name: "telemetry", Status: "error", Message: fmt.Sprintf("unknown exporter %q", cfg.Telemetry.Exporter)}
	}
}
