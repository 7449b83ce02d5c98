package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/leadscout-ai/leadscout/pkg/config"
	"github.com/leadscout-ai/leadscout/pkg/crew"
	"github.com/leadscout-ai/leadscout/pkg/llm"
	"github.com/leadscout-ai/leadscout/pkg/prompts"
	"github.com/leadscout-ai/leadscout/pkg/search"
)

// buildRegistry loads the prompt registry, preferring files named in the
// config over the embedded defaults.
func buildRegistry(cfg *config.Config) (*prompts.Registry, error) {
	if cfg.Prompts.AgentsPath != "" || cfg.Prompts.TasksPath != "" {
		if cfg.Prompts.AgentsPath == "" || cfg.Prompts.TasksPath == "" {
			return nil, fmt.Errorf("prompts.agents_path and prompts.tasks_path must both be set")
		}
		return prompts.LoadFiles(cfg.Prompts.AgentsPath, cfg.Prompts.TasksPath)
	}
	return prompts.Load()
}

func buildProvider(cfg *config.Config) (llm.Provider, error) {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "", "openai":
		apiKey := cfg.LLM.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("llm.api_key (or OPENAI_API_KEY) is required for the openai provider")
		}
		opts := []llm.OpenAIOption{
			llm.WithOpenAIAPIKey(apiKey),
			llm.WithOpenAIModel(cfg.LLM.Model),
		}
		if cfg.LLM.BaseURL != "" {
			opts = append(opts, llm.WithOpenAIBaseURL(cfg.LLM.BaseURL))
		}
		return llm.NewOpenAI(opts...), nil
	case "ollama":
		return llm.NewOllama(cfg.LLM.BaseURL), nil
	case "mock":
		return &llm.MockProvider{Response: "mock response"}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// buildSearcher returns nil when search is disabled; agents then work from
// task context alone.
func buildSearcher(cfg *config.Config) (search.Searcher, error) {
	switch strings.ToLower(cfg.Search.Provider) {
	case "none", "":
		return nil, nil
	case "serper":
		apiKey := cfg.Search.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("SERPER_API_KEY")
		}
		if apiKey == "" {
			return nil, nil
		}
		opts := []search.SerperOption{}
		if cfg.Search.BaseURL != "" {
			opts = append(opts, search.WithBaseURL(cfg.Search.BaseURL))
		}
		if cfg.Search.MaxResults > 0 {
			opts = append(opts, search.WithMaxResults(cfg.Search.MaxResults))
		}
		return search.NewSerper(apiKey, opts...), nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Search.Provider)
	}
}

func buildCrew(cfg *config.Config, extra ...crew.Option) (*crew.Crew, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}
	searcher, err := buildSearcher(cfg)
	if err != nil {
		return nil, err
	}

	opts := []crew.Option{
		crew.WithModel(cfg.LLM.Model),
		crew.WithTemperature(cfg.LLM.Temperature),
	}
	if searcher != nil {
		opts = append(opts, crew.WithSearcher(searcher))
	}
	opts = append(opts, extra...)
	return crew.New(registry, provider, opts...)
}
