// Package config loads LeadScout configuration from YAML files, environment
// variables, and CLI overrides, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	LLM       LLMConfig       `koanf:"llm"`
	Search    SearchConfig    `koanf:"search"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Store     StoreConfig     `koanf:"store"`
	Report    ReportConfig    `koanf:"report"`
	Prompts   PromptsConfig   `koanf:"prompts"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider    string  `koanf:"provider"` // openai, ollama, mock
	Model       string  `koanf:"model"`
	BaseURL     string  `koanf:"base_url"`
	APIKey      string  `koanf:"api_key"`
	Temperature float64 `koanf:"temperature"`
}

type SearchConfig struct {
	Provider   string `koanf:"provider"` // serper, none
	APIKey     string `koanf:"api_key"`
	BaseURL    string `koanf:"base_url"`
	MaxResults int    `koanf:"max_results"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp, none
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type StoreConfig struct {
	Path string `koanf:"path"`
}

type ReportConfig struct {
	Dir string `koanf:"dir"`
}

type PromptsConfig struct {
	// AgentsPath and TasksPath override the embedded prompt configuration.
	AgentsPath string `koanf:"agents_path"`
	TasksPath  string `koanf:"tasks_path"`
}

// envPrefix is stripped from environment variables before mapping them onto
// config keys (LEADSCOUT_LLM_PROVIDER -> llm.provider).
const envPrefix = "LEADSCOUT_"

// Load reads configuration from an optional YAML file, then the environment.
func Load(path string) (*Config, error) {
	return LoadWithProfile(path, "")
}

// LoadWithProfile loads the base config file and, when a profile is given,
// overlays config.<profile>.yaml from the same directory if it exists.
func LoadWithProfile(path, profile string) (*Config, error) {
	k := koanf.New(".")

	setDefaults(k)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if overlay := profileConfigPath(path, profile); overlay != "" {
		if err := k.Load(file.Provider(overlay), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithCLI parses config-related CLI arguments (--config, --profile/--env,
// --set key=value) and loads accordingly. --set overrides win over everything.
func LoadWithCLI(args []string) (*Config, error) {
	var path, profile string
	var sets []string

	consume := func(i int, flag string) (string, int, error) {
		arg := args[i]
		if eq := strings.IndexByte(arg, '='); eq >= 0 && strings.HasPrefix(arg, flag+"=") {
			return arg[eq+1:], i, nil
		}
		if i+1 >= len(args) {
			return "", i, fmt.Errorf("flag %s requires a value", flag)
		}
		return args[i+1], i + 1, nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		var err error
		switch {
		case arg == "--config" || strings.HasPrefix(arg, "--config="):
			path, i, err = consume(i, "--config")
		case arg == "--profile" || strings.HasPrefix(arg, "--profile="):
			profile, i, err = consume(i, "--profile")
		case arg == "--env" || strings.HasPrefix(arg, "--env="):
			profile, i, err = consume(i, "--env")
		case arg == "--set" || strings.HasPrefix(arg, "--set="):
			var kv string
			kv, i, err = consume(i, "--set")
			if err == nil {
				sets = append(sets, kv)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	if len(sets) == 0 {
		return LoadWithProfile(path, profile)
	}

	k := koanf.New(".")
	setDefaults(k)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}
	if overlay := profileConfigPath(path, profile); overlay != "" {
		if err := k.Load(file.Provider(overlay), yaml.Parser()); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", kv)
		}
		k.Set(key, value)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(k *koanf.Koanf) {
	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("llm.provider", "openai")
	k.Set("llm.model", "gpt-4o-mini")
	k.Set("llm.temperature", 0.7)

	k.Set("search.provider", "serper")
	k.Set("search.base_url", "https://google.serper.dev")
	k.Set("search.max_results", 5)

	k.Set("telemetry.exporter", "stdout")

	k.Set("store.path", "leadscout.db")
	k.Set("report.dir", ".")
}

// profileConfigPath resolves the overlay file for a profile next to the base
// config file. Returns "" when no overlay applies.
func profileConfigPath(base, profile string) string {
	if base == "" || profile == "" {
		return ""
	}
	ext := filepath.Ext(base)
	candidate := strings.TrimSuffix(base, ext) + "." + profile + ext
	if _, err := os.Stat(candidate); err != nil {
		return ""
	}
	return candidate
}
