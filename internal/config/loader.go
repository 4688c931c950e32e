package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderDeepSeek   = "deepseek"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
)

type providerDefaults struct {
	model     string
	baseURL   string
	apiKeyEnv string
}

var providers = map[string]providerDefaults{
	ProviderOpenRouter: {"google/gemini-2.0-flash-001", "https://openrouter.ai/api/v1", "OPENROUTER_API_KEY"},
	ProviderOpenAI:     {"gpt-4o-mini", "https://api.openai.com/v1", "OPENAI_API_KEY"},
	ProviderDeepSeek:   {"deepseek-chat", "https://api.deepseek.com", "DEEPSEEK_API_KEY"},
	ProviderGemini:     {"gemini-2.0-flash", "", "GEMINI_API_KEY"},
	ProviderMock:       {"mock", "", ""},
}

// qualityDirs maps a manim quality flag to the media subdirectory it renders into.
var qualityDirs = map[string]string{
	"l": "480p15",
	"m": "720p30",
	"h": "1080p60",
	"p": "1440p60",
	"k": "2160p60",
}

// FileName is the config file looked up in the working directory.
const FileName = "manimator.yaml"

// Default returns the built-in configuration.
func Default() *Config {
	cfg := defaults()
	applyDefaults(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: ProviderOpenRouter,
			Timeout:  "2m",
			Temperature: Temperatures{
				Generate: 0.7,
				Validate: 0.1,
				Repair:   0.2,
			},
		},
		Render: RenderConfig{
			Command:    "manim",
			Quality:    "l",
			MediaDir:   "output",
			SceneClass: "GeneratedScene",
			Timeout:    "10m",
			MaxRetries: 3,
			Validate:   true,
		},
		Concat: ConcatConfig{
			Command: "ffmpeg",
			Output:  "final_output.mp4",
			Timeout: "10m",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads and parses a configuration from the given YAML file path.
// Keys absent from the file keep their built-in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the built-in defaults.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// LoadDefault searches for a config in standard locations and loads the
// first one found. Search order: ./manimator.yaml, ~/.manimator/config.yaml.
// When neither exists the built-in defaults are returned.
func LoadDefault() (*Config, string, error) {
	candidates := []string{FileName}
	if dir, err := StateDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			return cfg, path, err
		}
	}
	return Default(), "", nil
}

// StateDir returns ~/.manimator.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".manimator"), nil
}

// applyDefaults fills provider-derived fields left empty.
func applyDefaults(cfg *Config) {
	l := &cfg.LLM
	l.Provider = strings.ToLower(strings.TrimSpace(l.Provider))
	if l.Provider == "" {
		l.Provider = ProviderOpenRouter
	}
	if d, ok := providers[l.Provider]; ok {
		if l.Model == "" {
			l.Model = d.model
		}
		if l.BaseURL == "" {
			l.BaseURL = d.baseURL
		}
		if l.APIKeyEnv == "" {
			l.APIKeyEnv = d.apiKeyEnv
		}
	}
}

// OutputPath returns the final video path. A bare file name is placed
// inside the media directory.
func (c *Config) OutputPath() string {
	out := c.Concat.Output
	if out != "" && !filepath.IsAbs(out) && filepath.Dir(out) == "." {
		return filepath.Join(c.Render.MediaDir, out)
	}
	return out
}

// LLMTimeout returns the per-call oracle timeout.
func (c *Config) LLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 2*time.Minute)
}

// RenderTimeout returns the per-render subprocess timeout.
func (c *Config) RenderTimeout() time.Duration {
	return parseDuration(c.Render.Timeout, 10*time.Minute)
}

// ConcatTimeout returns the aggregation subprocess timeout.
func (c *Config) ConcatTimeout() time.Duration {
	return parseDuration(c.Concat.Timeout, 10*time.Minute)
}

// QualityDir returns the media subdirectory for the configured quality.
func (c *Config) QualityDir() string {
	if d, ok := qualityDirs[c.Render.Quality]; ok {
		return d
	}
	return qualityDirs["l"]
}

// LedgerDSN resolves the ledger DSN, defaulting to the SQLite file in the
// state directory.
func (c *Config) LedgerDSN() (string, error) {
	if c.Ledger.DSN != "" {
		return c.Ledger.DSN, nil
	}
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "manimator.db"), nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
