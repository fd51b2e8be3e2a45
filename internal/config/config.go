// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/portfolio-ai/internal/llm"
)

// Environment variables read by ApplyEnv
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGroqAPIKey   = "GROQ_API_KEY"
	EnvDatabaseURL  = "PORTFOLIO_AI_DATABASE_URL"
	EnvChromePath   = "CHROME_PATH"
)

// Config represents the CLI configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// AI service
	Provider    string            `json:"provider,omitempty" yaml:"provider,omitempty" validate:"omitempty,oneof=gemini groq"`
	APIKey      string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL     string            `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	Models      map[string]string `json:"models,omitempty" yaml:"models,omitempty" validate:"omitempty,dive,keys,oneof=lite standard advanced,endkeys,required"`
	Temperature float32           `json:"temperature,omitempty" yaml:"temperature,omitempty" validate:"gte=0,lte=2"`
	MaxTokens   int               `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" validate:"gte=0"`

	// Retry policy. MaxRetries of -1 disables retries.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"gte=0"`
	MaxRetries     int `json:"max_retries,omitempty" yaml:"max_retries,omitempty" validate:"gte=-1,lte=10"`
	BackoffMillis  int `json:"backoff_ms,omitempty" yaml:"backoff_ms,omitempty" validate:"gte=0"`

	// Extraction
	MaxUploadBytes int64 `json:"max_upload_bytes,omitempty" yaml:"max_upload_bytes,omitempty" validate:"gte=0"`

	// Rendering and temp files
	TempDir             string `json:"temp_dir,omitempty" yaml:"temp_dir,omitempty"`
	CleanupDelaySeconds int    `json:"cleanup_delay_seconds,omitempty" yaml:"cleanup_delay_seconds,omitempty" validate:"gte=0"`
	PDFEngine           string `json:"pdf_engine,omitempty" yaml:"pdf_engine,omitempty" validate:"omitempty,oneof=native chrome"`
	ChromePath          string `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"`

	// Job postings given as URLs are rendered in headless Chrome when their static HTML is too thin
	BrowserFetch bool `json:"browser_fetch,omitempty" yaml:"browser_fetch,omitempty"`

	// Batch runs
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"gte=0,lte=64"`

	// Run ledger: postgres:// URL or a SQLite file path
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`

	// Logging
	LogLevel  string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,oneof=text json"`
	Verbose   bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Defaults returns the values used for anything a config file or flag leaves unset
func Defaults() Config {
	return Config{
		Provider:            string(llm.ProviderGemini),
		TimeoutSeconds:      int(llm.DefaultTimeout / time.Second),
		MaxRetries:          llm.DefaultMaxRetries,
		BackoffMillis:       int(llm.DefaultBackoff / time.Millisecond),
		CleanupDelaySeconds: 3600,
		PDFEngine:           "native",
		Concurrency:         4,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// LoadDotEnv loads .env files into the process environment. Missing files are ignored;
// variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' check (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.TempDir != "" {
		if info, err := os.Stat(c.TempDir); err == nil && !info.IsDir() {
			return fmt.Errorf("config error: temp_dir is not a directory: %s", c.TempDir)
		}
	}
	if c.ChromePath != "" {
		if _, err := os.Stat(c.ChromePath); os.IsNotExist(err) {
			return fmt.Errorf("config error: chrome binary not found: %s", c.ChromePath)
		}
	}
	return nil
}

// ApplyEnv fills the API key, database URL and chrome path from the environment when unset.
// The API key variable depends on the provider.
func (c *Config) ApplyEnv() {
	if c.APIKey == "" {
		if c.Provider == string(llm.ProviderGroq) {
			c.APIKey = os.Getenv(EnvGroqAPIKey)
		} else {
			c.APIKey = os.Getenv(EnvGeminiAPIKey)
		}
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv(EnvDatabaseURL)
	}
	if c.ChromePath == "" {
		c.ChromePath = os.Getenv(EnvChromePath)
	}
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	mergeString(&result.Provider, defaults.Provider)
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.BaseURL, defaults.BaseURL)
	mergeString(&result.TempDir, defaults.TempDir)
	mergeString(&result.PDFEngine, defaults.PDFEngine)
	mergeString(&result.ChromePath, defaults.ChromePath)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.LogLevel, defaults.LogLevel)
	mergeString(&result.LogFormat, defaults.LogFormat)

	// Numeric fields: use default if zero
	mergeNumber(&result.MaxTokens, defaults.MaxTokens)
	mergeNumber(&result.TimeoutSeconds, defaults.TimeoutSeconds)
	mergeNumber(&result.MaxRetries, defaults.MaxRetries)
	mergeNumber(&result.BackoffMillis, defaults.BackoffMillis)
	mergeNumber(&result.MaxUploadBytes, defaults.MaxUploadBytes)
	mergeNumber(&result.CleanupDelaySeconds, defaults.CleanupDelaySeconds)
	mergeNumber(&result.Concurrency, defaults.Concurrency)
	mergeNumber(&result.Temperature, defaults.Temperature)

	if len(defaults.Models) > 0 {
		models := make(map[string]string, len(defaults.Models)+len(result.Models))
		for k, v := range defaults.Models {
			models[k] = v
		}
		for k, v := range result.Models {
			models[k] = v
		}
		result.Models = models
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func mergeNumber[T int | int64 | float32](dst *T, def T) {
	if *dst == 0 {
		*dst = def
	}
}

// LLMConfig returns the provider configuration with any model or sampling overrides applied
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.ConfigFor(llm.Provider(c.Provider))
	for tier, model := range c.Models {
		cfg = cfg.WithModel(llm.ModelTier(tier), model)
	}
	if c.Temperature > 0 {
		cfg.Temperature = c.Temperature
	}
	if c.MaxTokens > 0 {
		cfg.MaxTokens = c.MaxTokens
	}
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	return cfg
}

// OrchestratorConfig returns the retry policy
func (c *Config) OrchestratorConfig() llm.OrchestratorConfig {
	cfg := llm.DefaultOrchestratorConfig()
	if c.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(c.TimeoutSeconds) * time.Second
	}
	switch {
	case c.MaxRetries < 0:
		cfg.MaxRetries = -1
	case c.MaxRetries > 0:
		cfg.MaxRetries = c.MaxRetries
	}
	if c.BackoffMillis > 0 {
		cfg.Backoff = time.Duration(c.BackoffMillis) * time.Millisecond
	}
	return cfg
}

// CleanupDelay returns how long rendered artifacts are kept
func (c *Config) CleanupDelay() time.Duration {
	return time.Duration(c.CleanupDelaySeconds) * time.Second
}
