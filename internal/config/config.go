package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Extract    ExtractConfig    `yaml:"extract" mapstructure:"extract"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Prompt     PromptConfig     `yaml:"prompt" mapstructure:"prompt"`
	OCR        OCRConfig        `yaml:"ocr" mapstructure:"ocr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the web UI and JSON API.
type ServerConfig struct {
	Port        int   `yaml:"port" mapstructure:"port"`
	MaxUploadMB int64 `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// ExtractConfig configures PDF text extraction.
type ExtractConfig struct {
	Engine              string `yaml:"engine" mapstructure:"engine"`
	MaxDocumentsCompare int    `yaml:"max_documents_compare" mapstructure:"max_documents_compare"`
}

// LLMConfig selects and tunes the model that reads the brochure text.
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GoogleConfig holds Custom Search credentials for the plan-name lookup.
type GoogleConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	SearchEngineID string `yaml:"search_engine_id" mapstructure:"search_engine_id"`
}

// FetchConfig configures brochure downloads.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	MaxBytes    int64  `yaml:"max_bytes" mapstructure:"max_bytes"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// StoreConfig configures the analysis history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// PromptConfig points at an optional YAML file that overrides the built-in
// prompt templates.
type PromptConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// OCRConfig configures the fallback for brochures without a text layer.
// An empty provider disables it.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_key" mapstructure:"mistral_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BROCHURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to "" so AutomaticEnv can see them.
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 50)
	v.SetDefault("extract.engine", "auto")
	v.SetDefault("extract.max_documents_compare", 2)
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("perplexity.key", "")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("google.key", "")
	v.SetDefault("google.search_engine_id", "")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.max_bytes", 50<<20)
	v.SetDefault("fetch.user_agent", "brochure-cli/1.0")
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", "brochure.db")
	v.SetDefault("prompt.file", "")
	v.SetDefault("ocr.provider", "")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.mistral_key", "")
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("ocr.timeout_secs", 120)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// ModelName returns the model for the configured provider. llm.model wins
// over the provider section.
func (c *Config) ModelName() string {
	if c.LLM.Model != "" {
		return c.LLM.Model
	}
	switch c.LLM.Provider {
	case "gemini":
		return c.Gemini.Model
	case "perplexity":
		return c.Perplexity.Model
	default:
		return c.Anthropic.Model
	}
}

// Validate checks the settings a command needs. Mode is one of "analyze",
// "compare", "extract", "search" or "serve".
func (c *Config) Validate(mode string) error {
	var missing []string
	var invalid []string

	needLLM := false
	switch mode {
	case "analyze", "compare", "serve":
		needLLM = true
	case "search":
		if c.Google.Key == "" {
			missing = append(missing, "google.key")
		}
		if c.Google.SearchEngineID == "" {
			missing = append(missing, "google.search_engine_id")
		}
	case "extract":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if needLLM {
		switch c.LLM.Provider {
		case "anthropic":
			if c.Anthropic.Key == "" {
				missing = append(missing, "anthropic.key")
			}
		case "gemini":
			if c.Gemini.Key == "" {
				missing = append(missing, "gemini.key")
			}
		case "perplexity":
			if c.Perplexity.Key == "" {
				missing = append(missing, "perplexity.key")
			}
		default:
			invalid = append(invalid, fmt.Sprintf("llm.provider %q (want anthropic, gemini or perplexity)", c.LLM.Provider))
		}
		if c.LLM.MaxTokens < 1 {
			invalid = append(invalid, "llm.max_tokens must be positive")
		}
		if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
			invalid = append(invalid, "llm.temperature must be between 0 and 2")
		}
	}

	switch c.Extract.Engine {
	case "", "auto", "pdfcpu", "rscpdf":
	default:
		invalid = append(invalid, fmt.Sprintf("extract.engine %q (want auto, pdfcpu or rscpdf)", c.Extract.Engine))
	}
	switch c.OCR.Provider {
	case "", "none", "pdftotext":
	case "mistral":
		if c.OCR.MistralKey == "" {
			missing = append(missing, "ocr.mistral_key")
		}
	default:
		invalid = append(invalid, fmt.Sprintf("ocr.provider %q (want pdftotext or mistral)", c.OCR.Provider))
	}
	if c.Extract.MaxDocumentsCompare < 2 {
		invalid = append(invalid, "extract.max_documents_compare must be at least 2")
	}
	if mode == "serve" && (c.Server.Port < 1 || c.Server.Port > 65535) {
		invalid = append(invalid, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}

	if len(missing) > 0 {
		invalid = append([]string{"missing " + strings.Join(missing, ", ")}, invalid...)
	}
	if len(invalid) > 0 {
		return eris.Errorf("config: %s: %s", mode, strings.Join(invalid, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
