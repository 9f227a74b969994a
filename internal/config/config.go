package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"arxivreco/internal/core"
	"arxivreco/internal/embedding"
	"arxivreco/internal/feeds"
	"arxivreco/internal/pipeline"
)

// Config holds all application configuration
type Config struct {
	App       App          `mapstructure:"app"`
	Feeds     []feeds.Spec `mapstructure:"feeds"`
	Embedding Embedding    `mapstructure:"embedding"`
	Ranking   Ranking      `mapstructure:"ranking"`
	Fetch     Fetch        `mapstructure:"fetch"`
	Output    Output       `mapstructure:"output"`
	Logging   Logging      `mapstructure:"logging"`
	Server    Server       `mapstructure:"server"`
}

// App holds general application configuration
type App struct {
	Debug       bool   `mapstructure:"debug"`
	ProfilePath string `mapstructure:"profile_path"`
	ConfigFile  string `mapstructure:"config_file"`
}

// Embedding holds embedding provider configuration
type Embedding struct {
	Provider    string       `mapstructure:"provider"`
	BatchSize   int          `mapstructure:"batch_size"`
	Concurrency int          `mapstructure:"concurrency"`
	Timeout     string       `mapstructure:"timeout"`
	OpenAI      OpenAIConfig `mapstructure:"openai"`
	Gemini      GeminiConfig `mapstructure:"gemini"`
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Dimensions int32  `mapstructure:"dimensions"`
}

// Ranking holds candidate text and digest size limits
type Ranking struct {
	TopN             int `mapstructure:"top_n"`
	MaxCharsPerPaper int `mapstructure:"max_chars_per_paper"`
	MaxProfileChars  int `mapstructure:"max_profile_chars"`
}

// Fetch holds feed download settings
type Fetch struct {
	Concurrency       int     `mapstructure:"concurrency"`
	Timeout           string  `mapstructure:"timeout"`
	UserAgent         string  `mapstructure:"user_agent"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// Output holds output configuration
type Output struct {
	Directory string `mapstructure:"directory"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Server holds configuration for the archive web server
type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Load reads .env, the YAML config file and the environment into a new Config.
// Validation failures are reported as a single *core.ConfigurationError.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigName(".arxivreco")
		v.SetConfigType("yaml")
	}

	setDefaults(v)
	bindEnvironmentVariables(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.App.ConfigFile = v.ConfigFileUsed()

	if err := postProcessConfig(config); err != nil {
		return nil, &core.ConfigurationError{Err: err}
	}

	if err := validateConfig(config); err != nil {
		return nil, &core.ConfigurationError{Err: err}
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	defaults := pipeline.DefaultConfig()

	// App defaults
	v.SetDefault("app.debug", false)
	v.SetDefault("app.profile_path", defaults.ProfileName)

	// Feed defaults
	feedDefaults := make([]map[string]any, len(defaults.Feeds))
	for i, f := range defaults.Feeds {
		feedDefaults[i] = map[string]any{"name": f.Name, "url": f.URL, "kind": f.Kind}
	}
	v.SetDefault("feeds", feedDefaults)

	// Embedding defaults
	v.SetDefault("embedding.provider", embedding.ProviderOpenAI)
	v.SetDefault("embedding.batch_size", defaults.BatchSize)
	v.SetDefault("embedding.concurrency", defaults.EmbedConcurrency)
	v.SetDefault("embedding.timeout", "60s")
	v.SetDefault("embedding.openai.model", embedding.DefaultOpenAIModel)
	v.SetDefault("embedding.openai.base_url", embedding.DefaultOpenAIBaseURL)
	v.SetDefault("embedding.gemini.model", embedding.DefaultGeminiModel)
	v.SetDefault("embedding.gemini.dimensions", embedding.DefaultGeminiDimensions)

	// Ranking defaults
	v.SetDefault("ranking.top_n", defaults.TopN)
	v.SetDefault("ranking.max_chars_per_paper", defaults.MaxCharsPerPaper)
	v.SetDefault("ranking.max_profile_chars", defaults.MaxProfileChars)

	// Fetch defaults
	v.SetDefault("fetch.concurrency", defaults.FetchConcurrency)
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.user_agent", defaults.UserAgent)
	v.SetDefault("fetch.requests_per_second", defaults.RequestsPerSec)

	// Output defaults
	v.SetDefault("output.directory", defaults.OutputDir)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables(v *viper.Viper) {
	// OpenAI API key
	bindEnvKeys(v, "embedding.openai.api_key", []string{
		"OPENAI_API_KEY",
	})

	// Gemini API key - support multiple formats
	bindEnvKeys(v, "embedding.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys(v, "embedding.provider", []string{
		"ARXIVRECO_EMBEDDING_PROVIDER",
	})

	bindEnvKeys(v, "output.directory", []string{
		"ARXIVRECO_OUTPUT_DIR",
	})

	bindEnvKeys(v, "logging.level", []string{
		"ARXIVRECO_LOG_LEVEL",
		"LOG_LEVEL",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(v *viper.Viper, viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			v.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	// Expand paths
	if config.Output.Directory != "" {
		config.Output.Directory = expandPath(config.Output.Directory)
	}
	if config.App.ProfilePath != "" {
		config.App.ProfilePath = expandPath(config.App.ProfilePath)
	}

	for i := range config.Feeds {
		config.Feeds[i].Name = strings.TrimSpace(config.Feeds[i].Name)
		config.Feeds[i].Kind = strings.ToLower(strings.TrimSpace(config.Feeds[i].Kind))
		if config.Feeds[i].Kind == "" {
			config.Feeds[i].Kind = feeds.KindListing
		}
	}

	config.Embedding.Provider = strings.ToLower(strings.TrimSpace(config.Embedding.Provider))

	if config.App.Debug {
		config.Logging.Level = "debug"
	}

	// Validate durations
	durations := map[string]string{
		"embedding.timeout": config.Embedding.Timeout,
		"fetch.timeout":     config.Fetch.Timeout,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig ensures required configuration is present
func validateConfig(config *Config) error {
	var errors []string

	if len(config.Feeds) == 0 {
		errors = append(errors, "At least one feed is required under feeds")
	}
	seen := make(map[string]bool, len(config.Feeds))
	for i, f := range config.Feeds {
		if f.Name == "" {
			errors = append(errors, fmt.Sprintf("Feed #%d has no name", i+1))
			continue
		}
		if seen[f.Name] {
			errors = append(errors, fmt.Sprintf("Duplicate feed name: %s", f.Name))
		}
		seen[f.Name] = true
		if strings.TrimSpace(f.URL) == "" {
			errors = append(errors, fmt.Sprintf("Feed %s has no url", f.Name))
		}
		if f.Kind != feeds.KindListing && f.Kind != feeds.KindRSS {
			errors = append(errors, fmt.Sprintf("Feed %s has unknown kind %q. Supported: listing, rss", f.Name, f.Kind))
		}
	}

	switch config.Embedding.Provider {
	case embedding.ProviderOpenAI, embedding.ProviderGemini:
	default:
		errors = append(errors, fmt.Sprintf("Unknown embedding provider: %s. Supported: openai, gemini", config.Embedding.Provider))
	}

	if config.Ranking.TopN < 1 {
		errors = append(errors, fmt.Sprintf("ranking.top_n must be at least 1, got %d", config.Ranking.TopN))
	}
	if config.Ranking.MaxCharsPerPaper < 1 {
		errors = append(errors, fmt.Sprintf("ranking.max_chars_per_paper must be positive, got %d", config.Ranking.MaxCharsPerPaper))
	}
	if config.Ranking.MaxProfileChars < 1 {
		errors = append(errors, fmt.Sprintf("ranking.max_profile_chars must be positive, got %d", config.Ranking.MaxProfileChars))
	}
	if config.Embedding.BatchSize < 1 {
		errors = append(errors, fmt.Sprintf("embedding.batch_size must be positive, got %d", config.Embedding.BatchSize))
	}
	if config.Embedding.Concurrency < 1 {
		errors = append(errors, fmt.Sprintf("embedding.concurrency must be positive, got %d", config.Embedding.Concurrency))
	}
	if config.Fetch.Concurrency < 1 {
		errors = append(errors, fmt.Sprintf("fetch.concurrency must be positive, got %d", config.Fetch.Concurrency))
	}
	if config.Output.Directory == "" {
		errors = append(errors, "output.directory is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// APIKey returns the credential of the selected embedding provider
func (c *Config) APIKey() string {
	if c.Embedding.Provider == embedding.ProviderGemini {
		return c.Embedding.Gemini.APIKey
	}
	return c.Embedding.OpenAI.APIKey
}

// Model returns the embedding model of the selected provider
func (c *Config) Model() string {
	if c.Embedding.Provider == embedding.ProviderGemini {
		return c.Embedding.Gemini.Model
	}
	return c.Embedding.OpenAI.Model
}

// EmbeddingOptions converts the embedding section for embedding.New
func (c *Config) EmbeddingOptions() embedding.Options {
	opts := embedding.Options{
		Provider:   c.Embedding.Provider,
		Model:      c.Model(),
		APIKey:     c.APIKey(),
		Timeout:    parseDuration(c.Embedding.Timeout),
		Dimensions: c.Embedding.Gemini.Dimensions,
	}
	if c.Embedding.Provider == embedding.ProviderOpenAI {
		opts.BaseURL = c.Embedding.OpenAI.BaseURL
	}
	return opts
}

// Pipeline returns the immutable run configuration
func (c *Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		Feeds:            append([]feeds.Spec(nil), c.Feeds...),
		TopN:             c.Ranking.TopN,
		MaxCharsPerPaper: c.Ranking.MaxCharsPerPaper,
		MaxProfileChars:  c.Ranking.MaxProfileChars,
		BatchSize:        c.Embedding.BatchSize,
		EmbedConcurrency: c.Embedding.Concurrency,
		FetchConcurrency: c.Fetch.Concurrency,
		FetchTimeout:     parseDuration(c.Fetch.Timeout),
		RequestsPerSec:   c.Fetch.RequestsPerSecond,
		UserAgent:        c.Fetch.UserAgent,
		OutputDir:        c.Output.Directory,
		ProfileName:      filepath.Base(c.App.ProfilePath),
		Model:            c.Model(),
	}
}

// parseDuration parses a duration already checked by postProcessConfig
func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
