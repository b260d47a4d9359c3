package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/crossover/internal/backtest"
	"github.com/newthinker/crossover/internal/core"
	"github.com/newthinker/crossover/internal/montecarlo"
	"github.com/newthinker/crossover/internal/optimizer"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig        `mapstructure:"server"`
	Engine     backtest.Parameters `mapstructure:"engine"`
	Optimizer  OptimizerConfig     `mapstructure:"optimizer"`
	MonteCarlo MonteCarloConfig    `mapstructure:"montecarlo"`
	Source     SourceConfig        `mapstructure:"source"`
	Storage    StorageConfig       `mapstructure:"storage"`
	LLM        LLMConfig           `mapstructure:"llm"`
	Metrics    MetricsConfig       `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	APIKey         string        `mapstructure:"api_key"`
	JobTTLHours    int           `mapstructure:"job_ttl_hours"`
	MaxJobs        int           `mapstructure:"max_jobs"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// OptimizerConfig holds the default window search and pool size.
type OptimizerConfig struct {
	optimizer.Search `mapstructure:",squash"`
	Workers          int `mapstructure:"workers"`
}

// MonteCarloConfig holds simulation defaults and pool size.
type MonteCarloConfig struct {
	montecarlo.Config `mapstructure:",squash"`
	Workers           int `mapstructure:"workers"`
}

// SourceConfig selects where price history comes from.
type SourceConfig struct {
	Provider string        `mapstructure:"provider"` // "yahoo" or "csv"
	Symbol   string        `mapstructure:"symbol"`
	CSVPath  string        `mapstructure:"csv_path"`
	Start    string        `mapstructure:"start"` // YYYY-MM-DD, empty for all history
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // 0 disables the cache
}

type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file on top of Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			JobTTLHours:    1,
			MaxJobs:        100,
			RequestTimeout: 2 * time.Minute,
		},
		Engine: backtest.DefaultParameters(),
		// no windows: the optimizer falls back to its default set
		Optimizer: OptimizerConfig{
			Search: optimizer.Search{TopN: optimizer.DefaultTopN},
		},
		MonteCarlo: MonteCarloConfig{
			Config: montecarlo.DefaultConfig(),
		},
		Source: SourceConfig{
			Provider: "yahoo",
			Symbol:   "^TWII",
			Timeout:  30 * time.Second,
			CacheTTL: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "data",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.MaxJobs < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_jobs cannot be negative, got %d", c.Server.MaxJobs))
	}

	if err := c.Engine.Validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("engine: %w", err))
	}
	if _, err := c.Optimizer.Search.Candidates(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("optimizer: %w", err))
	}
	if err := c.MonteCarlo.Config.Validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("montecarlo: %w", err))
	}

	switch c.Source.Provider {
	case "yahoo":
		if c.Source.Symbol == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("source symbol required when provider is yahoo"))
		}
	case "csv":
		if c.Source.CSVPath == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("source csv_path required when provider is csv"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown source provider %q", c.Source.Provider))
	}
	if c.Source.Start != "" {
		if _, err := core.ParseDate(c.Source.Start); err != nil {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("source start: %w", err))
		}
	}

	switch c.Storage.Type {
	case "", "localfs":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when storage type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "ollama":
			if c.LLM.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when provider is ollama"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
		}
	}

	return nil
}
