package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the search backend
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Search    SearchConfig    `mapstructure:"search"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug           bool   `mapstructure:"debug"`
	LogLevel        string `mapstructure:"log_level"`
	Listen          string `mapstructure:"listen"`
	EnableFastPath  bool   `mapstructure:"enable_fast_path"`
	EnableStreaming bool   `mapstructure:"enable_streaming"`
	EnableCaching   bool   `mapstructure:"enable_caching"`
}

// LLMConfig contains settings for the OpenAI-compatible completion API
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.Model) == "" {
		return errors.New("llm.model required")
	}
	return nil
}

// ProvidersConfig contains upstream financial data provider settings
type ProvidersConfig struct {
	Polygon    PolygonConfig    `mapstructure:"polygon"`
	FinData    FinDataConfig    `mapstructure:"financial_datasets"`
	Perplexity PerplexityConfig `mapstructure:"perplexity"`
}

// PolygonConfig contains Polygon.io settings
type PolygonConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Retries  int           `mapstructure:"retries"`
}

// FinDataConfig contains FinancialDatasets.ai settings
type FinDataConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Retries  int           `mapstructure:"retries"`
}

// PerplexityConfig contains Perplexity settings. Deep research runs with a
// longer timeout than sonar search.
type PerplexityConfig struct {
	APIKey              string        `mapstructure:"api_key"`
	Endpoint            string        `mapstructure:"endpoint"`
	Model               string        `mapstructure:"model"`
	SonarTimeout        time.Duration `mapstructure:"sonar_timeout"`
	DeepResearchTimeout time.Duration `mapstructure:"deep_research_timeout"`
}

// StorageConfig contains cache backing settings
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
	Cache CacheConfig `mapstructure:"cache"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Addr() string { return fmt.Sprintf("%s:%s", r.Host, r.Port) }

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return errors.New("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return errors.New("storage.redis.port required")
	}
	return nil
}

// CacheConfig controls the two query caches (plan and response)
type CacheConfig struct {
	Backend     string        `mapstructure:"backend"` // redis, memory, none
	PlanTTL     time.Duration `mapstructure:"plan_ttl"`
	ResponseTTL time.Duration `mapstructure:"response_ttl"`
}

func (c CacheConfig) Validate() error {
	switch c.Backend {
	case "redis", "memory", "none":
		return nil
	}
	return fmt.Errorf("storage.cache.backend must be redis, memory or none, got %q", c.Backend)
}

// SessionsConfig controls conversation history storage
type SessionsConfig struct {
	Backend     string        `mapstructure:"backend"` // memory, redis
	TTL         time.Duration `mapstructure:"ttl"`
	MaxMessages int           `mapstructure:"max_messages"`
}

func (s SessionsConfig) Validate() error {
	switch s.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("sessions.backend must be memory or redis, got %q", s.Backend)
	}
	if s.MaxMessages <= 0 {
		return errors.New("sessions.max_messages must be > 0")
	}
	return nil
}

// SearchConfig contains orchestration settings
type SearchConfig struct {
	MaxConcurrentTasks int `mapstructure:"max_concurrent_tasks"`
	NewsLimit          int `mapstructure:"news_limit"`
	StatementsLimit    int `mapstructure:"statements_limit"`
	InsiderTradesLimit int `mapstructure:"insider_trades_limit"`
	FilingsLimit       int `mapstructure:"filings_limit"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults() {
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.listen", ":8000")
	viper.SetDefault("general.enable_fast_path", true)
	viper.SetDefault("general.enable_streaming", true)
	viper.SetDefault("general.enable_caching", true)

	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.model", "gpt-4-turbo")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.max_tokens", 1500)
	viper.SetDefault("llm.timeout", 60*time.Second)

	viper.SetDefault("providers.polygon.endpoint", "https://api.polygon.io")
	viper.SetDefault("providers.polygon.timeout", 15*time.Second)
	viper.SetDefault("providers.polygon.retries", 1)
	viper.SetDefault("providers.financial_datasets.endpoint", "https://api.financialdatasets.ai")
	viper.SetDefault("providers.financial_datasets.timeout", 15*time.Second)
	viper.SetDefault("providers.financial_datasets.retries", 1)
	viper.SetDefault("providers.perplexity.endpoint", "https://api.perplexity.ai")
	viper.SetDefault("providers.perplexity.model", "sonar")
	viper.SetDefault("providers.perplexity.sonar_timeout", 60*time.Second)
	viper.SetDefault("providers.perplexity.deep_research_timeout", 90*time.Second)

	viper.SetDefault("storage.redis.host", "localhost")
	viper.SetDefault("storage.redis.port", "6379")
	viper.SetDefault("storage.redis.timeout", 5*time.Second)
	viper.SetDefault("storage.cache.backend", "memory")
	viper.SetDefault("storage.cache.plan_ttl", time.Hour)
	viper.SetDefault("storage.cache.response_ttl", 30*time.Minute)

	viper.SetDefault("sessions.backend", "memory")
	viper.SetDefault("sessions.ttl", 24*time.Hour)
	viper.SetDefault("sessions.max_messages", 20)

	viper.SetDefault("search.max_concurrent_tasks", 8)
	viper.SetDefault("search.news_limit", 5)
	viper.SetDefault("search.statements_limit", 4)
	viper.SetDefault("search.insider_trades_limit", 10)
	viper.SetDefault("search.filings_limit", 5)

	viper.SetDefault("telemetry.enabled", true)
}

// LoadConfig loads config from file, falling back to env vars and defaults
// when no file is present. Invalid configuration panics at startup.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	setDefaults()

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("FINSEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.LLM.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Cache.Validate(); err != nil {
		panic(err)
	}
	if err := config.Sessions.Validate(); err != nil {
		panic(err)
	}
	if config.Storage.Cache.Backend == "redis" || config.Sessions.Backend == "redis" {
		if err := config.Storage.Redis.Validate(); err != nil {
			panic(err)
		}
	}
	return &config
}
