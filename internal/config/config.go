package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	DataForSEO DataForSEOConfig `yaml:"dataforseo" mapstructure:"dataforseo"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Campaign   CampaignConfig   `yaml:"campaign" mapstructure:"campaign"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// DataForSEOConfig holds DataForSEO credentials and request settings.
// Key is a pre-encoded basic auth credential and wins over Login/Password.
type DataForSEOConfig struct {
	Login        string  `yaml:"login" mapstructure:"login"`
	Password     string  `yaml:"password" mapstructure:"password"`
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	LocationCode int     `yaml:"location_code" mapstructure:"location_code"`
	LanguageCode string  `yaml:"language_code" mapstructure:"language_code"`
}

// Configured reports whether any credential is present.
func (c DataForSEOConfig) Configured() bool {
	return c.Key != "" || (c.Login != "" && c.Password != "")
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// FetchConfig configures homepage fetching for signal extraction.
type FetchConfig struct {
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// Timeout returns the fetch timeout as a duration.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// EnrichConfig configures the enrichment updater.
type EnrichConfig struct {
	Concurrency     int `yaml:"concurrency" mapstructure:"concurrency"`
	CallTimeoutSecs int `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
}

// CallTimeout returns the per-call timeout as a duration.
func (c EnrichConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSecs) * time.Second
}

// RetryConfig configures retries of transient errors from outbound APIs.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// DiscoveryConfig configures find-leads.
type DiscoveryConfig struct {
	DefaultMaxResults int  `yaml:"default_max_results" mapstructure:"default_max_results"`
	SearchMultiplier  int  `yaml:"search_multiplier" mapstructure:"search_multiplier"`
	SearchCap         int  `yaml:"search_cap" mapstructure:"search_cap"`
	AnalyzeWorkers    int  `yaml:"analyze_workers" mapstructure:"analyze_workers"`
	DemoFallback      bool `yaml:"demo_fallback" mapstructure:"demo_fallback"`
}

// CampaignConfig configures automated campaign runs.
type CampaignConfig struct {
	IndustriesToSearch int `yaml:"industries_to_search" mapstructure:"industries_to_search"`
	LeadsPerIndustry   int `yaml:"leads_per_industry" mapstructure:"leads_per_industry"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SEOLEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets have empty defaults so AutomaticEnv picks them up on Unmarshal.
	for _, key := range []string{
		"store.database_url", "google.key", "anthropic.key",
		"dataforseo.login", "dataforseo.password", "dataforseo.key",
	} {
		v.SetDefault(key, "")
	}

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.rate_limit", 5)
	v.SetDefault("dataforseo.base_url", "https://api.dataforseo.com/v3")
	v.SetDefault("dataforseo.timeout_secs", 60)
	v.SetDefault("dataforseo.rate_limit", 2)
	v.SetDefault("dataforseo.location_code", 2840)
	v.SetDefault("dataforseo.language_code", "en")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 8000)
	v.SetDefault("fetch.timeout_secs", 10)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; SEOBot/1.0)")
	v.SetDefault("fetch.max_body_bytes", 5<<20)
	v.SetDefault("enrich.concurrency", 1)
	v.SetDefault("enrich.call_timeout_secs", 30)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("discovery.default_max_results", 3)
	v.SetDefault("discovery.search_multiplier", 6)
	v.SetDefault("discovery.search_cap", 60)
	v.SetDefault("discovery.analyze_workers", 4)
	v.SetDefault("discovery.demo_fallback", true)
	v.SetDefault("campaign.industries_to_search", 3)
	v.SetDefault("campaign.leads_per_industry", 10)

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

// Validate checks the keys a command needs. Modes match the top-level
// command names.
func (c *Config) Validate(mode string) error {
	var errs []string
	need := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, msg)
		}
	}
	needStore := func() {
		switch c.Store.Driver {
		case "postgres", "sqlite":
		default:
			errs = append(errs, "store.driver must be postgres or sqlite")
		}
		need(c.Store.DatabaseURL != "", "store.database_url is required")
	}

	switch mode {
	case "find", "import":
		needStore()
		need(c.Discovery.DefaultMaxResults > 0, "discovery.default_max_results must be > 0")
	case "campaign":
		needStore()
		need(c.Campaign.IndustriesToSearch > 0, "campaign.industries_to_search must be > 0")
		need(c.Campaign.LeadsPerIndustry > 0, "campaign.leads_per_industry must be > 0")
	case "enrich":
		needStore()
		need(c.Enrich.Concurrency >= 1 && c.Enrich.Concurrency <= 20, "enrich.concurrency must be between 1 and 20")
	case "analyze":
		need(c.Anthropic.Key != "", "anthropic.key is required")
	case "serve":
		needStore()
		need(c.Server.Port > 0, "server.port must be > 0")
		need(c.Enrich.Concurrency >= 1 && c.Enrich.Concurrency <= 20, "enrich.concurrency must be between 1 and 20")
	case "score", "report", "leads", "migrate":
		needStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
