package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Documents  DocumentsConfig  `yaml:"documents" mapstructure:"documents"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Gateway    GatewayConfig    `yaml:"gateway" mapstructure:"gateway"`
	Evaluator  EvaluatorConfig  `yaml:"evaluator" mapstructure:"evaluator"`
	Review     ReviewConfig     `yaml:"review" mapstructure:"review"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // postgres or sqlite
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// DocumentsConfig configures where stored document text lives.
type DocumentsConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// GatewayConfig configures the LLM gateway provider chain.
type GatewayConfig struct {
	// Providers is the fallback order; first success wins. Known names:
	// anthropic, perplexity, simulated.
	Providers       []string `yaml:"providers" mapstructure:"providers"`
	CallTimeoutSecs int      `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
	RatePerMinute   int      `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`

	RetryMaxAttempts        int `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	RetryBackoffMs          int `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	BreakerFailureThreshold int `yaml:"breaker_failure_threshold" mapstructure:"breaker_failure_threshold"`
	BreakerResetSecs        int `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// EvaluatorConfig configures bid evaluation behavior.
type EvaluatorConfig struct {
	// MaxTextChars bounds the bid text prefix sent per gateway call.
	MaxTextChars  int `yaml:"max_text_chars" mapstructure:"max_text_chars"`
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	ChunkSize     int `yaml:"chunk_size" mapstructure:"chunk_size"`
	ChunkOverlap  int `yaml:"chunk_overlap" mapstructure:"chunk_overlap"`
}

// ReviewConfig configures human review creation.
type ReviewConfig struct {
	DefaultPriority string `yaml:"default_priority" mapstructure:"default_priority"`
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
	v.SetEnvPrefix("PROCURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "procure.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("documents.dir", "documents")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("gateway.providers", []string{"anthropic", "perplexity", "simulated"})
	v.SetDefault("gateway.call_timeout_secs", 30)
	v.SetDefault("gateway.rate_per_minute", 60)
	v.SetDefault("gateway.retry_max_attempts", 3)
	v.SetDefault("gateway.retry_backoff_ms", 500)
	v.SetDefault("gateway.breaker_failure_threshold", 5)
	v.SetDefault("gateway.breaker_reset_secs", 60)
	v.SetDefault("evaluator.max_text_chars", 10000)
	v.SetDefault("evaluator.max_concurrent", 5)
	v.SetDefault("evaluator.chunk_size", 2000)
	v.SetDefault("evaluator.chunk_overlap", 200)
	v.SetDefault("review.default_priority", "medium")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks the loaded configuration for values that would only fail
// later, mid-run. It collects all problems rather than stopping at the first.
func (c *Config) Validate() error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}

	if len(c.Gateway.Providers) == 0 {
		problems = append(problems, "gateway.providers must name at least one provider")
	}

	if c.Evaluator.MaxConcurrent < 1 || c.Evaluator.MaxConcurrent > 50 {
		problems = append(problems, "evaluator.max_concurrent must be between 1 and 50")
	}
	if c.Evaluator.ChunkSize > 0 && c.Evaluator.ChunkOverlap >= c.Evaluator.ChunkSize {
		problems = append(problems, "evaluator.chunk_overlap must be smaller than evaluator.chunk_size")
	}

	if len(problems) > 0 {
		return eris.New("config: invalid configuration: " + strings.Join(problems, "; "))
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
