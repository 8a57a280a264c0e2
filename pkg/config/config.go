package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Log         LogConfig        `yaml:"log"`
	Server      ServerConfig     `yaml:"server"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Upstream    UpstreamConfig   `yaml:"upstream"`
	Engine      EngineConfig     `yaml:"engine"`
	Cache       CacheConfig      `yaml:"cache"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Postgres    PostgresConfig   `yaml:"postgres"`
	Insight     InsightConfig    `yaml:"insight"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	CORS            bool          `yaml:"cors" default:"true"`
	Compression     bool          `yaml:"compression" default:"true"`
	RateLimit       struct {
		RPS   float64 `yaml:"rps" default:"10" validate:"gte=0"`
		Burst int     `yaml:"burst" default:"20" validate:"gte=0"`
	} `yaml:"rate_limit"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

// UpstreamConfig describes the market snapshot provider.
type UpstreamConfig struct {
	BaseURL     string        `yaml:"base_url" default:"https://api.polygon.io" validate:"required,url"`
	APIKey      string        `yaml:"api_key"`
	UserAgent   string        `yaml:"user_agent" default:"TradeYodha/3.0"`
	CallTimeout time.Duration `yaml:"call_timeout" default:"10s" validate:"gt=0"`
	HTTPTimeout time.Duration `yaml:"http_timeout" default:"15s" validate:"gt=0"`
	MaxInFlight int           `yaml:"max_in_flight" default:"8" validate:"gte=1,lte=64"`
	MaxTickers  int           `yaml:"max_tickers" default:"20" validate:"gte=1,lte=200"`
	RPS         float64       `yaml:"rps" default:"20" validate:"gt=0"`
	Burst       int           `yaml:"burst" default:"10" validate:"gte=1"`
	Breaker     struct {
		MaxFailures      uint32        `yaml:"max_failures" default:"5" validate:"gte=1"`
		OpenTimeout      time.Duration `yaml:"open_timeout" default:"30s"`
		HalfOpenRequests uint32        `yaml:"half_open_requests" default:"1" validate:"gte=1"`
	} `yaml:"breaker"`
}

// EngineConfig carries the signal thresholds and scopes.
type EngineConfig struct {
	UnusualPremium   float64       `yaml:"unusual_premium" default:"100000" validate:"gte=0"`
	BullishRatio     float64       `yaml:"bullish_ratio" default:"1.3" validate:"gt=0"`
	BearishRatio     float64       `yaml:"bearish_ratio" default:"0.7" validate:"gt=0"`
	TopTrades        int           `yaml:"top_trades" default:"5" validate:"gte=1,lte=50"`
	RegimeDominance  float64       `yaml:"regime_dominance" default:"0.6" validate:"gt=0,lte=1"`
	RegimeSizeSkew   float64       `yaml:"regime_size_skew" default:"0.5" validate:"gt=0,lte=1"`
	PriceTick        float64       `yaml:"price_tick" default:"0.01" validate:"gt=0"`
	MinLevelValue    float64       `yaml:"min_level_value" default:"0" validate:"gte=0"`
	TopLevels        int           `yaml:"top_levels" default:"5" validate:"gte=1,lte=50"`
	DefaultWatchlist []string      `yaml:"default_watchlist"`
	MoversUniverse   []string      `yaml:"movers_universe" default:"[\"SPY\",\"QQQ\",\"IWM\",\"DIA\",\"AAPL\",\"MSFT\",\"NVDA\",\"AMZN\",\"META\",\"GOOGL\",\"TSLA\",\"AMD\",\"NFLX\",\"AVGO\",\"JPM\",\"BAC\",\"XOM\",\"COIN\",\"PLTR\",\"UBER\"]"`
	TopMovers        int           `yaml:"top_movers" default:"5" validate:"gte=1"`
	MaxTopMovers     int           `yaml:"max_top_movers" default:"20" validate:"gte=1"`
	DarkPoolWindow   time.Duration `yaml:"darkpool_window" default:"1h" validate:"gt=0"`
	PrintLimit       int           `yaml:"print_limit" default:"5000" validate:"gte=1"`
	SummaryMaxBytes  int           `yaml:"summary_max_bytes" default:"4096" validate:"gte=256"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
	TTL           time.Duration `yaml:"ttl" default:"30s" validate:"gt=0"`
	MemoryMaxSize int           `yaml:"memory_max_size" default:"1000" validate:"gte=1"`
	Redis         struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"tradeyodha"`
	} `yaml:"redis"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic" default:"tradeyodha.signals"`
	RequiredAcks int      `yaml:"required_acks" default:"1"`
	Compression  string   `yaml:"compression" default:"zstd" validate:"oneof=gzip snappy lz4 zstd"`
	Producer     struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"100ms"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
		Async        bool          `yaml:"async" default:"true"`
	} `yaml:"producer"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"tradeyodha"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	PrintsTable      string        `yaml:"prints_table" default:"darkpool_prints" validate:"required"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"10s"`
}

type PostgresConfig struct {
	Enabled        bool   `yaml:"enabled"`
	DSN            string `yaml:"dsn"`
	WatchlistTable string `yaml:"watchlist_table" default:"watchlist_items"`
	MaxOpenConns   int    `yaml:"max_open_conns" default:"5"`
}

// InsightConfig configures the language model collaborator.
type InsightConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model" default:"gpt-4o-mini"`
	MaxTokens int64         `yaml:"max_tokens" default:"300" validate:"gte=16"`
	Timeout   time.Duration `yaml:"timeout" default:"8s" validate:"gt=0"`
	Fallback  string        `yaml:"fallback" default:"Dark pool activity summary is temporarily unavailable. Review the levels and size distribution above for institutional positioning."`
}

// envOverrides lists the environment variables that win over the YAML file.
type envOverrides struct {
	Environment      string   `envconfig:"APP_ENV"`
	Port             int      `envconfig:"PORT"`
	LogLevel         string   `envconfig:"LOG_LEVEL"`
	PolygonAPIKey    string   `envconfig:"POLYGON_API_KEY"`
	PolygonBaseURL   string   `envconfig:"POLYGON_BASE_URL"`
	DefaultWatchlist []string `envconfig:"DEFAULT_WATCHLIST"`
	CacheBackend     string   `envconfig:"CACHE_BACKEND"`
	RedisAddr        string   `envconfig:"REDIS_ADDR"`
	RedisPassword    string   `envconfig:"REDIS_PASSWORD"`
	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic       string   `envconfig:"KAFKA_TOPIC"`
	ClickHouseHost   string   `envconfig:"CLICKHOUSE_HOST"`
	PostgresDSN      string   `envconfig:"DATABASE_URL"`
	OpenAIAPIKey     string   `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL    string   `envconfig:"OPENAI_BASE_URL"`
	OpenAIModel      string   `envconfig:"OPENAI_MODEL"`
}

var validate = validator.New()

// Default returns a config populated only from struct defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads a YAML configuration file over the defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	c.apply(env)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) apply(env envOverrides) {
	setString(&c.Environment, env.Environment)
	setString(&c.Log.Level, env.LogLevel)
	setString(&c.Upstream.APIKey, env.PolygonAPIKey)
	setString(&c.Upstream.BaseURL, env.PolygonBaseURL)
	setString(&c.Cache.Backend, env.CacheBackend)
	setString(&c.Cache.Redis.Addr, env.RedisAddr)
	setString(&c.Cache.Redis.Password, env.RedisPassword)
	setString(&c.Kafka.Topic, env.KafkaTopic)
	setString(&c.Insight.APIKey, env.OpenAIAPIKey)
	setString(&c.Insight.BaseURL, env.OpenAIBaseURL)
	setString(&c.Insight.Model, env.OpenAIModel)
	if env.Port > 0 {
		c.Server.Port = env.Port
	}
	if len(env.DefaultWatchlist) > 0 {
		c.Engine.DefaultWatchlist = env.DefaultWatchlist
	}
	if len(env.KafkaBrokers) > 0 {
		c.Kafka.Brokers = env.KafkaBrokers
		c.Kafka.Enabled = true
	}
	if env.ClickHouseHost != "" {
		c.ClickHouse.Host = env.ClickHouseHost
		c.ClickHouse.Enabled = true
	}
	if env.PostgresDSN != "" {
		c.Postgres.DSN = env.PostgresDSN
		c.Postgres.Enabled = true
	}
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Engine.BearishRatio >= c.Engine.BullishRatio {
		return fmt.Errorf("engine.bearish_ratio (%v) must be below engine.bullish_ratio (%v)",
			c.Engine.BearishRatio, c.Engine.BullishRatio)
	}
	if c.Engine.TopMovers > c.Engine.MaxTopMovers {
		return fmt.Errorf("engine.top_movers (%d) exceeds engine.max_top_movers (%d)",
			c.Engine.TopMovers, c.Engine.MaxTopMovers)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Postgres.Enabled && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required when postgres is enabled")
	}
	if c.Cache.Backend != "memory" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for %s cache", c.Cache.Backend)
	}
	return nil
}
