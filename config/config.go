package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Env string

const (
	Dev        Env = "development"
	Test       Env = "test"
	Preview    Env = "preview"
	Production Env = "production"
)

type AliExpressConfig struct {
	AppKey            string
	AppSecret         string
	Gateway           string
	TrackingID        string
	PromotionLinkType string
	APIVersion        string
	SignMethod        string
	// TimestampFormat selects the provider-mandated timestamp encoding:
	// "millis" (epoch milliseconds) or "datetime" (YYYY-MM-DD HH:MM:SS UTC).
	TimestampFormat string
	Timeout         time.Duration
}

type ResolverConfig struct {
	Enabled bool
	// Hosts are substrings that mark a URL as redirect-bearing (short-link
	// services, marketplace share paths). Anything else is left untouched.
	Hosts   []string
	Timeout time.Duration
}

type StrategyConfig struct {
	// PortalTemplate substitutes the encoded product URL for {{url}}.
	PortalTemplate string
	LinkPrefix     string
}

type PipelineConfig struct {
	MaxMessages    int
	MaxPostsPerRun int
	PostDelay      time.Duration
	RunBudget      time.Duration
}

type LedgerConfig struct {
	// Backend: memory | file | sql | redis | feed.
	Backend  string
	FilePath string
	// Cooldown of zero means deduplication is permanent.
	Cooldown     time.Duration
	FeedLookback int
}

type FeedConfig struct {
	// Dir holds one <channel>.jsonl export per source channel.
	Dir string
}

type TelegramConfig struct {
	BotToken       string
	APIBase        string
	TargetChannel  string
	SourceChannels []string
	Timeout        time.Duration
}

type TursoConfig struct {
	DSN   string
	Path  string
	Token string
}

type RabbitMQConfig struct {
	URL             string
	Exchange        string
	Queue           string
	RoutingKey      string
	Prefetch        int
	DeclareTopology bool
}

type InngestConfig struct {
	AppID      string
	ServeHost  string
	ServePath  string
	SigningKey string
	EventKey   string
	Dev        bool
}

type Config struct {
	AppName string
	ENV     Env
	AppPort int

	LogLevel string

	AliExpress AliExpressConfig
	Resolver   ResolverConfig
	Strategy   StrategyConfig
	Pipeline   PipelineConfig
	Ledger     LedgerConfig
	Feed       FeedConfig
	Telegram   TelegramConfig

	// Postgres (optional; enabled only when DBHost + DBName are set).
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     int
	DBName     string

	// Redis (optional; enabled only when RedisHost is set).
	RedisUser     string
	RedisPassword string
	RedisHost     string
	RedisPort     int
	RedisScheme   string

	Turso    TursoConfig
	RabbitMQ RabbitMQConfig
	Inngest  InngestConfig
}

func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "alideal-affiliate-relay")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("ALIEXPRESS_GATEWAY", "https://api-sg.aliexpress.com/sync")
	v.SetDefault("ALIEXPRESS_TRACKING_ID", "telegram_relay")
	v.SetDefault("ALIEXPRESS_PROMOTION_LINK_TYPE", "0")
	v.SetDefault("ALIEXPRESS_API_VERSION", "2.0")
	v.SetDefault("ALIEXPRESS_SIGN_METHOD", "md5")
	v.SetDefault("ALIEXPRESS_TIMESTAMP_FORMAT", "millis")
	v.SetDefault("ALIEXPRESS_TIMEOUT", "15s")

	v.SetDefault("RESOLVER_ENABLED", true)
	v.SetDefault("RESOLVER_HOSTS", "s.click,bit.ly,tinyurl,t.me,star.aliexpress")
	v.SetDefault("RESOLVER_TIMEOUT", "10s")

	v.SetDefault("PIPELINE_MAX_MESSAGES", 50)
	v.SetDefault("PIPELINE_MAX_POSTS_PER_RUN", 10)
	v.SetDefault("PIPELINE_POST_DELAY", "2s")
	v.SetDefault("PIPELINE_RUN_BUDGET", "0s")

	v.SetDefault("LEDGER_BACKEND", "memory")
	v.SetDefault("LEDGER_FILE_PATH", "posted_ids.txt")
	v.SetDefault("LEDGER_COOLDOWN", "0s")
	v.SetDefault("LEDGER_FEED_LOOKBACK", 200)

	v.SetDefault("FEED_DIR", "feed")

	v.SetDefault("TELEGRAM_API_BASE", "https://api.telegram.org")
	v.SetDefault("TELEGRAM_TIMEOUT", "15s")

	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_SCHEME", "redis")

	v.SetDefault("RABBITMQ_EXCHANGE", "events")
	v.SetDefault("RABBITMQ_QUEUE", "feed.scan")
	v.SetDefault("RABBITMQ_ROUTING_KEY", "feed.scan.requested.v1")
	v.SetDefault("RABBITMQ_PREFETCH", 1)
	v.SetDefault("RABBITMQ_DECLARE_TOPOLOGY", false)

	v.SetDefault("INNGEST_SERVE_PATH", "/api/inngest")

	return v
}

func NewConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppName: v.GetString("APP_NAME"),
		ENV:     Env(v.GetString("APP_ENV")),
		AppPort: v.GetInt("APP_PORT"),

		LogLevel: v.GetString("LOG_LEVEL"),

		AliExpress: AliExpressConfig{
			AppKey:            v.GetString("ALIEXPRESS_APP_KEY"),
			AppSecret:         v.GetString("ALIEXPRESS_APP_SECRET"),
			Gateway:           v.GetString("ALIEXPRESS_GATEWAY"),
			TrackingID:        v.GetString("ALIEXPRESS_TRACKING_ID"),
			PromotionLinkType: v.GetString("ALIEXPRESS_PROMOTION_LINK_TYPE"),
			APIVersion:        v.GetString("ALIEXPRESS_API_VERSION"),
			SignMethod:        v.GetString("ALIEXPRESS_SIGN_METHOD"),
			TimestampFormat:   v.GetString("ALIEXPRESS_TIMESTAMP_FORMAT"),
			Timeout:           v.GetDuration("ALIEXPRESS_TIMEOUT"),
		},
		Resolver: ResolverConfig{
			Enabled: v.GetBool("RESOLVER_ENABLED"),
			Hosts:   splitList(v.GetString("RESOLVER_HOSTS")),
			Timeout: v.GetDuration("RESOLVER_TIMEOUT"),
		},
		Strategy: StrategyConfig{
			PortalTemplate: v.GetString("STRATEGY_PORTAL_TEMPLATE"),
			LinkPrefix:     v.GetString("STRATEGY_LINK_PREFIX"),
		},
		Pipeline: PipelineConfig{
			MaxMessages:    v.GetInt("PIPELINE_MAX_MESSAGES"),
			MaxPostsPerRun: v.GetInt("PIPELINE_MAX_POSTS_PER_RUN"),
			PostDelay:      v.GetDuration("PIPELINE_POST_DELAY"),
			RunBudget:      v.GetDuration("PIPELINE_RUN_BUDGET"),
		},
		Ledger: LedgerConfig{
			Backend:      strings.ToLower(strings.TrimSpace(v.GetString("LEDGER_BACKEND"))),
			FilePath:     v.GetString("LEDGER_FILE_PATH"),
			Cooldown:     v.GetDuration("LEDGER_COOLDOWN"),
			FeedLookback: v.GetInt("LEDGER_FEED_LOOKBACK"),
		},
		Feed: FeedConfig{
			Dir: v.GetString("FEED_DIR"),
		},
		Telegram: TelegramConfig{
			BotToken:       v.GetString("TELEGRAM_BOT_TOKEN"),
			APIBase:        v.GetString("TELEGRAM_API_BASE"),
			TargetChannel:  v.GetString("TELEGRAM_TARGET_CHANNEL"),
			SourceChannels: splitList(v.GetString("TELEGRAM_SOURCE_CHANNELS")),
			Timeout:        v.GetDuration("TELEGRAM_TIMEOUT"),
		},

		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetInt("DB_PORT"),
		DBName:     v.GetString("DB_NAME"),

		RedisUser:     v.GetString("REDIS_USER"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisHost:     v.GetString("REDIS_HOST"),
		RedisPort:     v.GetInt("REDIS_PORT"),
		RedisScheme:   v.GetString("REDIS_SCHEME"),

		Turso: TursoConfig{
			DSN:   v.GetString("TURSO_SQLITE_DSN"),
			Path:  v.GetString("TURSO_SQLITE_PATH"),
			Token: v.GetString("TURSO_SQLITE_TOKEN"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:             v.GetString("RABBITMQ_URL"),
			Exchange:        v.GetString("RABBITMQ_EXCHANGE"),
			Queue:           v.GetString("RABBITMQ_QUEUE"),
			RoutingKey:      v.GetString("RABBITMQ_ROUTING_KEY"),
			Prefetch:        v.GetInt("RABBITMQ_PREFETCH"),
			DeclareTopology: v.GetBool("RABBITMQ_DECLARE_TOPOLOGY"),
		},
		Inngest: InngestConfig{
			AppID:      v.GetString("INNGEST_APP_ID"),
			ServeHost:  v.GetString("INNGEST_SERVE_HOST"),
			ServePath:  v.GetString("INNGEST_SERVE_PATH"),
			SigningKey: v.GetString("INNGEST_SIGNING_KEY"),
			EventKey:   v.GetString("INNGEST_EVENT_KEY"),
			Dev:        v.GetBool("INNGEST_DEV"),
		},
	}

	if cfg.AppPort <= 0 || cfg.AppPort > 65535 {
		return nil, fmt.Errorf("invalid APP_PORT %d", cfg.AppPort)
	}
	if cfg.DBPort <= 0 || cfg.DBPort > 65535 {
		return nil, fmt.Errorf("invalid DB_PORT %d", cfg.DBPort)
	}
	if cfg.RedisPort <= 0 || cfg.RedisPort > 65535 {
		return nil, fmt.Errorf("invalid REDIS_PORT %d", cfg.RedisPort)
	}
	switch cfg.AliExpress.TimestampFormat {
	case "millis", "datetime":
	default:
		return nil, fmt.Errorf("invalid ALIEXPRESS_TIMESTAMP_FORMAT %q (want millis or datetime)", cfg.AliExpress.TimestampFormat)
	}
	switch cfg.Ledger.Backend {
	case "memory", "file", "sql", "redis", "feed":
	default:
		return nil, fmt.Errorf("invalid LEDGER_BACKEND %q", cfg.Ledger.Backend)
	}
	if cfg.Ledger.Backend == "file" && strings.TrimSpace(cfg.Ledger.FilePath) == "" {
		return nil, fmt.Errorf("LEDGER_BACKEND=file requires LEDGER_FILE_PATH")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
