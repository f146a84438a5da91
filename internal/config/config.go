package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     string `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisCacheDB  int    `envconfig:"REDIS_CACHE_DB" default:"0"`
	// Context memory lives in its own Redis database, isolated from the
	// rerank cache.
	RedisContextDB int `envconfig:"REDIS_CONTEXT_DB" default:"1"`

	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	CompletionModel string `envconfig:"COMPLETION_MODEL" default:"gpt-4o-mini"`

	RerankingEnabled       bool    `envconfig:"RERANKING_ENABLED" default:"true"`
	RerankingModel         string  `envconfig:"RERANKING_MODEL" default:"gpt-4o-mini"`
	RerankingCacheSize     int     `envconfig:"RERANKING_CACHE_SIZE" default:"1000"`
	RerankingCacheTTLHours int     `envconfig:"RERANKING_CACHE_TTL_HOURS" default:"24"`
	RerankingMinScore      float64 `envconfig:"RERANKING_MIN_SCORE" default:"4.0"`
	RerankingMaxChunks     int     `envconfig:"RERANKING_MAX_CHUNKS" default:"3"`
	RerankingInitialChunks int     `envconfig:"RERANKING_INITIAL_CHUNKS" default:"10"`

	ConfidenceBaseline float64 `envconfig:"CONFIDENCE_BASELINE" default:"0.5"`

	ContextMemoryEnabled  bool `envconfig:"CONTEXT_MEMORY_ENABLED" default:"true"`
	ContextMemoryMaxTurns int  `envconfig:"CONTEXT_MEMORY_MAX_TURNS" default:"10"`
	ContextMemoryTTLDays  int  `envconfig:"CONTEXT_MEMORY_TTL_DAYS" default:"7"`

	TopChunks          int `envconfig:"TOP_CHUNKS" default:"3"`
	IndexScheduleHours int `envconfig:"INDEX_SCHEDULE_HOURS" default:"24"`

	SentryDSN              string  `envconfig:"SENTRY_DSN"`
	SentryEnvironment      string  `envconfig:"SENTRY_ENVIRONMENT" default:"development"`
	SentryTracesSampleRate float64 `envconfig:"SENTRY_TRACES_SAMPLE_RATE" default:"1.0"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"faqbot-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("FAQBOT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.ConfidenceBaseline < 0 || cfg.ConfidenceBaseline > 1 {
		return nil, fmt.Errorf("FAQBOT_CONFIDENCE_BASELINE must lie in [0,1], got %v", cfg.ConfidenceBaseline)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// RedisAddr returns the host:port address shared by the cache and
// context-memory Redis databases.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}
