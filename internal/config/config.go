package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"kontra/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	S3         S3Config
	Log        LogConfig
	Cache      CacheConfig
	Chunker    ChunkerConfig
	Embedding  ProviderConfig
	Extraction ExtractionConfig
	RAG        RAGConfig
	Policy     PolicyConfig
	Sweep      SweepConfig
	CORS       CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds settings for the S3-backed document source.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CacheConfig holds settings for all three cache tiers.
type CacheConfig struct {
	L1MaxEntries int           `mapstructure:"l1_max_entries"`
	L1TTL        time.Duration `mapstructure:"l1_ttl"`
	L2TTL        time.Duration `mapstructure:"l2_ttl"`
	L3TTL        time.Duration `mapstructure:"l3_ttl"`
}

// ChunkerConfig holds chunking parameters.
type ChunkerConfig struct {
	TargetSize int `mapstructure:"target_size"`
	Overlap    int `mapstructure:"overlap"`
}

// ProviderConfig holds settings for a single external AI provider endpoint.
type ProviderConfig struct {
	Provider     string  `mapstructure:"provider"`
	APIKey       string  `mapstructure:"api_key"`
	Model        string  `mapstructure:"model"`
	Endpoint     string  `mapstructure:"endpoint"`
	MaxAttempts  int     `mapstructure:"max_attempts"`
	TimeoutSecs  int     `mapstructure:"timeout_secs"`
	RateLimitRPS float64 `mapstructure:"rate_limit_rps"`
}

// ExtractionConfig holds extraction provider settings plus the confidence
// floor below which a result is routed to manual review.
type ExtractionConfig struct {
	ProviderConfig  `mapstructure:",squash"`
	ReviewThreshold float64 `mapstructure:"review_threshold"`
}

// RAGConfig holds retrieval defaults applied when a request omits them.
type RAGConfig struct {
	DefaultLimit     int     `mapstructure:"default_limit"`
	DefaultThreshold float64 `mapstructure:"default_threshold"`
}

// PolicyConfig holds the static per-field correction policy table. Fields is
// a JSON array so the whole table can be supplied via one environment
// variable.
type PolicyConfig struct {
	Fields []domain.FieldCorrectionPolicy
}

// SweepConfig controls the optional in-process expiry sweep worker. Disabled
// by default: sweep scheduling is normally owned by the operator.
type SweepConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

const defaultPolicyFields = `[
  {"field": "contract_value", "query": "What is the total value of the contract?", "threshold": 0.90},
  {"field": "termination_notice_period", "query": "What notice period applies to termination of the contract?", "threshold": 0.85},
  {"field": "payment_due_days", "query": "Within how many days are invoices payable?", "threshold": 0.85},
  {"field": "data_protection_officer", "query": "Who is named as the data protection officer or privacy contact?", "threshold": 0.80},
  {"field": "subject_matter", "query": "What is the subject matter of the contract?", "threshold": 0.70}
]`

// Load reads configuration from environment variables with the KONTRA_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KONTRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "kontra")
	v.SetDefault("db.password", "kontra_secret")
	v.SetDefault("db.name", "kontra_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 document source defaults
	v.SetDefault("s3.region", "eu-central-1")
	v.SetDefault("s3.bucket", "kontra-documents")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.key_prefix", "normalized/")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Cache defaults: L1 is small and short-lived, L2/L3 are durable
	// investments with long TTLs.
	v.SetDefault("cache.l1_max_entries", 1000)
	v.SetDefault("cache.l1_ttl", "15m")
	v.SetDefault("cache.l2_ttl", "720h")
	v.SetDefault("cache.l3_ttl", "168h")

	// Chunker defaults
	v.SetDefault("chunker.target_size", 1200)
	v.SetDefault("chunker.overlap", 150)

	// Embedding provider defaults
	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.endpoint", "")
	v.SetDefault("embedding.max_attempts", 3)
	v.SetDefault("embedding.timeout_secs", 30)
	v.SetDefault("embedding.rate_limit_rps", 10)

	// Extraction provider defaults
	v.SetDefault("extraction.provider", "openai")
	v.SetDefault("extraction.api_key", "")
	v.SetDefault("extraction.model", "gpt-4o")
	v.SetDefault("extraction.endpoint", "")
	v.SetDefault("extraction.max_attempts", 3)
	v.SetDefault("extraction.timeout_secs", 120)
	v.SetDefault("extraction.rate_limit_rps", 2)
	v.SetDefault("extraction.review_threshold", 0.6)

	// RAG defaults
	v.SetDefault("rag.default_limit", 5)
	v.SetDefault("rag.default_threshold", 0.4)

	// Field correction policies (JSON array)
	v.SetDefault("policy.fields", defaultPolicyFields)

	// Sweep worker defaults
	v.SetDefault("sweep.enabled", false)
	v.SetDefault("sweep.interval", "1h")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "KONTRA_SERVER_PORT",
		"server.read_timeout":         "KONTRA_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "KONTRA_SERVER_WRITE_TIMEOUT",
		"server.environment":          "KONTRA_SERVER_ENVIRONMENT",
		"db.host":                     "KONTRA_DB_HOST",
		"db.port":                     "KONTRA_DB_PORT",
		"db.user":                     "KONTRA_DB_USER",
		"db.password":                 "KONTRA_DB_PASSWORD",
		"db.name":                     "KONTRA_DB_NAME",
		"db.sslmode":                  "KONTRA_DB_SSLMODE",
		"db.max_open":                 "KONTRA_DB_MAX_OPEN",
		"db.max_idle":                 "KONTRA_DB_MAX_IDLE",
		"s3.region":                   "KONTRA_S3_REGION",
		"s3.bucket":                   "KONTRA_S3_BUCKET",
		"s3.endpoint":                 "KONTRA_S3_ENDPOINT",
		"s3.access_key":               "KONTRA_S3_ACCESS_KEY",
		"s3.secret_key":               "KONTRA_S3_SECRET_KEY",
		"s3.key_prefix":               "KONTRA_S3_KEY_PREFIX",
		"log.level":                   "KONTRA_LOG_LEVEL",
		"log.format":                  "KONTRA_LOG_FORMAT",
		"cache.l1_max_entries":        "KONTRA_CACHE_L1_MAX_ENTRIES",
		"cache.l1_ttl":                "KONTRA_CACHE_L1_TTL",
		"cache.l2_ttl":                "KONTRA_CACHE_L2_TTL",
		"cache.l3_ttl":                "KONTRA_CACHE_L3_TTL",
		"chunker.target_size":         "KONTRA_CHUNKER_TARGET_SIZE",
		"chunker.overlap":             "KONTRA_CHUNKER_OVERLAP",
		"embedding.provider":          "KONTRA_EMBEDDING_PROVIDER",
		"embedding.api_key":           "KONTRA_EMBEDDING_API_KEY",
		"embedding.model":             "KONTRA_EMBEDDING_MODEL",
		"embedding.endpoint":          "KONTRA_EMBEDDING_ENDPOINT",
		"embedding.max_attempts":      "KONTRA_EMBEDDING_MAX_ATTEMPTS",
		"embedding.timeout_secs":      "KONTRA_EMBEDDING_TIMEOUT_SECS",
		"embedding.rate_limit_rps":    "KONTRA_EMBEDDING_RATE_LIMIT_RPS",
		"extraction.provider":         "KONTRA_EXTRACTION_PROVIDER",
		"extraction.api_key":          "KONTRA_EXTRACTION_API_KEY",
		"extraction.model":            "KONTRA_EXTRACTION_MODEL",
		"extraction.endpoint":         "KONTRA_EXTRACTION_ENDPOINT",
		"extraction.max_attempts":     "KONTRA_EXTRACTION_MAX_ATTEMPTS",
		"extraction.timeout_secs":     "KONTRA_EXTRACTION_TIMEOUT_SECS",
		"extraction.rate_limit_rps":   "KONTRA_EXTRACTION_RATE_LIMIT_RPS",
		"extraction.review_threshold": "KONTRA_EXTRACTION_REVIEW_THRESHOLD",
		"rag.default_limit":           "KONTRA_RAG_DEFAULT_LIMIT",
		"rag.default_threshold":       "KONTRA_RAG_DEFAULT_THRESHOLD",
		"policy.fields":               "KONTRA_POLICY_FIELDS",
		"sweep.enabled":               "KONTRA_SWEEP_ENABLED",
		"sweep.interval":              "KONTRA_SWEEP_INTERVAL",
		"cors.allowed_origins":        "KONTRA_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if KONTRA_SERVER_PORT
	// is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("KONTRA_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
		KeyPrefix: v.GetString("s3.key_prefix"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Cache = CacheConfig{
		L1MaxEntries: v.GetInt("cache.l1_max_entries"),
		L1TTL:        v.GetDuration("cache.l1_ttl"),
		L2TTL:        v.GetDuration("cache.l2_ttl"),
		L3TTL:        v.GetDuration("cache.l3_ttl"),
	}
	cfg.Chunker = ChunkerConfig{
		TargetSize: v.GetInt("chunker.target_size"),
		Overlap:    v.GetInt("chunker.overlap"),
	}
	cfg.Embedding = ProviderConfig{
		Provider:     v.GetString("embedding.provider"),
		APIKey:       v.GetString("embedding.api_key"),
		Model:        v.GetString("embedding.model"),
		Endpoint:     v.GetString("embedding.endpoint"),
		MaxAttempts:  v.GetInt("embedding.max_attempts"),
		TimeoutSecs:  v.GetInt("embedding.timeout_secs"),
		RateLimitRPS: v.GetFloat64("embedding.rate_limit_rps"),
	}
	cfg.Extraction = ExtractionConfig{
		ProviderConfig: ProviderConfig{
			Provider:     v.GetString("extraction.provider"),
			APIKey:       v.GetString("extraction.api_key"),
			Model:        v.GetString("extraction.model"),
			Endpoint:     v.GetString("extraction.endpoint"),
			MaxAttempts:  v.GetInt("extraction.max_attempts"),
			TimeoutSecs:  v.GetInt("extraction.timeout_secs"),
			RateLimitRPS: v.GetFloat64("extraction.rate_limit_rps"),
		},
		ReviewThreshold: v.GetFloat64("extraction.review_threshold"),
	}
	cfg.RAG = RAGConfig{
		DefaultLimit:     v.GetInt("rag.default_limit"),
		DefaultThreshold: v.GetFloat64("rag.default_threshold"),
	}

	var fields []domain.FieldCorrectionPolicy
	if err := json.Unmarshal([]byte(v.GetString("policy.fields")), &fields); err != nil {
		return nil, fmt.Errorf("parsing policy.fields: %w", err)
	}
	cfg.Policy = PolicyConfig{Fields: fields}

	cfg.Sweep = SweepConfig{
		Enabled:  v.GetBool("sweep.enabled"),
		Interval: v.GetDuration("sweep.interval"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	return cfg, nil
}
