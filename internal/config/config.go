package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Storage   StorageConfig
	Webhooks  WebhooksConfig
	Bootstrap BootstrapConfig
}

// StorageConfig selects the attachment storage backend.
type StorageConfig struct {
	Provider  string
	LocalPath string

	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	AzureConnectionString string
	AzureContainer        string
}

// WebhooksConfig carries env defaults for inbound and outbound webhooks.
// The outbound part can be overridden at runtime through webhooks.yml.
type WebhooksConfig struct {
	IncomingSecret  string
	OutgoingEnabled bool
	DefaultSecret   string
	Timeout         time.Duration

	RateLimitPerSecond float64
	RateLimitBurst     int
}

type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewWebhookConfigHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	signingSecret := strings.TrimSpace(getenv("WEBHOOK_OUTGOING_SIGNING_SECRET", ""))

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "invoicely"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "invoicely"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "invoicely.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		Storage: StorageConfig{
			Provider:              strings.ToLower(strings.TrimSpace(getenv("STORAGE_PROVIDER", "local"))),
			LocalPath:             getenv("STORAGE_LOCAL_PATH", "attachments"),
			S3Bucket:              strings.TrimSpace(getenv("STORAGE_S3_BUCKET", "")),
			S3Region:              strings.TrimSpace(getenv("STORAGE_S3_REGION", "us-east-1")),
			S3Endpoint:            strings.TrimSpace(getenv("STORAGE_S3_ENDPOINT", "")),
			S3AccessKey:           strings.TrimSpace(getenv("STORAGE_S3_ACCESS_KEY", "")),
			S3SecretKey:           strings.TrimSpace(getenv("STORAGE_S3_SECRET_KEY", "")),
			S3UsePathStyle:        getenvBool("STORAGE_S3_USE_PATH_STYLE", false),
			AzureConnectionString: strings.TrimSpace(getenv("STORAGE_AZURE_CONNECTION", "")),
			AzureContainer:        strings.TrimSpace(getenv("STORAGE_AZURE_CONTAINER", "attachments")),
		},

		Webhooks: WebhooksConfig{
			IncomingSecret:     strings.TrimSpace(getenv("WEBHOOK_INCOMING_SECRET", signingSecret)),
			OutgoingEnabled:    getenvBool("WEBHOOK_OUTGOING_ENABLED", false),
			DefaultSecret:      signingSecret,
			Timeout:            time.Duration(getenvInt("WEBHOOK_OUTGOING_TIMEOUT_SECONDS", 10)) * time.Second,
			RateLimitPerSecond: getenvFloat("WEBHOOK_RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     getenvInt("WEBHOOK_RATE_LIMIT_BURST", 40),
		},

		Bootstrap: BootstrapConfig{
			AdminEmail:    strings.ToLower(strings.TrimSpace(getenv("ADMIN_EMAIL", ""))),
			AdminPassword: getenv("ADMIN_PASSWORD", ""),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
