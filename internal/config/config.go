package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP
	HTTPPort string

	// PostgreSQL
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Pipeline channels
	DBChannelSize    int
	StateChannelSize int
	AlertChannelSize int

	// Batch writer tuning
	DBBatchSize       int
	DBFlushIntervalMS int

	// Worker counts
	DBWriterWorkers    int
	StateWriterWorkers int
	AlertWorkers       int

	// Alerting
	SweepInterval  time.Duration
	AlertDedupTTL  time.Duration
	ThresholdsFile string

	// Auth
	AuthCacheTTLSeconds int
	ValidAPIKeys        []string

	// Logging
	LogLevel  string
	LogFormat string

	// Mail notifications; disabled when SMTPHost is empty
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	NotifyFrom       string
	NotifyRecipients []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8001"),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "fleet_user"),
		DBPassword:          getEnv("DB_PASSWORD", "fleet_password"),
		DBName:              getEnv("DB_NAME", "fleet_maintenance"),
		DBMaxConns:          int32(getEnvInt("DB_MAX_CONNS", 15)),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		DBChannelSize:       getEnvInt("DB_CHANNEL_SIZE", 10000),
		StateChannelSize:    getEnvInt("STATE_CHANNEL_SIZE", 10000),
		AlertChannelSize:    getEnvInt("ALERT_CHANNEL_SIZE", 10000),
		DBBatchSize:         getEnvInt("DB_BATCH_SIZE", 200),
		DBFlushIntervalMS:   getEnvInt("DB_FLUSH_INTERVAL_MS", 250),
		DBWriterWorkers:     getEnvInt("DB_WRITER_WORKERS", 4),
		StateWriterWorkers:  getEnvInt("STATE_WRITER_WORKERS", 2),
		AlertWorkers:        getEnvInt("ALERT_WORKERS", 2),
		SweepInterval:       getEnvDuration("SWEEP_INTERVAL", time.Hour),
		AlertDedupTTL:       getEnvDuration("ALERT_DEDUP_TTL", 24*time.Hour),
		ThresholdsFile:      getEnv("THRESHOLDS_FILE", ""),
		AuthCacheTTLSeconds: getEnvInt("AUTH_CACHE_TTL_SECONDS", 300),
		ValidAPIKeys:        getEnvList("VALID_API_KEYS"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
		SMTPUser:            getEnv("SMTP_USER", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		NotifyFrom:          getEnv("NOTIFY_FROM", ""),
		NotifyRecipients:    getEnvList("NOTIFY_RECIPIENTS"),
	}
}

// DSN is the single-connection PostgreSQL URL.
func (c *Config) DSN() string {
	u := c.postgresURL()
	return u.String()
}

// DatabaseURL is the pgxpool connection string including the pool size.
func (c *Config) DatabaseURL() string {
	u := c.postgresURL()
	u.RawQuery = "pool_max_conns=" + strconv.Itoa(int(c.DBMaxConns))
	return u.String()
}

func (c *Config) postgresURL() url.URL {
	return url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   net.JoinHostPort(c.DBHost, c.DBPort),
		Path:   "/" + c.DBName,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
