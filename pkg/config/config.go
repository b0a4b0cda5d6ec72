package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Upstream      UpstreamConfig
	Session       SessionConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	CORS          CORSConfig
	Log           LogConfig
	Snapshot      SnapshotConfig
	Dashboard     DashboardConfig
	Transitions   TransitionConfig
	Notifications NotificationConfig
}

// UpstreamConfig points at the remote auth and records services.
type UpstreamConfig struct {
	AuthURL    string
	RecordsURL string
	Timeout    time.Duration
}

// SessionConfig controls where the credential is persisted between runs.
type SessionConfig struct {
	StorePath string
	Secret    string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SnapshotConfig toggles the Redis fallback copy of the last fetched records.
type SnapshotConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// DashboardConfig tunes the recompute loop and the dashboard payload.
type DashboardConfig struct {
	TickInterval    time.Duration
	RefetchInterval time.Duration
	UpcomingLimit   int
	SubjectLimit    int
}

// TransitionConfig gates persistence of tier transitions to PostgreSQL.
type TransitionConfig struct {
	Enabled bool
}

// NotificationConfig sizes the transition notification worker pool.
type NotificationConfig struct {
	Workers int
	Retries int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Upstream = UpstreamConfig{
		AuthURL:    strings.TrimRight(v.GetString("AUTH_SERVICE_URL"), "/"),
		RecordsURL: strings.TrimRight(v.GetString("BACKEND_SERVICE_URL"), "/"),
		Timeout:    parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 10*time.Second),
	}

	cfg.Session = SessionConfig{
		StorePath: v.GetString("SESSION_STORE_PATH"),
		Secret:    v.GetString("SESSION_SECRET"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Snapshot = SnapshotConfig{
		Enabled:  v.GetBool("ENABLE_SNAPSHOT_CACHE"),
		CacheTTL: parseDuration(v.GetString("SNAPSHOT_CACHE_TTL"), 24*time.Hour),
	}

	cfg.Dashboard = DashboardConfig{
		TickInterval:    parseDuration(v.GetString("DASHBOARD_TICK_INTERVAL"), time.Minute),
		RefetchInterval: parseDuration(v.GetString("DASHBOARD_REFETCH_INTERVAL"), 5*time.Minute),
		UpcomingLimit:   v.GetInt("DASHBOARD_UPCOMING_LIMIT"),
		SubjectLimit:    v.GetInt("DASHBOARD_SUBJECT_LIMIT"),
	}

	cfg.Transitions = TransitionConfig{
		Enabled: v.GetBool("ENABLE_TRANSITION_LOG"),
	}

	cfg.Notifications = NotificationConfig{
		Workers: v.GetInt("NOTIFY_WORKERS"),
		Retries: v.GetInt("NOTIFY_RETRIES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8090)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("AUTH_SERVICE_URL", "http://localhost:8080")
	v.SetDefault("BACKEND_SERVICE_URL", "http://localhost:8081")
	v.SetDefault("UPSTREAM_TIMEOUT", "10s")

	v.SetDefault("SESSION_STORE_PATH", "./data/session.db")
	v.SetDefault("SESSION_SECRET", "dev_session_secret")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "study_planner")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SNAPSHOT_CACHE", false)
	v.SetDefault("SNAPSHOT_CACHE_TTL", "24h")

	v.SetDefault("DASHBOARD_TICK_INTERVAL", "1m")
	v.SetDefault("DASHBOARD_REFETCH_INTERVAL", "5m")
	v.SetDefault("DASHBOARD_UPCOMING_LIMIT", 5)
	v.SetDefault("DASHBOARD_SUBJECT_LIMIT", 4)

	v.SetDefault("ENABLE_TRANSITION_LOG", false)
	v.SetDefault("NOTIFY_WORKERS", 1)
	v.SetDefault("NOTIFY_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
