package config

import (
	"errors"
	"io/fs"
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

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Contacts  ContactsConfig
	Bootstrap BootstrapConfig
	Client    ClientConfig
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

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ContactsConfig tunes the public lead intake and admin listing endpoints.
type ContactsConfig struct {
	SubmitRatePerMinute int
	SubmitBurst         int
	StatsCacheEnabled   bool
	StatsCacheTTL       time.Duration
	MaxPageSize         int
}

// BootstrapConfig seeds a first administrator when the admins table is empty.
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// ClientConfig drives the admin console and the client-side pipeline.
type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	SessionDir     string
	ExportDir      string
	PageSize       int
	SearchDebounce time.Duration
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

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

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Contacts = ContactsConfig{
		SubmitRatePerMinute: positiveOr(v.GetInt("SUBMIT_RATE_PER_MINUTE"), 5),
		SubmitBurst:         positiveOr(v.GetInt("SUBMIT_BURST"), 3),
		StatsCacheEnabled:   v.GetBool("ENABLE_STATS_CACHE"),
		StatsCacheTTL:       parseDuration(v.GetString("STATS_CACHE_TTL"), time.Minute),
		MaxPageSize:         positiveOr(v.GetInt("CONTACTS_MAX_PAGE_SIZE"), 100),
	}

	cfg.Bootstrap = BootstrapConfig{
		AdminEmail:    v.GetString("ADMIN_BOOTSTRAP_EMAIL"),
		AdminPassword: v.GetString("ADMIN_BOOTSTRAP_PASSWORD"),
		AdminName:     v.GetString("ADMIN_BOOTSTRAP_NAME"),
	}

	cfg.Client = ClientConfig{
		BaseURL:        strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout:        parseDuration(v.GetString("API_TIMEOUT"), 30*time.Second),
		SessionDir:     v.GetString("SESSION_DIR"),
		ExportDir:      v.GetString("EXPORT_DIR"),
		PageSize:       positiveOr(v.GetInt("DASHBOARD_PAGE_SIZE"), 10),
		SearchDebounce: parseDuration(v.GetString("SEARCH_DEBOUNCE"), 400*time.Millisecond),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "contact_console")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "contact-console")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SUBMIT_RATE_PER_MINUTE", 5)
	v.SetDefault("SUBMIT_BURST", 3)
	v.SetDefault("ENABLE_STATS_CACHE", false)
	v.SetDefault("STATS_CACHE_TTL", "1m")
	v.SetDefault("CONTACTS_MAX_PAGE_SIZE", 100)

	v.SetDefault("ADMIN_BOOTSTRAP_EMAIL", "")
	v.SetDefault("ADMIN_BOOTSTRAP_PASSWORD", "")
	v.SetDefault("ADMIN_BOOTSTRAP_NAME", "Administrator")

	v.SetDefault("API_BASE_URL", "http://localhost:8080/api")
	v.SetDefault("API_TIMEOUT", "30s")
	v.SetDefault("SESSION_DIR", ".contact-console")
	v.SetDefault("EXPORT_DIR", "exports")
	v.SetDefault("DASHBOARD_PAGE_SIZE", 10)
	v.SetDefault("SEARCH_DEBOUNCE", "400ms")
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

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
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
