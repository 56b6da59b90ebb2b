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

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Cache      CacheConfig
	Scheduling SchedulingConfig
	Branding   BrandingConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	RunMigrations bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig tunes the read-through cache used by schedule views.
type CacheConfig struct {
	ScheduleTTL time.Duration
}

// SchedulingConfig holds the business constants of the scheduling engine.
type SchedulingConfig struct {
	Timezone            string
	RescheduleFeeRate   float64
	RescheduleNotice    time.Duration
	DebtHorizon         time.Duration
	DefaultMaxDebtLimit int64
}

// Location resolves the academy time zone, falling back to UTC.
func (c SchedulingConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BrandingConfig configures the cached academy logo.
type BrandingConfig struct {
	LogoURL      string
	LogoTTL      time.Duration
	RefreshSpec  string
	FetchTimeout time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		RunMigrations: v.GetBool("DB_RUN_MIGRATIONS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		ScheduleTTL: parseDuration(v.GetString("CACHE_SCHEDULE_TTL"), 5*time.Minute),
	}

	feeRate := v.GetFloat64("SCHEDULING_RESCHEDULE_FEE_RATE")
	if feeRate <= 0 {
		feeRate = 0.20
	}
	cfg.Scheduling = SchedulingConfig{
		Timezone:            v.GetString("SCHEDULING_TIMEZONE"),
		RescheduleFeeRate:   feeRate,
		RescheduleNotice:    parseDuration(v.GetString("SCHEDULING_RESCHEDULE_NOTICE"), 24*time.Hour),
		DebtHorizon:         parseDuration(v.GetString("SCHEDULING_DEBT_HORIZON"), 30*24*time.Hour),
		DefaultMaxDebtLimit: v.GetInt64("SCHEDULING_DEFAULT_MAX_DEBT_LIMIT"),
	}

	cfg.Branding = BrandingConfig{
		LogoURL:      v.GetString("BRANDING_LOGO_URL"),
		LogoTTL:      parseDuration(v.GetString("BRANDING_LOGO_TTL"), time.Hour),
		RefreshSpec:  v.GetString("BRANDING_REFRESH_SPEC"),
		FetchTimeout: parseDuration(v.GetString("BRANDING_FETCH_TIMEOUT"), 5*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academy")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_RUN_MIGRATIONS", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CACHE_SCHEDULE_TTL", "5m")

	v.SetDefault("SCHEDULING_TIMEZONE", "Asia/Tehran")
	v.SetDefault("SCHEDULING_RESCHEDULE_FEE_RATE", 0.20)
	v.SetDefault("SCHEDULING_RESCHEDULE_NOTICE", "24h")
	v.SetDefault("SCHEDULING_DEBT_HORIZON", "720h")
	v.SetDefault("SCHEDULING_DEFAULT_MAX_DEBT_LIMIT", 4000000)

	v.SetDefault("BRANDING_LOGO_URL", "")
	v.SetDefault("BRANDING_LOGO_TTL", "1h")
	v.SetDefault("BRANDING_REFRESH_SPEC", "@every 1h")
	v.SetDefault("BRANDING_FETCH_TIMEOUT", "5s")
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
