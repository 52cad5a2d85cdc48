package config

import (
	"errors"
	"strconv"
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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Academy  AcademyConfig
	Rates    RateConfig
	Payroll  PayrollConfig
	Mailer   MailerConfig
	Invoices InvoiceConfig
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
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AcademyConfig holds the fixed academy geofence used for GPS attendance.
// The server always recomputes the distance against these values; a client
// may run the same check as a courtesy but is never trusted for acceptance.
type AcademyConfig struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// RateOverrideRule maps course-name tokens to a fixed hourly rate. A rule
// matches when the course name contains any of its tokens, case-insensitive.
type RateOverrideRule struct {
	Tokens []string
	Rate   float64
}

// RateConfig governs rate resolution and rounding of derived session fields.
type RateConfig struct {
	OverrideRules     []RateOverrideRule
	RoundingPrecision int
}

// PayrollConfig tunes the monthly payroll summary cache.
type PayrollConfig struct {
	CacheTTL time.Duration
}

// MailerConfig carries SMTP settings for invoice delivery.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// InvoiceConfig controls invoice emailing and its retry worker pool.
type InvoiceConfig struct {
	Enabled      bool
	RetryWorkers int
	RetryDelay   time.Duration
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
		if !errors.As(err, &notFound) {
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
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Academy = AcademyConfig{
		Latitude:     v.GetFloat64("ACADEMY_LAT"),
		Longitude:    v.GetFloat64("ACADEMY_LON"),
		RadiusMeters: v.GetFloat64("ACADEMY_RADIUS_M"),
	}

	cfg.Rates = RateConfig{
		OverrideRules:     parseOverrideRules(v.GetString("RATE_OVERRIDE_RULES")),
		RoundingPrecision: v.GetInt("RATE_ROUNDING_PRECISION"),
	}

	cfg.Payroll = PayrollConfig{
		CacheTTL: parseDuration(v.GetString("PAYROLL_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Mailer = MailerConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		Username: v.GetString("SMTP_USERNAME"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("SMTP_FROM"),
	}

	cfg.Invoices = InvoiceConfig{
		Enabled:      v.GetBool("ENABLE_INVOICES"),
		RetryWorkers: v.GetInt("INVOICE_RETRY_WORKERS"),
		RetryDelay:   parseDuration(v.GetString("INVOICE_RETRY_DELAY"), 30*time.Second),
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
	v.SetDefault("DB_NAME", "academy_back_office")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "academy-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ACADEMY_LAT", 29.073694)
	v.SetDefault("ACADEMY_LON", 31.112250)
	v.SetDefault("ACADEMY_RADIUS_M", 50)

	// "competetion" is a recurring misspelling in human-entered course
	// names; the default rule tolerates it on purpose.
	v.SetDefault("RATE_OVERRIDE_RULES", "competition,competetion=75")
	v.SetDefault("RATE_ROUNDING_PRECISION", 2)

	v.SetDefault("PAYROLL_CACHE_TTL", "5m")

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "billing@academy.local")

	v.SetDefault("ENABLE_INVOICES", false)
	v.SetDefault("INVOICE_RETRY_WORKERS", 1)
	v.SetDefault("INVOICE_RETRY_DELAY", "30s")
}

// parseOverrideRules reads rules in the form
// "token1,token2=rate;token3=rate". Malformed segments are skipped.
func parseOverrideRules(raw string) []RateOverrideRule {
	var rules []RateOverrideRule
	for _, segment := range strings.Split(raw, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		parts := strings.SplitN(segment, "=", 2)
		if len(parts) != 2 {
			continue
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || rate <= 0 {
			continue
		}
		tokens := splitAndTrim(parts[0])
		if len(tokens) == 0 {
			continue
		}
		rules = append(rules, RateOverrideRule{Tokens: tokens, Rate: rate})
	}
	return rules
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
