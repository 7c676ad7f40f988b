package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	Port          string `mapstructure:"PORT" validate:"required,numeric"`
	IsProduction  bool   `mapstructure:"IS_PRODUCTION"`
	LogLevel      string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	DBDriver      string `mapstructure:"DB_DRIVER" validate:"oneof=postgres sqlite memory"`
	DatabaseURL   string `mapstructure:"PGSQL_URL" validate:"required_if=DBDriver postgres"`
	SQLitePath    string `mapstructure:"SQLITE_PATH" validate:"required_if=DBDriver sqlite"`
	EnableDBCheck bool   `mapstructure:"ENABLE_DB_CHECK"`
	RunMigrations bool   `mapstructure:"RUN_MIGRATIONS"`

	DefaultCurrency     string   `mapstructure:"DEFAULT_CURRENCY" validate:"required,iso4217"`
	SupportedCurrencies []string `mapstructure:"SUPPORTED_CURRENCIES" validate:"dive,iso4217"`

	JWTSecret          string   `mapstructure:"JWT_SECRET"` // empty disables authentication
	RateLimit          string   `mapstructure:"RATE_LIMIT" validate:"required"`
	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	ReconcileInterval time.Duration `mapstructure:"RECONCILE_INTERVAL" validate:"min=0"` // zero disables the background job
	ReconcileAutoFix  bool          `mapstructure:"RECONCILE_AUTOFIX"`
	LockTimeout       time.Duration `mapstructure:"LOCK_TIMEOUT" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("SQLITE_PATH", "ledger.db")
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("DEFAULT_CURRENCY", "EUR")
	v.SetDefault("SUPPORTED_CURRENCIES", "EUR,USD,GBP")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("RECONCILE_INTERVAL", "0s")
	v.SetDefault("RECONCILE_AUTOFIX", false)
	v.SetDefault("LOCK_TIMEOUT", "5s")
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:               v.GetString("PORT"),
		IsProduction:       v.GetBool("IS_PRODUCTION"),
		LogLevel:           strings.ToLower(v.GetString("LOG_LEVEL")),
		DBDriver:           strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL:        v.GetString("PGSQL_URL"),
		SQLitePath:         v.GetString("SQLITE_PATH"),
		EnableDBCheck:      v.GetBool("ENABLE_DB_CHECK"),
		RunMigrations:      v.GetBool("RUN_MIGRATIONS"),
		DefaultCurrency:    strings.ToUpper(strings.TrimSpace(v.GetString("DEFAULT_CURRENCY"))),
		JWTSecret:          v.GetString("JWT_SECRET"),
		RateLimit:          v.GetString("RATE_LIMIT"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS"), false),
		ReconcileAutoFix:   v.GetBool("RECONCILE_AUTOFIX"),
	}
	cfg.SupportedCurrencies = splitList(v.GetString("SUPPORTED_CURRENCIES"), true)

	var err error
	if cfg.ReconcileInterval, err = parseDuration(v, "RECONCILE_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.LockTimeout, err = parseDuration(v, "LOCK_TIMEOUT"); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET not set. API authentication is disabled.")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s (%q): %w", key, raw, err)
	}
	return d, nil
}

// Currencies returns the supported currencies including the default one.
func (c *Config) Currencies() []string {
	for _, code := range c.SupportedCurrencies {
		if code == c.DefaultCurrency {
			return c.SupportedCurrencies
		}
	}
	return append([]string{c.DefaultCurrency}, c.SupportedCurrencies...)
}

func splitList(raw string, upper bool) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if upper {
			part = strings.ToUpper(part)
		}
		out = append(out, part)
	}
	return out
}
