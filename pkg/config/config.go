package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the process-wide settings shared by every function.
// It is loaded once per cold start and treated as read-only afterwards.
type Config struct {
	// 环境配置
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"3000"`
	Debug       bool   `env:"DEBUG"`

	// Supabase
	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`
	// SupabaseJWTSecret checks HMAC-signed access tokens locally; tokens signed
	// with asymmetric keys are only checked by the auth API.
	SupabaseJWTSecret string `env:"SUPABASE_JWT_SECRET"`
	SupabaseDBURL     string `env:"SUPABASE_DB_URL"`

	// PostgresDSN switches the record store from the REST API to a direct connection.
	PostgresDSN string `env:"POSTGRES_DSN"`

	// Mail
	ResendAPIKey  string `env:"RESEND_API_KEY"`
	ResendBaseURL string `env:"RESEND_BASE_URL" envDefault:"https://api.resend.com"`
	MailFrom      string `env:"MAIL_FROM" envDefault:"PuantajX <onboarding@resend.dev>"`

	// Links
	FunctionsBaseURL string `env:"FUNCTIONS_BASE_URL"`
	AppBaseURL       string `env:"APP_BASE_URL" envDefault:"https://puantajx.app"`

	// HTTP
	AllowedOrigins     []string      `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"25s"`
	EmailRatePerMinute int           `env:"EMAIL_RATE_PER_MINUTE" envDefault:"10"`
}

// LoadConfig reads the .env file matching ENVIRONMENT (if present) and then
// parses the environment into a Config. Variables already set in the
// environment take precedence over file values.
func LoadConfig() (*Config, error) {
	environment := os.Getenv("ENVIRONMENT")
	switch environment {
	case "production":
		loadEnvFile(".env.production")
	default:
		loadEnvFile(".env.local")
	}

	return Parse(env.Options{})
}

// Parse builds a Config from the process environment, or from opts.Environment when set.
func Parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg.normalize()

	return &cfg, nil
}

func (c *Config) normalize() {
	// values pasted into dashboards often carry stray whitespace
	c.SupabaseURL = strings.TrimRight(strings.TrimSpace(c.SupabaseURL), "/")
	c.SupabaseServiceKey = strings.TrimSpace(c.SupabaseServiceKey)
	c.SupabaseDBURL = strings.TrimSpace(c.SupabaseDBURL)
	c.PostgresDSN = strings.TrimSpace(c.PostgresDSN)
	c.ResendAPIKey = strings.TrimSpace(c.ResendAPIKey)
	c.ResendBaseURL = strings.TrimRight(strings.TrimSpace(c.ResendBaseURL), "/")
	c.FunctionsBaseURL = strings.TrimRight(strings.TrimSpace(c.FunctionsBaseURL), "/")
	c.AppBaseURL = strings.TrimRight(strings.TrimSpace(c.AppBaseURL), "/")

	if c.SupabaseURL != "" && !strings.HasPrefix(c.SupabaseURL, "http") {
		c.SupabaseURL = "https://" + c.SupabaseURL
	}

	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c.AllowedOrigins = origins

	if c.IsProduction() {
		c.Debug = false
	}
}

// Cached config (initialized once per cold start)
var (
	cachedConfig *Config
	cachedErr    error
	configOnce   sync.Once
)

// GetCached returns the process-wide Config. On serverless platforms it is
// parsed once per cold start and reused across warm invocations.
func GetCached() (*Config, error) {
	configOnce.Do(func() {
		cachedConfig, cachedErr = LoadConfig()
	})
	return cachedConfig, cachedErr
}

// Validate checks that the settings required by the functions are present.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required")
	}

	if c.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY is required")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.IsProduction() && c.FunctionsBaseURL == "" {
		return fmt.Errorf("FUNCTIONS_BASE_URL must be set in production")
	}

	return nil
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// UsesDirectPostgres reports whether the record store talks to Postgres directly.
func (c *Config) UsesDirectPostgres() bool {
	return c.PostgresDSN != ""
}

// loadEnvFile loads KEY=VALUE pairs from filename without overriding the
// existing environment. A missing file is not an error.
func loadEnvFile(filename string) {
	if _, err := os.Stat(filename); err != nil {
		return
	}
	_ = godotenv.Load(filename)
}
