package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"taskboard/internal/domain/plans"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DBURL       string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string
	AppEnv      string
	LogLevel    string
	LogFormat   string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeTimeout       time.Duration

	SlackSigningSecret string

	GoogleClientID         string
	GoogleClientSecret     string
	GoogleRedirectURL      string
	GoogleFrontendRedirect string

	ExpirySweepSchedule string
	SubscriptionPeriod  time.Duration

	Plans []plans.Plan
}

// Load reads .env (if any) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds the config from an arbitrary key lookup.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	env := envReader{lookup: lookup}

	cfg := &Config{
		Port:        env.get("PORT", "8080"),
		DBURL:       env.must("DB_URL"),
		JWTSecret:   env.must("JWT_SECRET"),
		TokenTTL:    env.duration("TOKEN_TTL", 24*time.Hour),
		CORSOrigins: splitList(env.get("CORS_ORIGINS", "*")),
		AppEnv:      env.get("APP_ENV", "development"),
		LogLevel:    env.get("LOG_LEVEL", "info"),
		LogFormat:   env.get("LOG_FORMAT", "json"),

		StripeSecretKey:     env.get("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: env.get("STRIPE_WEBHOOK_SECRET", ""),
		StripeTimeout:       env.duration("STRIPE_TIMEOUT", 15*time.Second),

		SlackSigningSecret: env.get("SLACK_SIGNING_SECRET", ""),

		GoogleClientID:         env.get("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:     env.get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:      env.get("GOOGLE_REDIRECT_URL", ""),
		GoogleFrontendRedirect: env.get("GOOGLE_FRONTEND_REDIRECT", ""),

		ExpirySweepSchedule: env.get("EXPIRY_SWEEP_SCHEDULE", "@hourly"),
		SubscriptionPeriod:  time.Duration(env.positiveInt("SUBSCRIPTION_DAYS", 30)) * 24 * time.Hour,

		Plans: plans.DefaultTiers(),
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}
	if cfg.IsProduction() && cfg.StripeSecretKey != "" && cfg.StripeWebhookSecret == "" {
		return nil, errors.New("STRIPE_WEBHOOK_SECRET is required in production")
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GoogleEnabled is true when Google sign-in can be offered.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Catalog builds the immutable plan catalog.
func (c *Config) Catalog() (*plans.Catalog, error) {
	return plans.NewCatalog(c.Plans)
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(key, fallback string) string {
	if v, ok := e.lookup(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (e *envReader) must(key string) string {
	v, ok := e.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		e.errs = append(e.errs, fmt.Errorf("missing required environment variable: %s", key))
		return ""
	}
	return strings.TrimSpace(v)
}

func (e *envReader) duration(key string, fallback time.Duration) time.Duration {
	raw := e.get(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return fallback
	}
	return d
}

func (e *envReader) positiveInt(key string, fallback int) int {
	raw := e.get(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid positive integer %q", key, raw))
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
