// Package config parses the forecaster configuration.
//
// Every setting is a command-line flag whose default comes from an
// environment variable, so the precedence is flag > environment > default.
// Adapter settings are read from ADAPTER_* variables into a generic map
// (ADAPTER_QUERY becomes "query", ADAPTER_VALUE_PATH becomes "valuePath").
//
// Example usage:
//
//	cfg, err := config.Load(os.Args[1:])
//	pcfg, err := cfg.Pipeline()
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/HatiCode/finplan/pkg/budget"
	"github.com/HatiCode/finplan/pkg/models"
	"github.com/HatiCode/finplan/pkg/pipeline"
	"github.com/HatiCode/finplan/pkg/scenario"
	"github.com/HatiCode/finplan/pkg/series"
	"github.com/HatiCode/finplan/pkg/tls"
)

// Config holds all forecaster configuration.
type Config struct {
	Listen        string
	LogFormat     string
	LogLevel      string
	Storage       string
	MemoryTTL     time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
	TLS           tls.Config

	Series            string
	Field             string
	Adapter           string
	AdapterConfig     map[string]string
	FallbackSynthetic bool
	Window            time.Duration
	Step              time.Duration
	Interval          time.Duration
	Schedule          string
	Once              bool
	RateLimit         float64

	Order             string
	MaxP              int
	MaxD              int
	MaxQ              int
	Workers           int
	Horizon           int
	Confidence        string
	TestFraction      float64
	OutlierMultiplier float64
	GrowthRate        float64
	DeclineRate       float64
	Custom            string
	Factors           string
	Shares            string
	RoundingUnit      float64
	RoundingMode      string
}

// ParseFlags loads the configuration from the command line and environment
// and exits the process when it is invalid.
func ParseFlags() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Load parses args with environment fallbacks and validates the result.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("forecaster", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8081"), "HTTP listen address")
	fs.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	fs.StringVar(&cfg.Storage, "storage", getEnv("STORAGE", "memory"), "Storage backend: memory or redis")
	fs.DurationVar(&cfg.MemoryTTL, "memory-ttl", getEnvDuration("MEMORY_TTL", 0), "In-memory report TTL (0 keeps reports forever)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis server address")
	fs.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	fs.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")
	fs.DurationVar(&cfg.RedisTTL, "redis-ttl", getEnvDuration("REDIS_TTL", 24*time.Hour), "Redis report TTL")

	fs.BoolVar(&cfg.TLS.Enabled, "tls-enabled", getEnvBool("TLS_ENABLED", false), "Serve the report API over TLS")
	fs.StringVar(&cfg.TLS.CertFile, "tls-cert-file", getEnv("TLS_CERT_FILE", ""), "TLS certificate file")
	fs.StringVar(&cfg.TLS.KeyFile, "tls-key-file", getEnv("TLS_KEY_FILE", ""), "TLS private key file")
	fs.StringVar(&cfg.TLS.CAFile, "tls-ca-file", getEnv("TLS_CA_FILE", ""), "CA file for client certificate verification")

	fs.StringVar(&cfg.Series, "series", getEnv("SERIES", ""), "Report name of the forecast series (default: the field name)")
	fs.StringVar(&cfg.Field, "field", getEnv("FIELD", "Sales"), "Column of the collected data to forecast")
	fs.StringVar(&cfg.Adapter, "adapter", getEnv("ADAPTER", "synthetic"), "Adapter type: prometheus, http, csv, or synthetic")
	fs.BoolVar(&cfg.FallbackSynthetic, "fallback-synthetic", getEnvBool("FALLBACK_SYNTHETIC", false), "Use synthetic data when the adapter fails")
	fs.DurationVar(&cfg.Window, "window", getEnvDuration("WINDOW", 365*24*time.Hour), "Historical window to collect")
	fs.DurationVar(&cfg.Step, "step", getEnvDuration("STEP", 24*time.Hour), "Spacing of collected observations")
	fs.DurationVar(&cfg.Interval, "interval", getEnvDuration("INTERVAL", time.Hour), "Forecast interval")
	fs.StringVar(&cfg.Schedule, "schedule", getEnv("SCHEDULE", ""), "Cron schedule of forecast runs, e.g. \"0 6 * * *\" (overrides interval)")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", getEnvFloat("RATE_LIMIT", 50), "Report API requests per second (0 disables limiting)")
	fs.BoolVar(&cfg.Once, "once", getEnvBool("ONCE", false), "Run a single forecast, print the report as JSON and exit")

	fs.StringVar(&cfg.Order, "order", getEnv("ORDER", ""), "ARIMA order p,d,q (empty selects it by AIC)")
	fs.IntVar(&cfg.MaxP, "max-p", getEnvInt("MAX_P", models.DefaultMaxP), "Largest AR order searched")
	fs.IntVar(&cfg.MaxD, "max-d", getEnvInt("MAX_D", models.DefaultMaxD), "Largest differencing order searched")
	fs.IntVar(&cfg.MaxQ, "max-q", getEnvInt("MAX_Q", models.DefaultMaxQ), "Largest MA order searched")
	fs.IntVar(&cfg.Workers, "workers", getEnvInt("WORKERS", 0), "Concurrent order fits (0 uses GOMAXPROCS)")
	fs.IntVar(&cfg.Horizon, "horizon", getEnvInt("HORIZON", pipeline.DefaultHorizon), "Forecast horizon in steps")
	fs.StringVar(&cfg.Confidence, "confidence", getEnv("CONFIDENCE", "0.95"), "Confidence level of the bounds (0.95, 95%, or p95)")
	fs.Float64Var(&cfg.TestFraction, "test-fraction", getEnvFloat("TEST_FRACTION", pipeline.DefaultTestFraction), "Share of the series held out for validation")
	fs.Float64Var(&cfg.OutlierMultiplier, "outlier-multiplier", getEnvFloat("OUTLIER_MULTIPLIER", series.DefaultOutlierMultiplier), "IQR multiplier of the outlier fences")
	fs.Float64Var(&cfg.GrowthRate, "growth-rate", getEnvFloat("GROWTH_RATE", scenario.DefaultGrowthRate), "Optimistic scenario growth rate")
	fs.Float64Var(&cfg.DeclineRate, "decline-rate", getEnvFloat("DECLINE_RATE", scenario.DefaultDeclineRate), "Pessimistic scenario decline rate")
	fs.StringVar(&cfg.Custom, "scenarios", getEnv("SCENARIOS", ""), "Custom scenarios as name=multiplier, comma separated")
	fs.StringVar(&cfg.Factors, "factors", getEnv("FACTORS", ""), "Sensitivity factors as name=percent, comma separated")
	fs.StringVar(&cfg.Shares, "shares", getEnv("SHARES", ""), "Budget shares as category=percent, comma separated (default: 40/25/20/15)")
	fs.Float64Var(&cfg.RoundingUnit, "rounding-unit", getEnvFloat("ROUNDING_UNIT", 0), "Round budget amounts to this unit (0 disables)")
	fs.StringVar(&cfg.RoundingMode, "rounding-mode", getEnv("ROUNDING_MODE", "round"), "Budget rounding: round, floor, or ceil")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.AdapterConfig = parseAdapterConfig(os.Environ())
	if cfg.Series == "" {
		cfg.Series = cfg.Field
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var seriesNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_-]{0,251}[a-zA-Z0-9])?$`)

// Validate checks the service settings. Model settings are checked by
// Pipeline.
func (c *Config) Validate() error {
	if c.Field == "" {
		return errors.New("field cannot be empty")
	}
	if !seriesNameRegex.MatchString(c.Series) {
		return fmt.Errorf("invalid series name %q (must be alphanumeric with dash/underscore, 1-253 chars)", c.Series)
	}
	switch c.Adapter {
	case "prometheus", "http", "csv", "synthetic":
	default:
		return fmt.Errorf("invalid adapter %q (must be prometheus, http, csv, or synthetic)", c.Adapter)
	}
	switch c.Storage {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid storage %q (must be memory or redis)", c.Storage)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (must be text or json)", c.LogFormat)
	}
	if c.MemoryTTL < 0 {
		return errors.New("memory TTL cannot be negative")
	}
	if c.Step <= 0 {
		return errors.New("step must be > 0")
	}
	if c.Window < c.Step {
		return fmt.Errorf("window (%v) cannot be shorter than step (%v)", c.Window, c.Step)
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
		}
	} else if c.Interval <= 0 && !c.Once {
		return errors.New("interval must be > 0")
	}
	if c.RateLimit < 0 {
		return errors.New("rate limit cannot be negative")
	}
	if err := c.TLS.Validate(); err != nil {
		return err
	}
	return nil
}

// CronSchedule returns the schedule of forecast runs: the cron expression
// when one is set, otherwise every Interval.
func (c *Config) CronSchedule() (cron.Schedule, error) {
	if c.Schedule == "" {
		return cron.Every(c.Interval), nil
	}
	return cron.ParseStandard(c.Schedule)
}

// StaleAfter is the age after which a report counts as stale: two run
// periods, measured from now.
func (c *Config) StaleAfter(now time.Time) time.Duration {
	sched, err := c.CronSchedule()
	if err != nil {
		return 2 * c.Interval
	}
	next := sched.Next(now)
	return 2 * sched.Next(next).Sub(next)
}

// Pipeline converts the model settings into a validated pipeline.Config.
func (c *Config) Pipeline() (pipeline.Config, error) {
	pc := pipeline.DefaultConfig()
	pc.Search = models.SearchOptions{MaxP: c.MaxP, MaxD: c.MaxD, MaxQ: c.MaxQ, Workers: c.Workers}
	pc.Horizon = c.Horizon
	pc.TestFraction = c.TestFraction
	pc.OutlierMultiplier = c.OutlierMultiplier
	pc.GrowthRate = c.GrowthRate
	pc.DeclineRate = c.DeclineRate
	pc.RoundingUnit = c.RoundingUnit
	pc.RoundingMode = c.RoundingMode

	if strings.TrimSpace(c.Order) != "" {
		order, err := models.ParseOrder(c.Order)
		if err != nil {
			return pipeline.Config{}, fmt.Errorf("order: %w", err)
		}
		pc.Order = &order
	}

	confidence, err := models.ParseConfidenceLevel(c.Confidence)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("confidence: %w", err)
	}
	pc.Confidence = confidence

	if pc.Custom, err = scenario.ParseCustom(c.Custom); err != nil {
		return pipeline.Config{}, fmt.Errorf("scenarios: %w", err)
	}
	if pc.Factors, err = scenario.ParseFactors(c.Factors); err != nil {
		return pipeline.Config{}, fmt.Errorf("factors: %w", err)
	}
	if strings.TrimSpace(c.Shares) != "" {
		if pc.Shares, err = budget.ParseShares(c.Shares); err != nil {
			return pipeline.Config{}, fmt.Errorf("shares: %w", err)
		}
	}

	if err := pc.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	return pc, nil
}

// parseAdapterConfig collects ADAPTER_* variables into a map keyed by the
// lower camel case of the suffix.
func parseAdapterConfig(environ []string) map[string]string {
	config := make(map[string]string)

	for _, env := range environ {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, "ADAPTER_") || len(key) == len("ADAPTER_") {
			continue
		}
		config[toLowerCamelCase(strings.TrimPrefix(key, "ADAPTER_"))] = value
	}

	return config
}

func toLowerCamelCase(s string) string {
	parts := strings.Split(strings.ToLower(s), "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i > 0 && b.Len() > 0 {
			b.WriteString(strings.ToUpper(p[:1]))
			b.WriteString(p[1:])
			continue
		}
		b.WriteString(p)
	}
	return b.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
