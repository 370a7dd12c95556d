// Package config assembles the planner settings from the environment, an
// optional .env file and an optional YAML file with optimizer tuning.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"morapack/internal/opt"
)

type (
	Server struct {
		Port            string
		ShutdownTimeout time.Duration
	}

	Data struct {
		Dir         string
		DatabaseURL string
		Dataset     string
		WindowFrom  time.Time
		WindowTo    time.Time
	}

	Broker struct {
		RedisURL string
	}

	Webhook struct {
		URL     string
		Secret  string
		Timeout time.Duration
	}

	Config struct {
		Server    Server
		Data      Data
		Broker    Broker
		Webhook   Webhook
		LogLevel  string
		Seeds     []int64
		Optimizer opt.Config
	}
)

// Load reads .env when present, then the environment, then the optimizer
// YAML named by OPTIMIZER_CONFIG. Environment knobs override YAML values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("dotenv: %w", err)
	}
	cfg, err := loadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("environment loading: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}
	return cfg, nil
}

func loadFromEnv() (*Config, error) {
	optCfg := opt.DefaultConfig()
	if path := os.Getenv("OPTIMIZER_CONFIG"); path != "" {
		c, err := LoadOptimizer(path)
		if err != nil {
			return nil, err
		}
		optCfg = c
	}

	maxIter, err := osGetInt("OPTIMIZER_MAX_ITERATIONS")
	if err != nil {
		return nil, err
	}
	if maxIter > 0 {
		optCfg.MaxIterations = maxIter
	}
	budget, err := osGetEnvDuration("OPTIMIZER_TIME_BUDGET")
	if err != nil {
		return nil, err
	}
	if budget > 0 {
		optCfg.TimeBudget = budget
	}
	horizon, err := osGetInt("OPTIMIZER_HORIZON_DAYS")
	if err != nil {
		return nil, err
	}
	if horizon > 0 {
		optCfg.HorizonDays = horizon
	}

	shutdown, err := osGetEnvDuration("SHUTDOWN_TIMEOUT")
	if err != nil {
		return nil, err
	}
	webhookTimeout, err := osGetEnvDuration("REPORT_WEBHOOK_TIMEOUT")
	if err != nil {
		return nil, err
	}
	from, err := osGetTime("ORDERS_FROM")
	if err != nil {
		return nil, err
	}
	to, err := osGetTime("ORDERS_TO")
	if err != nil {
		return nil, err
	}
	seeds, err := osGetSeeds("OPTIMIZER_SEEDS")
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: Server{
			Port:            os.Getenv("PORT"),
			ShutdownTimeout: orDefault(shutdown, 10*time.Second),
		},
		Data: Data{
			Dir:         os.Getenv("DATA_DIR"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Dataset:     os.Getenv("DATASET"),
			WindowFrom:  from,
			WindowTo:    to,
		},
		Broker: Broker{RedisURL: os.Getenv("REDIS_URL")},
		Webhook: Webhook{
			URL:     os.Getenv("REPORT_WEBHOOK_URL"),
			Secret:  os.Getenv("REPORT_WEBHOOK_SECRET"),
			Timeout: orDefault(webhookTimeout, 5*time.Second),
		},
		LogLevel:  strings.ToLower(os.Getenv("LOG_LEVEL")),
		Seeds:     seeds,
		Optimizer: optCfg,
	}, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Data.Dir == "" && cfg.Data.DatabaseURL == "" {
		return errors.New("a data source is required (set DATA_DIR or DATABASE_URL)")
	}
	if cfg.Webhook.URL != "" && cfg.Webhook.Secret == "" {
		return errors.New("REPORT_WEBHOOK_SECRET is required when REPORT_WEBHOOK_URL is set")
	}
	if !cfg.Data.WindowFrom.IsZero() && !cfg.Data.WindowTo.IsZero() && !cfg.Data.WindowFrom.Before(cfg.Data.WindowTo) {
		return errors.New("ORDERS_FROM must be before ORDERS_TO")
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", cfg.LogLevel)
	}
	if err := cfg.Optimizer.Normalize().Validate(); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	return nil
}

// LoadOptimizer reads optimizer tuning from YAML. Keys left out keep their
// defaults.
func LoadOptimizer(path string) (opt.Config, error) {
	cfg := opt.DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("optimizer config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("optimizer config %s: %w", path, err)
	}
	return cfg, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	return d
}

func osGetInt(s string) (int, error) {
	val := os.Getenv(s)
	if val == "" {
		return 0, nil
	}

	res, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid int format for %s=%q: %w", s, val, err)
	}
	return res, nil
}

func osGetEnvDuration(s string) (time.Duration, error) {
	val := os.Getenv(s)
	if val == "" {
		return time.Duration(0), nil
	}

	res, err := time.ParseDuration(val)
	if err != nil {
		return time.Duration(0), fmt.Errorf("invalid duration format for %s=%q: %w", s, val, err)
	}
	return res, nil
}

func osGetTime(s string) (time.Time, error) {
	val := os.Getenv(s)
	if val == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, val); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time format for %s=%q", s, val)
}

func osGetSeeds(s string) ([]int64, error) {
	val := os.Getenv(s)
	if val == "" {
		return nil, nil
	}
	var out []int64
	for _, part := range strings.Split(val, ",") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed list %s=%q: %w", s, val, err)
		}
		out = append(out, n)
	}
	return out, nil
}
