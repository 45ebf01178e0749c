package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pable/go-cs-forecast/internal/features"
	"github.com/pable/go-cs-forecast/internal/statstore"
)

// Config holds settings shared by every command.
type Config struct {
	// Pipeline
	Window        int               `yaml:"window" validate:"min=1,max=100"`
	Policy        string            `yaml:"policy" validate:"oneof=drop impute"`
	RankingMode   string            `yaml:"ranking_mode" validate:"oneof=strict nearest"`
	MaxRankingAge time.Duration     `yaml:"max_ranking_age" validate:"gte=0"`
	Imputation    features.Defaults `yaml:"imputation"`
	Workers       int               `yaml:"workers" validate:"gte=0"`

	// Logging
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=console json"`

	// Server
	Addr string `yaml:"addr" validate:"required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Window:      statstore.DefaultWindow,
		Policy:      string(features.PolicyDrop),
		RankingMode: string(statstore.RankingStrict),
		Imputation:  features.DefaultImputation(),
		LogLevel:    "info",
		LogFormat:   "console",
		Addr:        ":8080",
	}
}

// Load reads the optional YAML file at path, then applies CSFORECAST_*
// environment overrides and validates the result. An empty path skips the
// file; a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Window = getEnvInt("CSFORECAST_WINDOW", cfg.Window)
	cfg.Policy = getEnv("CSFORECAST_POLICY", cfg.Policy)
	cfg.RankingMode = getEnv("CSFORECAST_RANKING_MODE", cfg.RankingMode)
	cfg.MaxRankingAge = getEnvDuration("CSFORECAST_MAX_RANKING_AGE", cfg.MaxRankingAge)
	cfg.Workers = getEnvInt("CSFORECAST_WORKERS", cfg.Workers)
	cfg.LogLevel = getEnv("CSFORECAST_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("CSFORECAST_LOG_FORMAT", cfg.LogFormat)
	cfg.Addr = getEnv("CSFORECAST_ADDR", cfg.Addr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks every field and reports the offending ones together.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Errorf("%s: failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %w", errors.Join(msgs...))
}

// PipelineOptions converts the config into replay options.
func (c *Config) PipelineOptions() (features.Options, error) {
	mode, err := features.ParsePolicyMode(c.Policy)
	if err != nil {
		return features.Options{}, err
	}
	ranking, err := statstore.ParseRankingMode(c.RankingMode)
	if err != nil {
		return features.Options{}, err
	}
	return features.Options{
		Window:        c.Window,
		Policy:        features.Policy{Mode: mode, Defaults: c.Imputation},
		RankingMode:   ranking,
		MaxRankingAge: c.MaxRankingAge,
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
