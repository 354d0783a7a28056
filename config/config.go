package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rustyeddy/fxjournal/market"
	"github.com/rustyeddy/fxjournal/rates"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Environment variables that override values from the config file.
const (
	EnvRatesAPIKey  = "FXJ_RATES_API_KEY"
	EnvRatesBaseURL = "FXJ_RATES_BASE_URL"
	EnvWorkerURL    = "FXJ_WORKER_URL"
	EnvUserID       = "FXJ_USER_ID"
	EnvLogLevel     = "FXJ_LOG_LEVEL"
)

// Config is the complete fxjournal configuration.
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Rates   RatesConfig   `json:"rates" yaml:"rates"`
	Worker  WorkerConfig  `json:"worker" yaml:"worker"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// AccountConfig holds the defaults used by the calculators when a flag or
// request leaves them out.
type AccountConfig struct {
	Currency    string  `json:"currency" yaml:"currency" validate:"required,len=3,alpha"`
	Capital     float64 `json:"capital" yaml:"capital" validate:"gte=0"`
	Leverage    float64 `json:"leverage" yaml:"leverage" validate:"gt=0"`
	RiskPercent float64 `json:"risk_percent" yaml:"risk_percent"` // 2 means 2%
}

// RatesConfig selects the rate provider. A non-empty Static table wins over
// the HTTP service.
type RatesConfig struct {
	BaseURL string                        `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	APIKey  string                        `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Timeout string                        `json:"timeout" yaml:"timeout"` // e.g. "10s"
	Static  map[string]map[string]float64 `json:"static,omitempty" yaml:"static,omitempty"`
}

type WorkerConfig struct {
	URL     string `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
	UserID  string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Timeout string `json:"timeout" yaml:"timeout"`
}

type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path" validate:"required"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" validate:"required"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

var validate = validator.New()

// LoadFromFile loads configuration from a file (YAML, falling back to JSON),
// applies environment overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv reads an optional .env file from the working directory and then
// overrides fields from FXJ_* variables. Variables already set in the
// environment take precedence over .env.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	overrides := []struct {
		env string
		dst *string
	}{
		{EnvRatesAPIKey, &c.Rates.APIKey},
		{EnvRatesBaseURL, &c.Rates.BaseURL},
		{EnvWorkerURL, &c.Worker.URL},
		{EnvUserID, &c.Worker.UserID},
		{EnvLogLevel, &c.Log.Level},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			*o.dst = v
		}
	}
	return nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks struct tags first, then the rules that span fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Account.RiskPercent <= 0 || c.Account.RiskPercent > 100 {
		return fmt.Errorf("account.risk_percent must be in (0, 100]")
	}
	if len(c.Rates.Static) == 0 {
		if c.Rates.APIKey == "" {
			return fmt.Errorf("rates.api_key (or %s) is required without rates.static", EnvRatesAPIKey)
		}
		if c.Rates.BaseURL == "" {
			return fmt.Errorf("rates.base_url is required without rates.static")
		}
	}
	if _, err := parseTimeout(c.Rates.Timeout); err != nil {
		return fmt.Errorf("rates.timeout: %w", err)
	}
	if _, err := parseTimeout(c.Worker.Timeout); err != nil {
		return fmt.Errorf("worker.timeout: %w", err)
	}
	return nil
}

// RatesTimeout returns the rates request timeout, zero when unset.
func (c *Config) RatesTimeout() time.Duration {
	d, _ := parseTimeout(c.Rates.Timeout)
	return d
}

// WorkerTimeout returns the worker request timeout, zero when unset.
func (c *Config) WorkerTimeout() time.Duration {
	d, _ := parseTimeout(c.Worker.Timeout)
	return d
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return d, nil
}

// RateProvider builds the provider selected by the Rates section.
func (c *Config) RateProvider(log *zap.Logger) market.RateProvider {
	if len(c.Rates.Static) > 0 {
		return rates.Static(c.Rates.Static)
	}
	return rates.NewClient(c.Rates.APIKey,
		rates.WithBaseURL(c.Rates.BaseURL),
		rates.WithTimeout(c.RatesTimeout()),
		rates.WithLogger(log),
	)
}

// Default returns a configuration with sensible defaults. It uses a small
// static rate table so it validates without an API key.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency:    "USD",
			Capital:     10000,
			Leverage:    100,
			RiskPercent: 1,
		},
		Rates: RatesConfig{
			BaseURL: rates.DefaultBaseURL,
			Timeout: "10s",
			Static: map[string]map[string]float64{
				"EUR": {"USD": 1.1},
				"GBP": {"USD": 1.27},
				"USD": {"JPY": 150, "EUR": 0.91},
				"JPY": {"USD": 1.0 / 150},
				"XAU": {"USD": 2300},
			},
		},
		Worker: WorkerConfig{
			Timeout: "30s",
		},
		Journal: JournalConfig{
			DBPath: "./fxjournal.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
