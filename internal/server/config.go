package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/kelseyhightower/envconfig"

	"github.com/sunnuls/TPb-sub002/internal/advisor"
	"github.com/sunnuls/TPb-sub002/internal/equity"
)

// EnvPrefix prefixes the environment overrides, e.g. ADVISOR_SERVER_PORT.
const EnvPrefix = "advisor"

// Config represents the complete server configuration
type Config struct {
	Server  ServerSettings
	Equity  EquitySettings
	Advisor AdvisorSettings
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address           string `hcl:"address,optional" split_words:"true"`
	Port              int    `hcl:"port,optional" split_words:"true"`
	LogLevel          string `hcl:"log_level,optional" split_words:"true"`
	AnalysisTimeoutMS int    `hcl:"analysis_timeout_ms,optional" split_words:"true"`
}

// EquitySettings tunes the equity engine
type EquitySettings struct {
	Iterations          int `hcl:"iterations,optional" split_words:"true"`
	Workers             int `hcl:"workers,optional" split_words:"true"`
	ExhaustiveThreshold int `hcl:"exhaustive_threshold,optional" split_words:"true"`
	MaxDurationMS       int `hcl:"max_duration_ms,optional" split_words:"true"`
}

// AdvisorSettings tunes the advisor
type AdvisorSettings struct {
	HeroSeat          int     `hcl:"hero_seat,optional" split_words:"true"`
	RaiseMargin       float64 `hcl:"raise_margin,optional" split_words:"true"`
	FallbackFrequency float64 `hcl:"fallback_frequency,optional" split_words:"true"`
	MarginalBand      float64 `hcl:"marginal_band,optional" split_words:"true"`
}

// configSchema lists the top-level blocks of a config file. Each is
// optional and may appear at most once.
var configSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "server"},
		{Type: "equity"},
		{Type: "advisor"},
	},
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	eq := equity.DefaultConfig()
	adv := advisor.DefaultConfig()
	return &Config{
		Server: ServerSettings{
			Address:           "localhost",
			Port:              8080,
			LogLevel:          "info",
			AnalysisTimeoutMS: 2000,
		},
		Equity: EquitySettings{
			Iterations:          eq.Iterations,
			Workers:             eq.Workers,
			ExhaustiveThreshold: eq.ExhaustiveThreshold,
			MaxDurationMS:       1000,
		},
		Advisor: AdvisorSettings{
			HeroSeat:          -1,
			RaiseMargin:       adv.RaiseMargin,
			FallbackFrequency: adv.FallbackFrequency,
			MarginalBand:      adv.MarginalBand,
		},
	}
}

// LoadConfig loads configuration from an HCL file. A missing file yields
// the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(src, filename)
}

// ParseConfig decodes HCL source over the defaults.
func ParseConfig(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	content, diags := file.Body.Content(configSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Blocks decode over the defaults, so attributes left out keep them.
	config := DefaultConfig()
	targets := map[string]any{
		"server":  &config.Server,
		"equity":  &config.Equity,
		"advisor": &config.Advisor,
	}
	seen := make(map[string]bool)
	for _, block := range content.Blocks {
		if seen[block.Type] {
			return nil, fmt.Errorf("%s: duplicate %s block", block.DefRange, block.Type)
		}
		seen[block.Type] = true
		diags = gohcl.DecodeBody(block.Body, nil, targets[block.Type])
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
		}
	}

	return config, nil
}

// ApplyEnv overrides settings from ADVISOR_* environment variables, e.g.
// ADVISOR_SERVER_PORT or ADVISOR_EQUITY_ITERATIONS.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}
	if c.Server.AnalysisTimeoutMS < 0 {
		return fmt.Errorf("analysis timeout must not be negative")
	}

	if c.Equity.Iterations <= 0 {
		return fmt.Errorf("equity iterations must be positive")
	}
	if c.Equity.Workers <= 0 {
		return fmt.Errorf("equity workers must be positive")
	}
	if c.Equity.ExhaustiveThreshold < 0 || c.Equity.MaxDurationMS < 0 {
		return fmt.Errorf("equity limits must not be negative")
	}

	if c.Advisor.HeroSeat < -1 || c.Advisor.HeroSeat >= 10 {
		return fmt.Errorf("invalid hero seat: %d", c.Advisor.HeroSeat)
	}
	if c.Advisor.FallbackFrequency <= 0 || c.Advisor.FallbackFrequency > 1 {
		return fmt.Errorf("fallback frequency must be in (0, 1]")
	}
	if c.Advisor.RaiseMargin < 0 || c.Advisor.MarginalBand < 0 {
		return fmt.Errorf("advisor margins must not be negative")
	}

	return nil
}

// Address returns the full server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// EquityConfig returns the engine configuration.
func (c *Config) EquityConfig() equity.Config {
	return equity.Config{
		Iterations:          c.Equity.Iterations,
		Workers:             c.Equity.Workers,
		ExhaustiveThreshold: c.Equity.ExhaustiveThreshold,
		MaxDuration:         time.Duration(c.Equity.MaxDurationMS) * time.Millisecond,
	}
}

// AdvisorConfig returns the advisor configuration.
func (c *Config) AdvisorConfig() advisor.Config {
	return advisor.Config{
		RaiseMargin:       c.Advisor.RaiseMargin,
		FallbackFrequency: c.Advisor.FallbackFrequency,
		MarginalBand:      c.Advisor.MarginalBand,
	}
}

// ServiceConfig returns the command service configuration.
func (c *Config) ServiceConfig() ServiceConfig {
	return ServiceConfig{
		HeroSeat:        c.Advisor.HeroSeat,
		AnalysisTimeout: time.Duration(c.Server.AnalysisTimeoutMS) * time.Millisecond,
	}
}
