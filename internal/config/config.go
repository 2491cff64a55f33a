// Package config provides configuration management for the harvester.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pokedex/pkg/utils"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidStartID           = errors.New("harvest.start_id must be at least 1")
	ErrInvalidRange             = errors.New("harvest.end_id must not be lower than harvest.start_id")
	ErrInvalidDelay             = errors.New("harvest.delay_ms must be non-negative")
	ErrMissingEndpoint          = errors.New("api.pokemon_url and api.species_url are required")
	ErrInvalidEndpoint          = errors.New("api endpoint must be an absolute http(s) URL")
	ErrInvalidTimeout           = errors.New("api.timeout_sec must be at least 1")
	ErrInvalidBufferSize        = errors.New("api.buffer_size_kb must be at least 1")
	ErrInvalidRequestRate       = errors.New("api.requests_per_second must be non-negative")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrMissingOutputPath        = errors.New("output.path is required")
	ErrInvalidPreviewRows       = errors.New("output.preview_rows must be non-negative")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'text' or 'json'")
	ErrUnsupportedFormat        = errors.New("unsupported config file extension")
)

// Default values.
const (
	DefaultStartID    = 1
	DefaultEndID      = 151
	DefaultDelayMs    = 50
	DefaultOutputPath = "first_151_pokemon_data.json"
	DefaultPokemonURL = "https://pokeapi.co/api/v2/pokemon"
	DefaultSpeciesURL = "https://pokeapi.co/api/v2/pokemon-species"
	DefaultUserAgent  = utils.DefaultUserAgent
)

// Config represents the complete harvester configuration.
type Config struct {
	Harvest HarvestConfig `yaml:"harvest" toml:"harvest"`
	API     APIConfig     `yaml:"api" toml:"api"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
	Retry   RetryPolicy   `yaml:"retry" toml:"retry"`
}

// HarvestConfig controls the ID range and pacing of the collection loop.
type HarvestConfig struct {
	StartID              int  `yaml:"start_id" toml:"start_id"`
	EndID                int  `yaml:"end_id" toml:"end_id"`
	DelayMs              int  `yaml:"delay_ms" toml:"delay_ms"`
	DelayOnSkip          bool `yaml:"delay_on_skip" toml:"delay_on_skip"`
	FollowEvolutionChain bool `yaml:"follow_evolution_chain" toml:"follow_evolution_chain"`
}

// APIConfig describes the upstream endpoints and HTTP client behavior.
type APIConfig struct {
	PokemonURL        string  `yaml:"pokemon_url" toml:"pokemon_url"`
	SpeciesURL        string  `yaml:"species_url" toml:"species_url"`
	UserAgent         string  `yaml:"user_agent" toml:"user_agent"`
	TimeoutSec        int     `yaml:"timeout_sec" toml:"timeout_sec"`
	BufferSizeKb      int     `yaml:"buffer_size_kb" toml:"buffer_size_kb"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`
}

// RetryPolicy defines retry behavior for transient fetch failures.
// MaxAttempts of 1 disables retries.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts" toml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms" toml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms" toml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier" toml:"backoff_multiplier"`
}

// OutputConfig defines where and how the result set is written.
type OutputConfig struct {
	Path          string `yaml:"path" toml:"path"`
	CreateBackup  bool   `yaml:"create_backup" toml:"create_backup"`
	WriteMetadata bool   `yaml:"write_metadata" toml:"write_metadata"`
	PreviewRows   int    `yaml:"preview_rows" toml:"preview_rows"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" toml:"textfile_path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Harvest: HarvestConfig{
			StartID:              DefaultStartID,
			EndID:                DefaultEndID,
			DelayMs:              DefaultDelayMs,
			DelayOnSkip:          false,
			FollowEvolutionChain: true,
		},
		API: APIConfig{
			PokemonURL:   DefaultPokemonURL,
			SpeciesURL:   DefaultSpeciesURL,
			UserAgent:    DefaultUserAgent,
			TimeoutSec:   30,
			BufferSizeKb: 1024,
		},
		Retry: RetryPolicy{
			MaxAttempts:       1,
			InitialDelayMs:    500,
			MaxDelayMs:        30000,
			BackoffMultiplier: 2.0,
		},
		Output: OutputConfig{
			Path: DefaultOutputPath,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML or TOML file on top of Default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a YAML or TOML file, chosen by extension.
func (c *Config) SaveConfig(path string) error {
	var data []byte

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", "":
		out, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		data = out
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		data = buf.Bytes()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Harvest.StartID < 1 {
		return ErrInvalidStartID
	}

	if c.Harvest.EndID < c.Harvest.StartID {
		return fmt.Errorf("%w: %d < %d", ErrInvalidRange, c.Harvest.EndID, c.Harvest.StartID)
	}

	if c.Harvest.DelayMs < 0 {
		return ErrInvalidDelay
	}

	if c.API.PokemonURL == "" || c.API.SpeciesURL == "" {
		return ErrMissingEndpoint
	}

	httpHelper := utils.NewHTTPHelper()
	for _, endpoint := range []string{c.API.PokemonURL, c.API.SpeciesURL} {
		if !httpHelper.IsValidURL(endpoint) {
			return fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
		}
	}

	if c.API.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.API.BufferSizeKb < 1 {
		return ErrInvalidBufferSize
	}

	if c.API.RequestsPerSecond < 0 {
		return ErrInvalidRequestRate
	}

	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if strings.TrimSpace(c.Output.Path) == "" {
		return ErrMissingOutputPath
	}

	if c.Output.PreviewRows < 0 {
		return ErrInvalidPreviewRows
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// GetDelay returns the pause applied after each iteration.
func (c *Config) GetDelay() time.Duration {
	return time.Duration(c.Harvest.DelayMs) * time.Millisecond
}

// GetTimeout returns the HTTP client timeout.
func (a *APIConfig) GetTimeout() time.Duration {
	return time.Duration(a.TimeoutSec) * time.Second
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{IDs: %d-%d, Delay: %dms, Chain: %t, MaxAttempts: %d, Output: %s}",
		c.Harvest.StartID,
		c.Harvest.EndID,
		c.Harvest.DelayMs,
		c.Harvest.FollowEvolutionChain,
		c.Retry.MaxAttempts,
		c.Output.Path,
	)
}
