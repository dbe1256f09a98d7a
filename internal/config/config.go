// Package config loads wayfinder configuration from YAML with environment
// overrides layered on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all wayfinder configuration.
type Config struct {
	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Journey orchestration settings
	Journey JourneyConfig `yaml:"journey"`

	// Question similarity matching
	Similarity SimilarityConfig `yaml:"similarity"`

	// Persistence
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the generative client.
type LLMConfig struct {
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	Timeout         string `yaml:"timeout"`
	IncludeThoughts bool   `yaml:"include_thoughts"`
}

// JourneyConfig configures stage progression.
type JourneyConfig struct {
	MaxStages       int    `yaml:"max_stages"`
	StageDelay      string `yaml:"stage_delay"`
	Streaming       bool   `yaml:"streaming"`
	RevisionEnabled bool   `yaml:"revision_enabled"`
}

// SimilarityConfig configures question deduplication and answer matching.
type SimilarityConfig struct {
	DedupThreshold float64 `yaml:"dedup_threshold"`
	MatchThreshold float64 `yaml:"match_threshold"`
}

// StoreConfig configures the journey database.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:           "gemini-2.5-flash",
			Timeout:         "120s",
			IncludeThoughts: true,
		},
		Journey: JourneyConfig{
			MaxStages:       8,
			StageDelay:      "2s",
			Streaming:       true,
			RevisionEnabled: false,
		},
		Similarity: SimilarityConfig{
			DedupThreshold: 0.85,
			MatchThreshold: 0.8,
		},
		Store: StoreConfig{
			DatabasePath: "data/wayfinder.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults;
// environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("WAYFINDER_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if path := os.Getenv("WAYFINDER_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if level := os.Getenv("WAYFINDER_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if raw := os.Getenv("WAYFINDER_MAX_STAGES"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			c.Journey.MaxStages = n
		}
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetStageDelay returns the inter-stage delay as a duration.
func (c *Config) GetStageDelay() time.Duration {
	d, err := time.ParseDuration(c.Journey.StageDelay)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set GEMINI_API_KEY or llm.api_key)")
	}
	if c.Journey.MaxStages < 1 {
		return fmt.Errorf("journey.max_stages must be at least 1, got %d", c.Journey.MaxStages)
	}
	if c.Similarity.DedupThreshold <= 0 || c.Similarity.DedupThreshold > 1 {
		return fmt.Errorf("similarity.dedup_threshold must be in (0,1], got %v", c.Similarity.DedupThreshold)
	}
	if c.Similarity.MatchThreshold <= 0 || c.Similarity.MatchThreshold > 1 {
		return fmt.Errorf("similarity.match_threshold must be in (0,1], got %v", c.Similarity.MatchThreshold)
	}
	return nil
}
