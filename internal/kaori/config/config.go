// Package config loads Kaori's optional YAML runtime configuration.
// Everything has a working default — a missing config file is not an
// error, an invalid one is.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	History  HistoryConfig  `yaml:"history"`
	Persona  PersonaConfig  `yaml:"persona"`
	Database DatabaseConfig `yaml:"database"`
}

// HistoryConfig tunes the conversation compactor.
type HistoryConfig struct {
	// MaxTokens is the approximate token budget for a compacted history.
	// The estimate uses the chars/4 heuristic; this is a soft target.
	MaxTokens float64 `yaml:"maxTokens"`
}

// PersonaConfig extends the signal extractor's built-in vocabularies.
// Extras are appended to the built-ins, never replace them.
type PersonaConfig struct {
	ExtraDietaryKeywords  []string            `yaml:"extraDietaryKeywords"`
	ExtraCategoryKeywords map[string][]string `yaml:"extraCategoryKeywords"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		History:  HistoryConfig{MaxTokens: 6000},
		Database: DatabaseConfig{Path: "./kaori.db"},
	}
}

// Load reads and parses the config file at path. A missing file yields the
// defaults; a present but invalid file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML config document and validates it. Omitted fields
// fall back to the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks a Config for structural correctness.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config must not be nil")
	}
	if cfg.History.MaxTokens <= 0 {
		return fmt.Errorf("history.maxTokens must be positive, got %v", cfg.History.MaxTokens)
	}
	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	for category, keywords := range cfg.Persona.ExtraCategoryKeywords {
		if category == "" {
			return fmt.Errorf("persona.extraCategoryKeywords: empty category name")
		}
		for i, kw := range keywords {
			if kw == "" {
				return fmt.Errorf("persona.extraCategoryKeywords[%s][%d]: empty keyword", category, i)
			}
		}
	}
	return nil
}
