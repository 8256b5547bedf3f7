// Package config loads and validates the YAML run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hzhou/vibepapers/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
)

// Bounds for validated numeric fields.
const (
	MaxTopN         = 50
	MaxWindowDays   = 30
	DefaultTopN     = 10
	DefaultWindow   = 7
	DefaultLanguage = "en"
)

// Config holds all configuration for a daily run.
type Config struct {
	Output Output `yaml:"output"`
	Papers Papers `yaml:"papers"`
	Model  Model  `yaml:"model"`
	SMTP   SMTP   `yaml:"smtp"`
	Assets Assets `yaml:"assets"`
	Log    Log    `yaml:"log"`
}

// Output defines where generated files land.
type Output struct {
	Dir string `yaml:"dir"` // Root output directory (default: "output")
}

// Papers defines batch selection and navigation options.
type Papers struct {
	TopN          int    `yaml:"topN"`          // Papers per day, by upvotes (default: 10)
	Language      string `yaml:"language"`      // Analysis language code (default: "en")
	LookbackDays  int    `yaml:"lookbackDays"`  // Prev-day navigation window (default: 7)
	LookaheadDays int    `yaml:"lookaheadDays"` // Next-day navigation window (default: 7)
}

// Model defines the analysis model options.
type Model struct {
	Name      string `yaml:"name"`      // Model identifier (default: "gpt-4o-mini")
	APIKeyEnv string `yaml:"apiKeyEnv"` // Env var holding the API key (default: "OPENAI_API_KEY")
}

// SMTP defines optional email delivery. Empty host disables delivery.
type SMTP struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"` // Default: 587
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// Assets defines template and static-asset options.
type Assets struct {
	TemplateDir  string `yaml:"templateDir"`  // Empty = use embedded templates
	SkipDownload bool   `yaml:"skipDownload"` // Skip fetching JS/CSS libraries
}

// Log defines logging options.
type Log struct {
	Level  string `yaml:"level"`  // zerolog level name (default: "info")
	Pretty bool   `yaml:"pretty"` // Human-readable console output
}

// DefaultConfig returns a runnable configuration with no file present.
func DefaultConfig() *Config {
	return &Config{
		Output: Output{Dir: "output"},
		Papers: Papers{
			TopN:          DefaultTopN,
			Language:      DefaultLanguage,
			LookbackDays:  DefaultWindow,
			LookaheadDays: DefaultWindow,
		},
		Model: Model{Name: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY"},
		SMTP:  SMTP{Port: 587},
		Log:   Log{Level: "info"},
	}
}

// Validate checks numeric bounds and required relationships. Called
// automatically by LoadConfig, but available for consumers who construct
// Config manually.
func (c *Config) Validate() error {
	if c.Papers.TopN < 1 || c.Papers.TopN > MaxTopN {
		return fmt.Errorf("papers.topN: must be between 1 and %d, got %d", MaxTopN, c.Papers.TopN)
	}
	if c.Papers.LookbackDays < 0 || c.Papers.LookbackDays > MaxWindowDays {
		return fmt.Errorf("papers.lookbackDays: must be between 0 and %d, got %d", MaxWindowDays, c.Papers.LookbackDays)
	}
	if c.Papers.LookaheadDays < 0 || c.Papers.LookaheadDays > MaxWindowDays {
		return fmt.Errorf("papers.lookaheadDays: must be between 0 and %d, got %d", MaxWindowDays, c.Papers.LookaheadDays)
	}
	if c.SMTP.Host != "" {
		if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
			return fmt.Errorf("smtp.port: must be between 1 and 65535, got %d", c.SMTP.Port)
		}
		if c.SMTP.From == "" {
			return fmt.Errorf("smtp.from: required when smtp.host is set")
		}
		if len(c.SMTP.To) == 0 {
			return fmt.Errorf("smtp.to: required when smtp.host is set")
		}
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard
// locations. Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		resolved, err := resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
		configPath = resolved
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard
// locations. Tries extensions in order: .yaml, .yml. Tries locations in
// order: current directory, <user config dir>/vibepapers/.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "vibepapers", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: %s (tried: %s)", ErrConfigNotFound, name, strings.Join(triedPaths, ", "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
