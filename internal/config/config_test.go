package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
output:
  dir: /tmp/out
papers:
  topN: 5
  language: zh
model:
  name: gpt-4o
log:
  level: debug
  pretty: true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Output.Dir != "/tmp/out" {
		t.Errorf("Output.Dir = %q, want %q", cfg.Output.Dir, "/tmp/out")
	}
	if cfg.Papers.TopN != 5 {
		t.Errorf("Papers.TopN = %d, want 5", cfg.Papers.TopN)
	}
	if cfg.Papers.Language != "zh" {
		t.Errorf("Papers.Language = %q, want %q", cfg.Papers.Language, "zh")
	}
	// Unset fields keep defaults.
	if cfg.Papers.LookbackDays != DefaultWindow {
		t.Errorf("Papers.LookbackDays = %d, want default %d", cfg.Papers.LookbackDays, DefaultWindow)
	}
	if cfg.Model.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("Model.APIKeyEnv = %q, want default", cfg.Model.APIKeyEnv)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Pretty {
		t.Errorf("Log = %+v, want debug/pretty", cfg.Log)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "empty name",
			path:    func(t *testing.T) string { return "" },
			wantErr: ErrEmptyConfigName,
		},
		{
			name: "missing file",
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "absent.yaml")
			},
			wantErr: ErrConfigNotFound,
		},
		{
			name: "invalid yaml",
			path: func(t *testing.T) string {
				return writeConfig(t, "output: [unclosed")
			},
			wantErr: ErrConfigParse,
		},
		{
			name: "unknown field rejected",
			path: func(t *testing.T) string {
				return writeConfig(t, "nonsense: true\n")
			},
			wantErr: ErrConfigParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path(t))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults valid",
			mutate: func(*Config) {},
		},
		{
			name:    "topN zero",
			mutate:  func(c *Config) { c.Papers.TopN = 0 },
			wantErr: true,
		},
		{
			name:    "topN over limit",
			mutate:  func(c *Config) { c.Papers.TopN = MaxTopN + 1 },
			wantErr: true,
		},
		{
			name:    "negative lookback",
			mutate:  func(c *Config) { c.Papers.LookbackDays = -1 },
			wantErr: true,
		},
		{
			name: "smtp host without from",
			mutate: func(c *Config) {
				c.SMTP.Host = "mail.example.com"
				c.SMTP.To = []string{"a@example.com"}
			},
			wantErr: true,
		},
		{
			name: "smtp host without recipients",
			mutate: func(c *Config) {
				c.SMTP.Host = "mail.example.com"
				c.SMTP.From = "bot@example.com"
			},
			wantErr: true,
		},
		{
			name: "smtp fully configured",
			mutate: func(c *Config) {
				c.SMTP.Host = "mail.example.com"
				c.SMTP.From = "bot@example.com"
				c.SMTP.To = []string{"a@example.com"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
