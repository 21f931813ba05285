// Package config loads YAML configuration from ~/.docify/config.yaml
// (overridable via DOCIFY_CONFIG), writing a commented default on first run.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/pkg/filesystem"
	"github.com/Bardin08/docify/internal/ports"
)

// FileLoader loads YAML configuration from disk.
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader. An empty path uses the default location.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := defaultConfig()
			if err := writeDefault(path, cfg); err != nil {
				return domain.Config{}, err
			}
			return cfg, nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}
	return hydrateDefaults(cfg), nil
}

// Path exposes the resolved config file location.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return l.overridePath
	}
	if custom := os.Getenv("DOCIFY_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".docify", "config.yaml")
}

func writeDefault(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func defaultConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Generation: domain.GenerationSettings{
			Provider:       "claude-sonnet",
			Parallelism:    4,
			MaxExamples:    5,
			ContextLines:   3,
			TimeoutSeconds: 300,
		},
		Filters: domain.FilterSettings{
			Include: []string{"**/*"},
		},
		Providers: []domain.ProviderDefinition{
			{
				Name:           "claude-sonnet",
				Endpoint:       "https://api.anthropic.com/v1/messages",
				AuthEnvVar:     "ANTHROPIC_API_KEY",
				ModelID:        "claude-3-5-sonnet-20240620",
				MaxTokens:      1024,
				InputCostPer1K: 0.003,
			},
			{
				Name:           "gpt-4o-mini",
				Endpoint:       "https://api.openai.com/v1/chat/completions",
				AuthEnvVar:     "OPENAI_API_KEY",
				ModelID:        "gpt-4o-mini",
				MaxTokens:      1024,
				InputCostPer1K: 0.00015,
			},
			{
				Name:       "gemini-flash",
				AuthEnvVar: "GEMINI_API_KEY",
				ModelID:    "gemini-2.0-flash",
				MaxTokens:  1024,
			},
			{
				Name:     "ollama",
				Endpoint: "http://localhost:11434/v1/chat/completions",
				ModelID:  "llama3.1",
			},
		},
	}
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.Generation.Provider == "" && len(cfg.Providers) > 0 {
		cfg.Generation.Provider = cfg.Providers[0].Name
	}
	if cfg.Generation.Parallelism == 0 {
		cfg.Generation.Parallelism = 4
	}
	if cfg.Generation.MaxExamples == 0 {
		cfg.Generation.MaxExamples = 5
	}
	if cfg.Generation.ContextLines == 0 {
		cfg.Generation.ContextLines = 3
	}
	if cfg.Generation.TimeoutSeconds == 0 {
		cfg.Generation.TimeoutSeconds = 300
	}
	if len(cfg.Filters.Include) == 0 {
		cfg.Filters.Include = []string{"**/*"}
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
