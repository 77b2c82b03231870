// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the copilot's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/poiesic/copilot/ai"
	"github.com/poiesic/copilot/search"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "copilot.yaml"

// ErrInvalidConfig wraps validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// AIConfig configures the embedding and completion services.
type AIConfig struct {
	EmbeddingHost   string  `yaml:"embedding_host" validate:"required,url"`
	CompletionHost  string  `yaml:"completion_host" validate:"required,url"`
	EmbeddingModel  string  `yaml:"embedding_model" validate:"required"`
	CompletionModel string  `yaml:"completion_model" validate:"required"`
	Temperature     float64 `yaml:"temperature" validate:"gte=0,lte=2"`

	// APIKeyEnv names the environment variable holding the API key.
	// When empty or unset, no key is sent.
	APIKeyEnv string `yaml:"api_key_env"`
}

// RetrievalConfig configures the candidate search.
type RetrievalConfig struct {
	Mode string `yaml:"mode" validate:"oneof=hybrid vector"`

	// ResultCount is the number of candidates per query. Zero selects the
	// default for Mode.
	ResultCount int `yaml:"result_count" validate:"gte=0"`
}

// ContextConfig configures context packing.
type ContextConfig struct {
	MaxLength int `yaml:"max_length" validate:"gt=0"`
}

// StorageConfig configures the document store.
type StorageConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// IndexingConfig configures store seeding.
type IndexingConfig struct {
	BatchSize int `yaml:"batch_size" validate:"gt=0"`

	// Workers is the number of concurrent batches. Zero selects half the CPUs.
	Workers int `yaml:"workers" validate:"gte=0"`
}

// Config is the root configuration.
type Config struct {
	AI        AIConfig        `yaml:"ai"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Context   ContextConfig   `yaml:"context"`
	Storage   StorageConfig   `yaml:"storage"`
	Indexing  IndexingConfig  `yaml:"indexing"`
}

// Default returns the built-in configuration.
func Default() *Config {
	def := ai.DefaultConfig()
	return &Config{
		AI: AIConfig{
			EmbeddingHost:   def.EmbeddingHost,
			CompletionHost:  def.CompletionHost,
			EmbeddingModel:  def.EmbeddingModel,
			CompletionModel: def.CompletionModel,
			Temperature:     def.Temperature,
			APIKeyEnv:       "OPENAI_API_KEY",
		},
		Retrieval: RetrievalConfig{Mode: string(search.ModeHybrid)},
		Context:   ContextConfig{MaxLength: 4096},
		Storage:   StorageConfig{Path: "./copilot_db"},
		Indexing:  IndexingConfig{BatchSize: 32},
	}
}

// Load reads the config at path on top of the defaults. Keys missing from the
// file keep their default value. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault tries ./copilot.yaml, then ~/.config/copilot/config.yaml, and
// falls back to the defaults. It returns the path used, or "" for defaults.
func LoadDefault() (*Config, string, error) {
	candidates := []string{FileName}
	if userPath, err := UserConfigPath(); err == nil {
		candidates = append(candidates, userPath)
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			return cfg, path, err
		}
	}
	return Default(), "", nil
}

// UserConfigPath returns ~/.config/copilot/config.yaml.
func UserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "copilot", "config.yaml"), nil
}

// Save writes cfg to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadEnv loads variables from the given .env files (default ".env") into
// the environment without overriding existing ones. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", f, err)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// APIKey returns the value of the APIKeyEnv variable, or ai.NoAPIKey.
func (c AIConfig) APIKey() string {
	if c.APIKeyEnv != "" {
		if key := os.Getenv(c.APIKeyEnv); key != "" {
			return key
		}
	}
	return ai.NoAPIKey
}

// Provider returns the ai.Config described by c.
func (c AIConfig) Provider() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.EmbeddingHost),
		ai.WithCompletionHost(c.CompletionHost),
		ai.WithEmbeddingModel(c.EmbeddingModel),
		ai.WithCompletionModel(c.CompletionModel),
		ai.WithTemperature(c.Temperature),
		ai.WithAPIKey(c.APIKey()),
	)
}

// SearchMode returns the parsed retrieval mode.
func (c RetrievalConfig) SearchMode() (search.Mode, error) {
	return search.ParseMode(c.Mode)
}

// Count returns ResultCount, or the default for the mode when it is zero.
func (c RetrievalConfig) Count() int {
	if c.ResultCount > 0 {
		return c.ResultCount
	}
	mode, err := c.SearchMode()
	if err != nil {
		mode = search.ModeHybrid
	}
	return search.DefaultResultCount(mode)
}
