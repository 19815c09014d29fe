// Package config loads service settings from an optional YAML file, a .env file and the
// process environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Extraction provider names.
const (
	ProviderMock   = "mock"
	ProviderGemini = "gemini"
)

// Server holds HTTP listener settings.
type Server struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Log holds logging settings.
type Log struct {
	Level string `yaml:"level"`
}

// Extraction selects and tunes the statement extraction provider.
type Extraction struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	// Seed is mixed into the mock provider's per-document seed.
	Seed int64 `yaml:"seed"`
}

// Storage configures the raw statement archive. An empty bucket disables archiving.
type Storage struct {
	Bucket string `yaml:"bucket"`
}

// BigQuery configures the profile sink. An empty project disables it.
type BigQuery struct {
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
}

// Notion configures the override review board. An empty token disables it.
type Notion struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

// Queue tunes the asynchronous extraction worker pool.
type Queue struct {
	BufferSize int `yaml:"buffer_size"`
	Workers    int `yaml:"workers"`
	MaxRetries int `yaml:"max_retries"`
}

// Config collects every configuration leaf.
type Config struct {
	Server     Server     `yaml:"server"`
	Log        Log        `yaml:"log"`
	Extraction Extraction `yaml:"extraction"`
	Storage    Storage    `yaml:"storage"`
	BigQuery   BigQuery   `yaml:"bigquery"`
	Notion     Notion     `yaml:"notion"`
	Queue      Queue      `yaml:"queue"`
}

// Default returns a configuration that runs locally with the mock provider and no sinks.
func Default() *Config {
	return &Config{
		Server: Server{
			Port:         "8788",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Log:        Log{Level: "info"},
		Extraction: Extraction{Provider: ProviderMock, Model: "gemini-2.5-flash"},
		BigQuery:   BigQuery{Dataset: "banking_profile"},
		Queue:      Queue{BufferSize: 100, Workers: 5, MaxRetries: 3},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process environment
// without overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Extraction.Provider, "EXTRACTION_PROVIDER")
	setString(&c.Extraction.Model, "GEMINI_MODEL")
	setString(&c.Storage.Bucket, "GCS_BUCKET")
	setString(&c.BigQuery.ProjectID, "BQ_PROJECT_ID")
	setString(&c.BigQuery.Dataset, "BQ_DATASET")
	setString(&c.Notion.Token, "NOTION_TOKEN")
	setString(&c.Notion.DatabaseID, "NOTION_DATABASE_ID")

	// USE_MOCK_ADE=false switches to the real provider.
	if v, ok := os.LookupEnv("USE_MOCK_ADE"); ok {
		useMock, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("USE_MOCK_ADE: %w", err)
		}
		if useMock {
			c.Extraction.Provider = ProviderMock
		} else if c.Extraction.Provider == ProviderMock {
			c.Extraction.Provider = ProviderGemini
		}
	}

	if v, ok := os.LookupEnv("MOCK_SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MOCK_SEED: %w", err)
		}
		c.Extraction.Seed = seed
	}
	return nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch strings.ToLower(c.Extraction.Provider) {
	case ProviderMock:
	case ProviderGemini:
		if c.Extraction.Model == "" {
			return errors.New("extraction.model is required for the gemini provider")
		}
	default:
		return fmt.Errorf("extraction.provider %q is not one of %s, %s", c.Extraction.Provider, ProviderMock, ProviderGemini)
	}
	if c.BigQuery.ProjectID != "" && c.BigQuery.Dataset == "" {
		return errors.New("bigquery.dataset is required when bigquery.project_id is set")
	}
	if c.Notion.Token != "" && c.Notion.DatabaseID == "" {
		return errors.New("notion.database_id is required when notion.token is set")
	}
	if c.Queue.Workers < 1 {
		return errors.New("queue.workers must be at least 1")
	}
	if c.Queue.BufferSize < 1 {
		return errors.New("queue.buffer_size must be at least 1")
	}
	if c.Queue.MaxRetries < 0 {
		return errors.New("queue.max_retries must not be negative")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
