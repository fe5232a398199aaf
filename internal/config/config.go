// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (COURSECHAT_* prefix)
//  2. Config file (~/.coursechat/config.yaml)
//  3. Default values
//
// Sentinel errors are exported for Go-idiomatic checking with errors.Is().
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Default model identifiers.
const (
	// DefaultModelName is the default Gemini generation model.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultEmbedderModel is the default Gemini embedding model.
	// The same embedder serves the catalog and content collections; mixing
	// embedding spaces across the two indexes is an integrity violation.
	DefaultEmbedderModel = "gemini-embedding-001"
)

// Default pipeline parameters.
const (
	DefaultMaxTokens           = 800
	DefaultChunkSize           = 800
	DefaultChunkOverlap        = 100
	DefaultMinChunk            = 80
	DefaultMaxResults          = 5
	DefaultMaxHistory          = 2
	DefaultMaxRounds           = 2
	DefaultResolutionThreshold = 0.6
)

// Config stores the full application configuration.
type Config struct {
	// Generation configuration
	ModelName string `mapstructure:"model_name"`
	MaxTokens int    `mapstructure:"max_tokens"`
	APIKey    string `mapstructure:"api_key"` // SENSITIVE: never logged

	// Embedding configuration (shared by both vector collections)
	EmbedderModel string `mapstructure:"embedder_model"`

	// Document processing configuration
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
	MinChunk     int `mapstructure:"min_chunk"`

	// Retrieval configuration
	MaxResults          int     `mapstructure:"max_results"`
	ResolutionThreshold float32 `mapstructure:"resolution_threshold"`

	// Conversation configuration
	MaxHistory int `mapstructure:"max_history"` // session bound, in Q/A pairs
	MaxRounds  int `mapstructure:"max_rounds"`  // tool-use round bound

	// Storage configuration
	DocsDir string `mapstructure:"docs_dir"` // course document folder
	DBPath  string `mapstructure:"db_path"`  // chromem persistence dir ("" = in-memory)

	// Logging configuration
	LogLevel string `mapstructure:"log_level"` // debug|info|warn|error
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load reads configuration from defaults, the optional config file and the
// environment. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("COURSECHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dir, err := configDir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	// GEMINI_API_KEY is the conventional variable for the genai SDK;
	// honor it when no explicit key is configured.
	if v.GetString("api_key") == "" {
		v.Set("api_key", os.Getenv("GEMINI_API_KEY"))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers the default value for every configuration key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("max_tokens", DefaultMaxTokens)
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)
	v.SetDefault("min_chunk", DefaultMinChunk)
	v.SetDefault("max_results", DefaultMaxResults)
	v.SetDefault("max_history", DefaultMaxHistory)
	v.SetDefault("max_rounds", DefaultMaxRounds)
	v.SetDefault("resolution_threshold", DefaultResolutionThreshold)
	v.SetDefault("docs_dir", "./docs")
	v.SetDefault("db_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// configDir returns ~/.coursechat, creating it if necessary.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".coursechat")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return dir, nil
}
