// Package config loads runtime configuration from environment variables,
// optionally overlaid with a YAML file, and sets up logging.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/raphaelgruber/wayword-go/internal/recommend"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB timeline store
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`

	// Ollama contextual embeddings
	OllamaHost     string            `yaml:"ollama_host"`
	EmbeddingModel string            `yaml:"embedding_model"`
	LanguageModels map[string]string `yaml:"language_models,omitempty"`

	// Static lexicon fallback
	LexiconDir string `yaml:"lexicon_dir"`

	// Server
	ListenAddr string `yaml:"listen_addr"`

	// Fallback predictor: "off", "http", or "bedrock"
	FallbackMode    string `yaml:"fallback_mode"`
	FallbackURL     string `yaml:"fallback_url"`
	FallbackBedrock string `yaml:"fallback_bedrock_model"`
	HistoryLimit    int    `yaml:"history_limit"`

	// Ranking engine tunables
	Recommend recommend.Config `yaml:"recommend"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`

	// Raw log level string, resolved into LogLevel after overlay.
	LogLevelName string `yaml:"log_level"`
}

// Load reads configuration from environment variables. If path is non-empty
// (or WAYWORD_CONFIG points to a file), its YAML values overlay the
// environment before validation.
func Load(path string) (Config, error) {
	cfg := Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "wayword"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "timeline"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),

		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		EmbeddingModel: getEnv("WAYWORD_EMBEDDING_MODEL", "bge-m3"),

		LexiconDir: getEnv("WAYWORD_LEXICON_DIR", ""),

		ListenAddr: getEnv("WAYWORD_LISTEN_ADDR", ":8787"),

		FallbackMode:    getEnv("WAYWORD_FALLBACK_MODE", "off"),
		FallbackURL:     getEnv("WAYWORD_FALLBACK_URL", ""),
		FallbackBedrock: getEnv("WAYWORD_BEDROCK_MODEL", ""),
		HistoryLimit:    getEnvInt("WAYWORD_HISTORY_LIMIT", 500),

		Recommend: recommend.DefaultConfig(),

		LogFile:      getEnv("WAYWORD_LOG_FILE", "/tmp/wayword.log"),
		LogLevelName: getEnv("WAYWORD_LOG_LEVEL", "INFO"),
	}
	if getEnv("WAYWORD_TIME_BOOST", "false") == "true" {
		cfg.Recommend.TimeBoostEnabled = true
	}

	if path == "" {
		path = os.Getenv("WAYWORD_CONFIG")
	}
	if path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// overlayFile merges a YAML file on top of cfg. Absent keys keep their values.
func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c Config) validate() error {
	switch c.FallbackMode {
	case "off", "http", "bedrock":
	default:
		return fmt.Errorf("invalid fallback mode %q (want off, http, or bedrock)", c.FallbackMode)
	}
	if c.FallbackMode == "http" && c.FallbackURL == "" {
		return fmt.Errorf("fallback mode http requires a fallback URL")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive, got %d", c.HistoryLimit)
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend config: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
