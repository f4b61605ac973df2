// Package config provides configuration loading for vectorium.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/vectorium/internal/embeddings"
	"github.com/fyrsmithlabs/vectorium/internal/ingest"
	"github.com/fyrsmithlabs/vectorium/internal/logging"
	"github.com/fyrsmithlabs/vectorium/internal/vectorstore"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// Config is the root configuration, one section per subsystem.
type Config struct {
	Logging    logging.Config            `koanf:"logging"`
	Qdrant     vectorstore.Config        `koanf:"qdrant"`
	Embeddings embeddings.ProviderConfig `koanf:"embeddings"`
	Ingest     ingest.Config             `koanf:"ingest"`
}

// Load reads configuration from a YAML file, then overrides with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (QDRANT_HOST, INGEST_CHUNK_SIZE, ...)
//  2. YAML config file
//  3. Defaults
//
// If configPath is empty the default path ~/.config/vectorium/config.yaml
// is used; a missing file is not an error, the defaults apply.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "vectorium", "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		// Open once and read through the descriptor so the size check
		// and the parse see the same file.
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment variables map SECTION_FIELD_NAME to section.field_name:
	// the split happens on the first underscore only, so QDRANT_VECTOR_SIZE
	// becomes qdrant.vector_size.
	if err := k.Load(env.Provider("", ".", func(s string) string {
		lower := strings.ToLower(s)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Wait defaults to true, which the bool zero value cannot express, so
	// only an explicit setting can turn it off.
	if !k.Exists("qdrant.wait") {
		cfg.Qdrant.Wait = true
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills in defaults for every section.
func (c *Config) ApplyDefaults() {
	c.Logging.ApplyDefaults()
	c.Qdrant.ApplyDefaults()
	c.Ingest.ApplyDefaults()

	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "documents"
	}
	if c.Qdrant.VectorSize == 0 {
		c.Qdrant.VectorSize = 384 // bge-small-en-v1.5 dimensions
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Qdrant.Validate(); err != nil {
		return fmt.Errorf("qdrant: %w", err)
	}
	if err := c.Ingest.Validate(); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	return nil
}
