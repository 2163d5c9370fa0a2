// Package config loads the process configuration for the docref server and
// CLI from a YAML file. Command-line flags override what the file sets.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/adfharrison1/go-docref/pkg/backend"
	"github.com/adfharrison1/go-docref/pkg/domain"
	"github.com/adfharrison1/go-docref/pkg/logger"
)

const (
	DefaultBackend        = backend.GoDB
	DefaultLocation       = "./data"
	DefaultAddr           = ":8080"
	DefaultMaxCollections = 100
)

// Config is the process configuration
type Config struct {
	Backend        string    `yaml:"backend"`
	Location       string    `yaml:"location"`
	MaxCollections int       `yaml:"max_collections"`
	Server         Server    `yaml:"server"`
	Log            LogConfig `yaml:"log"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Backend:        DefaultBackend,
		Location:       DefaultLocation,
		MaxCollections: DefaultMaxCollections,
		Server:         Server{Addr: DefaultAddr},
		Log: LogConfig{
			Level:  string(logger.InfoLevel),
			Format: string(logger.FormatConsole),
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults; a
// missing file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := Parse(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Keys absent from raw keep their current
// values; unknown keys are rejected.
func Parse(raw []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks the configuration can be used to start the process
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Location) == "" {
		errs = append(errs, errors.New("location cannot be empty"))
	}
	if !contains(backend.Names(), strings.ToLower(c.Backend)) {
		errs = append(errs, fmt.Errorf("unknown backend %q (available: %s)", c.Backend, strings.Join(backend.Names(), ", ")))
	}
	if c.MaxCollections <= 0 {
		errs = append(errs, fmt.Errorf("max_collections must be positive, got %d", c.MaxCollections))
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr cannot be empty"))
	}
	level := logger.LogLevel(strings.ToUpper(c.Log.Level))
	if !contains([]string{string(logger.DebugLevel), string(logger.InfoLevel), string(logger.WarnLevel), string(logger.ErrorLevel)}, string(level)) {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	format := logger.LogFormat(strings.ToUpper(c.Log.Format))
	if format != logger.FormatConsole && format != logger.FormatJSON {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
