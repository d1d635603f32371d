// Package config loads the runtime configuration of the srcfn command from
// the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"go.uber.org/zap/zapcore"
)

// Prefix is the prefix of all environment variables read by Load.
const Prefix = "SRCFN_"

// Config holds the settings that can be provided via the environment. The
// command-line flags take precedence over those values.
type Config struct {
	// MaxSteps is the maximum number of instructions executed per call, 0
	// for no limit.
	MaxSteps int `env:"MAX_STEPS" envDefault:"0"`

	// MaxCallDepth is the maximum depth of the call stack, 0 for the
	// machine's default.
	MaxCallDepth int `env:"MAX_CALL_DEPTH" envDefault:"0"`

	// CacheSize is the number of compiled sources kept in the compile cache.
	CacheSize int `env:"CACHE_SIZE" envDefault:"128"`

	// LogLevel is the minimum level of the logs written to stderr.
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`

	// Format is the name of the codec used to encode serial forms.
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadEnv(envMap(os.Environ()))
}

// LoadEnv reads the configuration from the provided environment, where the
// keys include the Prefix.
func LoadEnv(environ map[string]string) (*Config, error) {
	var cfg Config
	opts := env.Options{
		Prefix:      Prefix,
		Environment: environ,
	}
	if err := env.Parse(&cfg, opts); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate returns an error if a value of the configuration is out of range.
func (c *Config) Validate() error {
	if c.MaxSteps < 0 {
		return fmt.Errorf("invalid %sMAX_STEPS: %d", Prefix, c.MaxSteps)
	}
	if c.MaxCallDepth < 0 {
		return fmt.Errorf("invalid %sMAX_CALL_DEPTH: %d", Prefix, c.MaxCallDepth)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("invalid %sCACHE_SIZE: %d", Prefix, c.CacheSize)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed LogLevel.
func (c *Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, fmt.Errorf("invalid %sLOG_LEVEL: %w", Prefix, err)
	}
	return lvl, nil
}

func envMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, Prefix) {
			continue
		}
		m[k] = v
	}
	return m
}
