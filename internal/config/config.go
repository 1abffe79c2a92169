// Package config loads the console configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the console.
type Config struct {
	BackendURL  string
	ParamPrefix string
	TabID       string
	CachePath   string
	LogDir      string
	ExecuteAPI  bool
	Telemetry   bool

	// executeAPISet records an explicit LEONA_EXECUTE_API so the parameter
	// store default does not override it.
	executeAPISet bool
}

// Lookuper reads an optional parameter.
type Lookuper interface {
	Lookup(ctx context.Context, name string) (value string, ok bool, err error)
}

// Load reads configuration from environment variables, after loading a .env
// file when one is present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		BackendURL:  strings.TrimSpace(os.Getenv("LEONA_BACKEND_URL")),
		ParamPrefix: strings.TrimRight(strings.TrimSpace(os.Getenv("LEONA_PARAM_PREFIX")), "/"),
		TabID:       getEnv("LEONA_TAB_ID", "default"),
		CachePath:   getEnv("LEONA_CACHE_PATH", "./data/tabs.db"),
		LogDir:      getEnv("LEONA_LOG_DIR", "logs"),
		ExecuteAPI:  true,
		Telemetry:   getBool("LEONA_TELEMETRY", false),
	}
	if v, ok := os.LookupEnv("LEONA_EXECUTE_API"); ok && strings.TrimSpace(v) != "" {
		cfg.ExecuteAPI = getBool("LEONA_EXECUTE_API", true)
		cfg.executeAPISet = true
	}
	return cfg
}

// SetExecuteAPI overrides the execute_api flag, as a command-line flag does.
func (c *Config) SetExecuteAPI(v bool) {
	c.ExecuteAPI = v
	c.executeAPISet = true
}

// Validate reports configuration the console cannot run with.
func (c *Config) Validate() error {
	if c.BackendURL == "" && c.ParamPrefix == "" {
		return errors.New("config: LEONA_BACKEND_URL or LEONA_PARAM_PREFIX is required")
	}
	if strings.TrimSpace(c.TabID) == "" {
		return errors.New("config: tab id must not be empty")
	}
	if strings.TrimSpace(c.CachePath) == "" {
		return errors.New("config: cache path must not be empty")
	}
	return nil
}

// ExecuteAPIParameterName is the optional parameter holding the default
// execute_api flag.
func (c *Config) ExecuteAPIParameterName() string {
	return c.ParamPrefix + "/config/execute_api"
}

// ApplyParameters reads <prefix>/config/execute_api unless the flag was set
// explicitly. A missing parameter leaves the default in place.
func (c *Config) ApplyParameters(ctx context.Context, l Lookuper) error {
	if c.executeAPISet || c.ParamPrefix == "" || l == nil {
		return nil
	}
	v, ok, err := l.Lookup(ctx, c.ExecuteAPIParameterName())
	if err != nil {
		return fmt.Errorf("config: read %s: %w", c.ExecuteAPIParameterName(), err)
	}
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("config: %s is not a boolean: %w", c.ExecuteAPIParameterName(), err)
	}
	c.ExecuteAPI = b
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}
