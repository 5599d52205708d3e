// Package config holds the application configuration: persisted defaults
// from config.yaml plus credential resolution for the child environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"subagent/paths"
)

const (
	// DefaultBaseURL is the API endpoint used when no override is configured.
	DefaultBaseURL = "https://api.z.ai/api/anthropic"

	// DefaultAPITimeoutMS is the per-request API timeout handed to the child
	// when the caller has not set API_TIMEOUT_MS themselves.
	DefaultAPITimeoutMS = "300000"

	// DefaultBinary is the Claude CLI executable name.
	DefaultBinary = "claude"

	// DefaultTimeoutSeconds is the wall-clock run timeout when neither the
	// flag nor config.yaml sets one.
	DefaultTimeoutSeconds = 120
)

// ErrMissingToken indicates no API credential was found in the environment.
var ErrMissingToken = errors.New(
	"missing API token: set ZAI_API_KEY or ANTHROPIC_AUTH_TOKEN (get a key from https://z.ai/subscribe)")

// Config holds defaults loaded from config.yaml. All fields are optional;
// the zero value is a fully usable config.
type Config struct {
	BaseURL               string `yaml:"base_url,omitempty"`                // overrides DefaultBaseURL
	APITimeoutMS          string `yaml:"api_timeout_ms,omitempty"`          // overrides DefaultAPITimeoutMS
	Binary                string `yaml:"binary,omitempty"`                  // overrides DefaultBinary
	DefaultTimeoutSeconds int    `yaml:"default_timeout_seconds,omitempty"` // overrides DefaultTimeoutSeconds
}

// Load reads the config from the standard location, or returns a zero config
// if the file doesn't exist.
func Load() (*Config, error) {
	path, err := paths.ConfigFilePath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from an explicit path. A missing file is not an
// error; a malformed file is.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// ClaudeBinary returns the Claude CLI executable name to launch.
func (c *Config) ClaudeBinary() string {
	if c.Binary == "" {
		return DefaultBinary
	}
	return c.Binary
}

// DefaultTimeout returns the run timeout to use when no --timeout flag is given.
func (c *Config) DefaultTimeout() time.Duration {
	secs := c.DefaultTimeoutSeconds
	if secs <= 0 {
		secs = DefaultTimeoutSeconds
	}
	return time.Duration(secs) * time.Second
}

// LoadDotenv loads a .env file from the working directory into the process
// environment, if one exists. Existing variables are never overwritten.
func LoadDotenv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	// godotenv.Load never overwrites variables already set
	_ = godotenv.Load()
}

// BuildEnv resolves API credentials and returns the complete child
// environment. It is a pure function of base and cfg:
//
//   - Token: ANTHROPIC_AUTH_TOKEN, then ZAI_API_KEY. Required.
//   - Base URL: ANTHROPIC_BASE_URL, then ZAI_BASE_URL, then cfg.BaseURL,
//     then DefaultBaseURL. The winner is written to ANTHROPIC_BASE_URL.
//   - API_TIMEOUT_MS: left alone if the caller set it, otherwise defaulted.
//
// Returns ErrMissingToken if no credential is present.
func BuildEnv(base []string, cfg *Config) ([]string, error) {
	env := environMap(base)

	token := env["ANTHROPIC_AUTH_TOKEN"]
	if token == "" {
		token = env["ZAI_API_KEY"]
	}
	if token == "" {
		return nil, ErrMissingToken
	}
	env["ANTHROPIC_AUTH_TOKEN"] = token

	baseURL := env["ANTHROPIC_BASE_URL"]
	if baseURL == "" {
		baseURL = env["ZAI_BASE_URL"]
	}
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	env["ANTHROPIC_BASE_URL"] = baseURL

	if env["API_TIMEOUT_MS"] == "" {
		timeoutMS := cfg.APITimeoutMS
		if timeoutMS == "" {
			timeoutMS = DefaultAPITimeoutMS
		}
		env["API_TIMEOUT_MS"] = timeoutMS
	}

	return environSlice(base, env), nil
}

// environMap parses KEY=VALUE entries into a map. Later entries win,
// matching os/exec semantics.
func environMap(entries []string) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		m[k] = v
	}
	return m
}

// environSlice rebuilds a KEY=VALUE slice preserving the original entry
// order, with updated values applied and new keys appended at the end.
func environSlice(base []string, env map[string]string) []string {
	out := make([]string, 0, len(env))
	seen := make(map[string]bool, len(env))
	for _, e := range base {
		k, _, ok := strings.Cut(e, "=")
		if !ok || seen[k] {
			continue
		}
		if v, found := env[k]; found {
			out = append(out, k+"="+v)
			seen[k] = true
		}
	}
	for k, v := range env {
		if !seen[k] {
			out = append(out, k+"="+v)
		}
	}
	return out
}
