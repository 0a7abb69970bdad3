package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (GRAGCHAT_*). A .env file in the working
// directory is loaded into the environment first, if present.
func Load(path string) (*Config, error) {
	// Ignore a missing .env; anything else is a real problem.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: GRAGCHAT_API_BASE_URL -> api_base_url,
	// GRAGCHAT_SERVER__PORT -> server.port, etc.
	if err := k.Load(env.Provider("GRAGCHAT_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "GRAGCHAT_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validModes is the set of recognized search modes.
var validModes = map[SearchMode]bool{
	ModeLocal:  true,
	ModeGlobal: true,
	ModeDrift:  true,
}

// ValidMode reports whether m is a recognized search mode.
func ValidMode(m SearchMode) bool { return validModes[m] }

// ValidK reports whether k is within the allowed result-count range.
func ValidK(k int) bool { return k >= MinK && k <= MaxK }

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_base_url %q: must be an absolute http(s) URL", c.APIBaseURL)
	}

	if c.APITimeoutSecs <= 0 {
		return fmt.Errorf("api_timeout_seconds must be positive")
	}
	if c.APIMaxRetries < 0 {
		return fmt.Errorf("api_max_retries must be non-negative")
	}

	if !ValidMode(c.DefaultMode) {
		return fmt.Errorf("invalid default_search_mode %q: must be one of local, global, drift", c.DefaultMode)
	}
	if !ValidK(c.DefaultK) {
		return fmt.Errorf("default_k %d out of range [%d,%d]", c.DefaultK, MinK, MaxK)
	}

	if c.EnablePDFViewer && c.DocumentsPath == "" {
		return fmt.Errorf("documents_path is required when enable_pdf_viewer is on")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	return nil
}
