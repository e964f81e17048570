package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides. Nested keys use a double
// underscore: COLLABVIEW_SERVER__PORT sets server.port.
const EnvPrefix = "COLLABVIEW_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
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
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[LogFormat]bool{
	LogFormatText: true,
	LogFormatJSON: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be one of debug, info, warn, error", c.Log.Level)
	}
	if !validLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format)
	}

	if c.Viewer.Endpoint != "" {
		if err := checkHTTPURL(c.Viewer.Endpoint); err != nil {
			return fmt.Errorf("invalid viewer.endpoint: %w", err)
		}
	}
	if c.Viewer.Authority == "" {
		return fmt.Errorf("viewer.authority is required")
	}
	if c.Viewer.TimeoutSeconds <= 0 {
		return fmt.Errorf("viewer.timeout_seconds must be positive")
	}
	if c.Viewer.SlotID == "" {
		return fmt.Errorf("viewer.slot_id is required")
	}

	if len(c.Eligibility.Extensions) == 0 {
		return fmt.Errorf("eligibility.extensions must not be empty")
	}
	for _, p := range c.Eligibility.Deny {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid eligibility.deny pattern %q", p)
		}
	}

	if c.Collabview.URL != "" {
		if err := checkHTTPURL(c.Collabview.URL); err != nil {
			return fmt.Errorf("invalid collabview.url: %w", err)
		}
	}

	if c.Import.MaxFileSizeMB < 0 {
		return fmt.Errorf("import.max_file_size_mb must be non-negative")
	}
	return nil
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must be an http or https URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
