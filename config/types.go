package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Default values applied by SetDefaults.
const (
	DefaultVersion    = "1.0"
	DefaultBaseURL    = "http://localhost:8000"
	DefaultTimeout    = "30s"
	DefaultCSRFCookie = "csrftoken"
	DefaultCSRFHeader = "X-CSRFTOKEN"
)

// Config is the dqm configuration, merged from the global, project and
// override files.
type Config struct {
	Version string       `yaml:"version" toml:"version" json:"version,omitempty" jsonschema:"description=Configuration version (e.g. 1.0)"`
	Server  ServerConfig `yaml:"server,omitempty" toml:"server,omitempty" json:"server,omitempty" jsonschema:"description=Audit backend connection settings"`
	UI      UIConfig     `yaml:"ui,omitempty" toml:"ui,omitempty" json:"ui,omitempty" jsonschema:"description=Initial UI state"`

	// Extensions captures all other top-level keys, such as logging.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-" jsonschema:"-"`
}

// ServerConfig locates the audit backend.
type ServerConfig struct {
	BaseURL    string `yaml:"base_url,omitempty" toml:"base_url,omitempty" json:"base_url,omitempty" jsonschema:"description=Root URL of the backend (http or https)"`
	Timeout    string `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=Per-request timeout as a Go duration (e.g. 30s)"`
	CSRFCookie string `yaml:"csrf_cookie,omitempty" toml:"csrf_cookie,omitempty" json:"csrf_cookie,omitempty" jsonschema:"description=Cookie holding the CSRF token"`
	CSRFHeader string `yaml:"csrf_header,omitempty" toml:"csrf_header,omitempty" json:"csrf_header,omitempty" jsonschema:"description=Header echoing the CSRF token on mutating requests"`
	UserAgent  string `yaml:"user_agent,omitempty" toml:"user_agent,omitempty" json:"user_agent,omitempty" jsonschema:"description=User-Agent sent with every request"`
}

// UIConfig seeds the UI slice of the store.
type UIConfig struct {
	Debug           bool   `yaml:"debug,omitempty" toml:"debug,omitempty" json:"debug,omitempty" jsonschema:"description=Show debug information"`
	Drawer          *bool  `yaml:"drawer,omitempty" toml:"drawer,omitempty" json:"drawer,omitempty" jsonschema:"description=Whether the navigation drawer starts open (default true)"`
	FeedbackFormURL string `yaml:"feedback_form_url,omitempty" toml:"feedback_form_url,omitempty" json:"feedback_form_url,omitempty" jsonschema:"description=Link to the feedback form"`
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = DefaultBaseURL
	}
	if c.Server.Timeout == "" {
		c.Server.Timeout = DefaultTimeout
	}
	if c.Server.CSRFCookie == "" {
		c.Server.CSRFCookie = DefaultCSRFCookie
	}
	if c.Server.CSRFHeader == "" {
		c.Server.CSRFHeader = DefaultCSRFHeader
	}
	if c.UI.Drawer == nil {
		open := true
		c.UI.Drawer = &open
	}
}

// TimeoutDuration parses the configured request timeout.
func (s ServerConfig) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return time.ParseDuration(DefaultTimeout)
	}
	return time.ParseDuration(s.Timeout)
}

// DrawerOpen reports the initial drawer state.
func (u UIConfig) DrawerOpen() bool {
	return u.Drawer == nil || *u.Drawer
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded dqm.yml into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// A missing key leaves the target zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
