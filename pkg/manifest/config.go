// Package manifest loads the TOML service manifest.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the top-level manifest. Every section is optional.
type Config struct {
	Server  Server   `toml:"server"`
	CORS    *CORS    `toml:"cors"`
	Static  []Static `toml:"static"`
	Log     Log      `toml:"log"`
	Metrics Metrics  `toml:"metrics"`
	Auth    Auth     `toml:"auth"`
	Routes  []Route  `toml:"route"`
}

// Log configures the system and access loggers.
type Log struct {
	Dir   string `toml:"dir"`
	Level string `toml:"level"`

	// BodyPaths lists paths whose small JSON request bodies are logged.
	BodyPaths []string `toml:"body_paths"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Disabled  bool     `toml:"disabled"`
	Path      string   `toml:"path"`
	SkipPaths []string `toml:"skip_paths"`
}

// Auth configures assertion verification.
type Auth struct {
	Header        string `toml:"header"`
	Cookie        string `toml:"cookie"`
	KeyURL        string `toml:"key_url"`
	KeyKID        string `toml:"key_kid"`
	PublicKeyFile string `toml:"public_key_file"`
	HMACSecretEnv string `toml:"hmac_secret_env"`
	Issuer        string `toml:"issuer"`
	Audience      string `toml:"audience"`
	LeewaySeconds int    `toml:"leeway_seconds"`
	AdminRole     string `toml:"admin_role"`
	DevBypass     bool   `toml:"dev_bypass"`
	SessionAPI    string `toml:"session_api"`
	SessionCookie string `toml:"session_cookie"`
}

// Default returns the configuration used when no manifest file exists.
func Default() Config {
	var c Config
	_ = c.Validate()
	return c
}

// Parse decodes and validates a manifest document.
func Parse(b []byte) (Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return Config{}, fmt.Errorf("manifest: %s", sme.String())
		}
		return Config{}, fmt.Errorf("manifest: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads the manifest at path. A missing file yields Default when
// optional is true.
func LoadConfig(path string, optional bool) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}
	return Parse(b)
}

// Validate normalizes the manifest in place and reports the first problem.
func (c *Config) Validate() error {
	if err := c.Server.validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "log"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q invalid", c.Log.Level)
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path)
	}
	if c.Auth.LeewaySeconds < 0 {
		return errors.New("auth.leeway_seconds must be >= 0")
	}
	for i := range c.Static {
		if err := c.Static[i].validate(); err != nil {
			return fmt.Errorf("static %d: %w", i, err)
		}
	}
	return c.validateRoutes()
}
