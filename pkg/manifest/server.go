package manifest

import (
	"errors"
	"strings"
	"time"

	"github.com/go-chi/cors"
)

// Server configures the listening socket.
type Server struct {
	Listen         string `toml:"listen"`
	TLSCert        string `toml:"tls_cert"`
	TLSKey         string `toml:"tls_key"`
	ReadTimeoutMS  int    `toml:"read_timeout_ms"`
	WriteTimeoutMS int    `toml:"write_timeout_ms"`
	IdleTimeoutMS  int    `toml:"idle_timeout_ms"`
	BodyLimit      int64  `toml:"body_limit"`
}

func (s *Server) validate() error {
	s.Listen = strings.TrimSpace(s.Listen)
	if (s.TLSCert == "") != (s.TLSKey == "") {
		return errors.New("tls_cert and tls_key must be set together")
	}
	if s.ReadTimeoutMS < 0 || s.WriteTimeoutMS < 0 || s.IdleTimeoutMS < 0 {
		return errors.New("timeouts must be >= 0")
	}
	if s.BodyLimit < 0 {
		return errors.New("body_limit must be >= 0")
	}
	return nil
}

func (s Server) ReadTimeout() time.Duration  { return ms(s.ReadTimeoutMS) }
func (s Server) WriteTimeout() time.Duration { return ms(s.WriteTimeoutMS) }
func (s Server) IdleTimeout() time.Duration  { return ms(s.IdleTimeoutMS) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// CORS mirrors the go-chi/cors options the manifest can set.
type CORS struct {
	AllowedOrigins   []string `toml:"allowed_origins"`
	AllowedMethods   []string `toml:"allowed_methods"`
	AllowedHeaders   []string `toml:"allowed_headers"`
	ExposedHeaders   []string `toml:"exposed_headers"`
	AllowCredentials bool     `toml:"allow_credentials"`
	MaxAge           int      `toml:"max_age"`
}

func (c CORS) Options() cors.Options {
	return cors.Options{
		AllowedOrigins:   c.AllowedOrigins,
		AllowedMethods:   c.AllowedMethods,
		AllowedHeaders:   c.AllowedHeaders,
		ExposedHeaders:   c.ExposedHeaders,
		AllowCredentials: c.AllowCredentials,
		MaxAge:           c.MaxAge,
	}
}

// Static mounts a directory of files under a path prefix.
type Static struct {
	Path  string `toml:"path"`
	Root  string `toml:"root"`
	Index string `toml:"index"`

	// StripPrefix removes Path from the request path before lookup.
	StripPrefix bool `toml:"strip_prefix"`
}

func (s *Static) validate() error {
	if strings.TrimSpace(s.Root) == "" {
		return errors.New("root is required")
	}
	if s.Path == "" {
		s.Path = "/"
	}
	if !strings.HasPrefix(s.Path, "/") {
		s.Path = "/" + s.Path
	}
	return nil
}
