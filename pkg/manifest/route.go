package manifest

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// Route binds a method and path to a named in-process handler.
type Route struct {
	Path    string            `toml:"path"`
	Method  string            `toml:"method"`
	Handler string            `toml:"handler"`
	Status  int               `toml:"status"`
	Headers map[string]string `toml:"headers"`
	Guard   Guard             `toml:"guard"`
	Policy  Policy            `toml:"policy"`
	Tags    []string          `toml:"tags"`
}

type Guard struct {
	Roles       []string `toml:"roles"`
	Users       []string `toml:"users"`
	RequireAuth bool     `toml:"require_auth"`
}

// Empty reports whether the guard lets every request through.
func (g Guard) Empty() bool {
	return !g.RequireAuth && len(g.Users) == 0 && len(g.Roles) == 0
}

type Policy struct {
	TimeoutMS int `toml:"timeout_ms"`
}

func (p Policy) Timeout() time.Duration { return ms(p.TimeoutMS) }

var routeMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "OPTIONS": true, "HEAD": true,
}

func (r *Route) normalize() error {
	if r.Path == "" {
		return errors.New("path is required")
	}
	if !strings.HasPrefix(r.Path, "/") {
		r.Path = "/" + r.Path
	}
	if r.Path != "/" {
		r.Path = path.Clean(r.Path)
	}
	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
	if r.Method == "" {
		r.Method = "GET"
	}
	r.Handler = strings.TrimSpace(r.Handler)
	return nil
}

func (r *Route) validate() error {
	if !routeMethods[r.Method] {
		return fmt.Errorf("method %q not supported", r.Method)
	}
	if r.Handler == "" {
		return errors.New("handler is required")
	}
	if r.Status != 0 && (r.Status < 100 || r.Status > 599) {
		return fmt.Errorf("status %d out of range", r.Status)
	}
	if r.Policy.TimeoutMS < 0 {
		return errors.New("policy.timeout_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateRoutes() error {
	seen := make(map[string]int, len(c.Routes))
	for i := range c.Routes {
		rt := &c.Routes[i]
		if err := rt.normalize(); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
		if err := rt.validate(); err != nil {
			return fmt.Errorf("route %d (%s %s): %w", i, rt.Method, rt.Path, err)
		}
		key := rt.Method + " " + rt.Path
		if j, dup := seen[key]; dup {
			return fmt.Errorf("route %d (%s): duplicates route %d", i, key, j)
		}
		seen[key] = i
	}
	return nil
}
