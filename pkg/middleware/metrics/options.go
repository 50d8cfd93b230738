package metrics

import (
	"net/http"
	"strings"
)

type Option func(*Collector)

// WithSkipPaths adds paths that are never recorded. The metrics path itself
// is always skipped.
func WithSkipPaths(paths ...string) Option {
	return func(c *Collector) {
		for _, p := range paths {
			if p = strings.TrimSpace(p); p != "" {
				c.skipPaths[p] = struct{}{}
			}
		}
	}
}

// WithPathNormalizer sets how the uri label is derived from a request.
func WithPathNormalizer(fn func(*http.Request) string) Option {
	return func(c *Collector) {
		if fn != nil {
			c.pathNormalizer = fn
		}
	}
}

// CollapseNumeric replaces all-digit path segments with ":id" to keep the
// uri label bounded.
func CollapseNumeric(r *http.Request) string {
	segs := strings.Split(r.URL.Path, "/")
	for i, s := range segs {
		if s != "" && strings.Trim(s, "0123456789") == "" {
			segs[i] = ":id"
		}
	}
	return strings.Join(segs, "/")
}

func (c *Collector) isSkipPath(r *http.Request) bool {
	_, ok := c.skipPaths[r.URL.Path]
	return ok
}
