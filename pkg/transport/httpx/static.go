package httpx

import (
	"net/http"
	"path"
)

// StaticOptions configures ServeStatic.
type StaticOptions struct {
	// Root is the directory files are served from. Defaults to ".".
	Root string
	// Index is served for directory requests. Defaults to "index.html".
	Index string
	// RewriteRequestPath maps the request path to a path under Root.
	RewriteRequestPath func(string) string
}

// ServeStatic serves files under opts.Root for GET and HEAD requests. Misses
// fall through to the next handler.
func ServeStatic(opts StaticOptions) Handler {
	root := opts.Root
	if root == "" {
		root = "."
	}
	index := opts.Index
	if index == "" {
		index = "index.html"
	}
	fs := http.Dir(root)

	return func(c *Ctx, next Next) error {
		if c.Finalized() {
			return next()
		}
		if m := c.Req.Method(); m != http.MethodGet && m != http.MethodHead {
			return next()
		}
		p := c.Req.raw.URL.Path
		if opts.RewriteRequestPath != nil {
			p = opts.RewriteRequestPath(p)
		}
		name := path.Clean("/" + p)

		f, err := fs.Open(name)
		if err != nil {
			return next()
		}
		st, err := f.Stat()
		if err == nil && st.IsDir() {
			_ = f.Close()
			name = path.Join(name, index)
			if f, err = fs.Open(name); err != nil {
				return next()
			}
			st, err = f.Stat()
		}
		defer f.Close()
		if err != nil || st.IsDir() {
			return next()
		}

		http.ServeContent(c.Writer(), c.Req.raw, st.Name(), st.ModTime(), f)
		return nil
	}
}
