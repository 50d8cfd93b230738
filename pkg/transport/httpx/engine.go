// pkg/transport/httpx/engine.go
package httpx

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Next runs the rest of the handler chain.
type Next func() error

// Handler is the engine's native handler and middleware signature.
type Handler func(c *Ctx, next Next) error

// ErrorHandler receives every error returned or panicked by the chain.
type ErrorHandler func(err error, c *Ctx) error

// MethodAll registers a route for every method.
const MethodAll = "ALL"

// RouteInfo describes one registration call.
type RouteInfo struct {
	Method string
	Path   string
}

type entry struct {
	method  string   // "" for middleware mounts
	path    string   // as registered
	matcher *chi.Mux // nil matches every path
	h       Handler
}

// Engine owns the route table and middleware chain. It is configured before
// serving and read-only afterwards; registration is not safe concurrently
// with ServeHTTP.
type Engine struct {
	entries  []*entry
	routes   []RouteInfo
	global   []func(http.Handler) http.Handler
	onError  ErrorHandler
	notFound Handler
	log      *zap.Logger
}

type Option func(*Engine)

// WithLogger sets the logger used for unhandled errors.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New returns an empty Engine.
func New(opts ...Option) *Engine {
	e := &Engine{log: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Get(path string, hs ...Handler)     { e.on(http.MethodGet, path, hs) }
func (e *Engine) Post(path string, hs ...Handler)    { e.on(http.MethodPost, path, hs) }
func (e *Engine) Put(path string, hs ...Handler)     { e.on(http.MethodPut, path, hs) }
func (e *Engine) Patch(path string, hs ...Handler)   { e.on(http.MethodPatch, path, hs) }
func (e *Engine) Delete(path string, hs ...Handler)  { e.on(http.MethodDelete, path, hs) }
func (e *Engine) Options(path string, hs ...Handler) { e.on(http.MethodOptions, path, hs) }
func (e *Engine) All(path string, hs ...Handler)     { e.on(MethodAll, path, hs) }

// Use mounts middleware for every method. An empty path, "*" or "/*" applies
// it to every request; any other path matches itself and everything below it.
func (e *Engine) Use(path string, hs ...Handler) {
	var m *chi.Mux
	if !matchesEverything(path) {
		path = chiPattern(path)
		m = chi.NewRouter()
		m.Handle(path, http.NotFoundHandler())
		if !strings.HasSuffix(path, "*") {
			m.Handle(strings.TrimSuffix(path, "/")+"/*", http.NotFoundHandler())
		}
	}
	for _, h := range hs {
		e.entries = append(e.entries, &entry{path: path, matcher: m, h: h})
	}
}

// OnError installs the global error hook.
func (e *Engine) OnError(h ErrorHandler) { e.onError = h }

// NotFound installs the handler run when no handler finalizes the context.
func (e *Engine) NotFound(h Handler) { e.notFound = h }

// UseGlobal wraps the whole engine in net/http middleware. It runs for every
// request, before any matching, and sees the final write.
func (e *Engine) UseGlobal(mw ...func(http.Handler) http.Handler) {
	e.global = append(e.global, mw...)
}

// Routes lists verb registrations in the order they were made.
func (e *Engine) Routes() []RouteInfo {
	out := make([]RouteInfo, len(e.routes))
	copy(out, e.routes)
	return out
}

// ServeHTTP is the engine's request entry point.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if len(e.global) == 0 {
		e.serve(w, r)
		return
	}
	handler := http.Handler(http.HandlerFunc(e.serve))
	// first added wraps last
	for i := len(e.global) - 1; i >= 0; i-- {
		handler = e.global[i](handler)
	}
	handler.ServeHTTP(w, r)
}

func (e *Engine) on(method, path string, hs []Handler) {
	var m *chi.Mux
	if path != "" {
		path = rooted(path)
		m = chi.NewRouter()
		if method == MethodAll {
			m.Handle(chiPattern(path), http.NotFoundHandler())
		} else {
			m.Method(method, chiPattern(path), http.NotFoundHandler())
		}
	}
	for _, h := range hs {
		e.entries = append(e.entries, &entry{method: method, path: path, matcher: m, h: h})
	}
	e.routes = append(e.routes, RouteInfo{Method: method, Path: path})
}

// chiPattern rewrites ":name" segments to chi's "{name}" and ":name{re}" to
// "{name:re}". Braced segments and "*" pass through. The result is rooted.
func chiPattern(path string) string {
	segs := strings.Split(rooted(path), "/")
	for i, seg := range segs {
		if !strings.HasPrefix(seg, ":") || len(seg) < 2 {
			continue
		}
		name := seg[1:]
		if j := strings.IndexByte(name, '{'); j > 0 && strings.HasSuffix(name, "}") {
			segs[i] = "{" + name[:j] + ":" + name[j+1:len(name)-1] + "}"
			continue
		}
		segs[i] = "{" + name + "}"
	}
	return strings.Join(segs, "/")
}

// chi patterns must begin with '/'.
func rooted(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

func matchesEverything(path string) bool {
	return path == "" || path == "*" || path == "/*"
}
