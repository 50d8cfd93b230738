package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	// ErrContextNotFinalized is raised when the chain returns without producing a response.
	ErrContextNotFinalized = errors.New("context is not finalized: respond or call next()")
	// ErrNextCalledTwice is raised when a handler invokes next more than once.
	ErrNextCalledTwice = errors.New("next() called multiple times")
	// ErrPanic wraps a value recovered from a panicking handler.
	ErrPanic = errors.New("handler panic")
)

type matched struct {
	h      Handler
	params map[string]string
}

func (e *Engine) serve(w http.ResponseWriter, r *http.Request) {
	c := newCtx(w, r)
	if err := e.run(c, e.match(c.Req)); err != nil {
		e.handleError(err, c)
	}
	c.flush()
}

// match collects every handler whose method and path fit the request, in
// registration order. HEAD requests are matched against GET routes.
func (e *Engine) match(req *Request) []matched {
	method := req.Method()
	if method == http.MethodHead {
		method = http.MethodGet
	}
	path := req.Path()

	var out []matched
	for _, en := range e.entries {
		if en.method != "" && en.method != MethodAll && en.method != method {
			continue
		}
		if en.matcher == nil {
			out = append(out, matched{h: en.h})
			continue
		}
		rctx := chi.NewRouteContext()
		if !en.matcher.Match(rctx, method, path) {
			continue
		}
		out = append(out, matched{h: en.h, params: urlParams(rctx)})
	}
	return out
}

func urlParams(rctx *chi.Context) map[string]string {
	if len(rctx.URLParams.Keys) == 0 {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		if k == "" {
			continue
		}
		v := rctx.URLParams.Values[i]
		if u, err := url.PathUnescape(v); err == nil {
			v = u
		}
		params[k] = v
	}
	return params
}

func (e *Engine) run(c *Ctx, chain []matched) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, p)
		}
	}()
	if err := e.compose(c, chain)(); err != nil {
		return err
	}
	if !c.Finalized() {
		return ErrContextNotFinalized
	}
	return nil
}

// compose threads next through the chain. Running past the last handler
// without a response invokes the not-found handler.
func (e *Engine) compose(c *Ctx, chain []matched) Next {
	index := -1
	var dispatch func(i int) error
	dispatch = func(i int) error {
		if i <= index {
			return ErrNextCalledTwice
		}
		index = i
		if i == len(chain) {
			if c.Finalized() {
				return nil
			}
			return e.notFoundHandler()(c, func() error { return nil })
		}
		m := chain[i]
		c.Req.params = m.params
		return m.h(c, func() error {
			err := dispatch(i + 1)
			c.Req.params = m.params
			return err
		})
	}
	return func() error { return dispatch(0) }
}

func (e *Engine) notFoundHandler() Handler {
	if e.notFound != nil {
		return e.notFound
	}
	return func(c *Ctx, _ Next) error {
		c.Status(http.StatusNotFound)
		return c.Text("404 Not Found")
	}
}

func (e *Engine) handleError(err error, c *Ctx) {
	h := e.onError
	if h == nil {
		h = e.defaultOnError
	}
	if herr := e.safeError(h, err, c); herr != nil {
		e.log.Error("error handler failed",
			zap.Error(herr),
			zap.NamedError("cause", err),
			zap.String("method", c.Req.Method()),
			zap.String("uri", c.Req.Path()),
		)
		c.Status(http.StatusInternalServerError)
		_ = c.Text("Internal Server Error")
	}
}

func (e *Engine) safeError(h ErrorHandler, err error, c *Ctx) (out error) {
	defer func() {
		if p := recover(); p != nil {
			out = fmt.Errorf("%w: %v", ErrPanic, p)
		}
	}()
	return h(err, c)
}

func (e *Engine) defaultOnError(err error, c *Ctx) error {
	e.log.Error("unhandled handler error",
		zap.Error(err),
		zap.String("method", c.Req.Method()),
		zap.String("uri", c.Req.Path()),
	)
	c.Status(http.StatusInternalServerError)
	return c.Text("Internal Server Error")
}
