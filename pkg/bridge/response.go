package bridge

import (
	"fmt"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/joeydtaylor/steeze-bridge/pkg/framework"
	"github.com/joeydtaylor/steeze-bridge/pkg/transport/httpx"
)

// Reply applies status when non-zero and stages body. Nothing is written
// until the handler returns.
func (a *Adapter) Reply(c *httpx.Ctx, body any, status int) {
	if status != 0 {
		c.Status(status)
	}
	stateOf(c).body = stage(body)
}

func (a *Adapter) Status(c *httpx.Ctx, code int) { c.Status(code) }

func (a *Adapter) SetHeader(c *httpx.Ctx, name, value string) { c.SetHeader(name, value) }

func (a *Adapter) AppendHeader(c *httpx.Ctx, name, value string) { c.AppendHeader(name, value) }

// GetHeader reads an inbound request header.
func (a *Adapter) GetHeader(c *httpx.Ctx, name string) string { return c.Req.HeaderValue(name) }

func (a *Adapter) Redirect(c *httpx.Ctx, code int, url string) { c.Redirect(url, code) }

// End reports that the engine owns the response.
func (a *Adapter) End(*httpx.Ctx) any { return httpx.ResponseAlreadySent }

// IsHeadersSent always reports true: header flush state is not tracked.
func (a *Adapter) IsHeadersSent(*httpx.Ctx) bool { return true }

func (a *Adapter) SetErrorHandler(h framework.ErrorHandler[*httpx.Ctx]) {
	a.engine.OnError(func(err error, c *httpx.Ctx) error {
		if herr := h(err, request(c), c); herr != nil {
			return herr
		}
		return send(c)
	})
}

func (a *Adapter) SetNotFoundHandler(h handler) {
	a.engine.NotFound(func(c *httpx.Ctx, _ httpx.Next) error {
		if err := h(request(c), c, func() error { return nil }); err != nil {
			return err
		}
		return send(c)
	})
}

var defaultCORS = cors.Options{
	AllowedMethods: []string{
		http.MethodGet, http.MethodHead, http.MethodPut,
		http.MethodPost, http.MethodDelete, http.MethodPatch,
	},
}

// EnableCors installs CORS for every request. options is a cors.Options,
// a *cors.Options or nil for defaults.
func (a *Adapter) EnableCors(options any) error {
	opts := defaultCORS
	switch o := options.(type) {
	case nil:
	case cors.Options:
		opts = o
	case *cors.Options:
		if o != nil {
			opts = *o
		}
	default:
		return fmt.Errorf("enableCors: %w: %T", ErrUnsupportedOptions, options)
	}
	a.engine.Use("", httpx.CORS(opts))
	return nil
}

// UseStaticAssets serves files below path. options is an httpx.StaticOptions,
// a pointer to one, or a root directory.
func (a *Adapter) UseStaticAssets(path string, options any) error {
	var opts httpx.StaticOptions
	switch o := options.(type) {
	case httpx.StaticOptions:
		opts = o
	case *httpx.StaticOptions:
		if o != nil {
			opts = *o
		}
	case string:
		opts.Root = o
	default:
		return fmt.Errorf("useStaticAssets: %w: %T", ErrUnsupportedOptions, options)
	}
	a.engine.Use(path, httpx.ServeStatic(opts))
	return nil
}

func (a *Adapter) SetViewEngine(string) error {
	return fmt.Errorf("setViewEngine: %w", framework.ErrNotImplemented)
}

func (a *Adapter) Render(*httpx.Ctx, string, any) error {
	return fmt.Errorf("render: %w", framework.ErrNotImplemented)
}

func (a *Adapter) GetRequestMethod(req *framework.Request) string { return req.Method }

func (a *Adapter) GetRequestURL(req *framework.Request) string { return req.URL }

// GetRequestHostname returns the Host header, or "localhost" without one.
func (a *Adapter) GetRequestHostname(c *httpx.Ctx) string {
	if h := c.Req.HeaderValue("host"); h != "" {
		return h
	}
	return "localhost"
}
