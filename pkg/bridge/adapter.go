// Package bridge runs framework applications on the httpx engine.
//
// The framework writes responses by staging a body on the request and
// returning; the engine expects every handler to produce its response. Each
// framework handler is wrapped in a shim that builds the framework request,
// runs the handler and then finalizes: the staged body is sent as text when
// it is absent or a string, and as JSON otherwise. The engine writes the
// finalized response to the connection once.
package bridge

import (
	"context"
	"crypto/tls"
	"errors"

	"github.com/joeydtaylor/steeze-bridge/pkg/framework"
	"github.com/joeydtaylor/steeze-bridge/pkg/transport/httpx"
	"go.uber.org/zap"
)

// Type is reported by GetType.
const Type = "httpx"

var (
	// ErrServerNotInitialized is returned by Listen before InitHTTPServer.
	ErrServerNotInitialized = errors.New("http server not initialized")
	// ErrUnsupportedOptions is returned when an options value has the wrong type.
	ErrUnsupportedOptions = errors.New("unsupported options type")
)

type handler = framework.RequestHandler[*httpx.Ctx]

var _ framework.HTTPAdapter[*httpx.Ctx] = (*Adapter)(nil)

// Adapter implements framework.HTTPAdapter over one engine and one server.
// Registration must finish before Listen.
type Adapter struct {
	engine     *httpx.Engine
	server     *httpx.Server
	serverOpts httpx.ServerOptions
	bodyLimit  int64
	parser     bool
	log        *zap.Logger
}

type Option func(*Adapter)

func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

// WithBodyLimit sets the cap installed by RegisterParserMiddleware.
func WithBodyLimit(n int64) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.bodyLimit = n
		}
	}
}

// WithServerOptions sets timeouts used when the native server is created.
// TLS fields are taken from ApplicationOptions instead.
func WithServerOptions(o httpx.ServerOptions) Option {
	return func(a *Adapter) { a.serverOpts = o }
}

// WithEngine uses e instead of a fresh engine.
func WithEngine(e *httpx.Engine) Option {
	return func(a *Adapter) {
		if e != nil {
			a.engine = e
		}
	}
}

func New(opts ...Option) *Adapter {
	a := &Adapter{
		bodyLimit: httpx.DefaultBodyLimit,
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.engine == nil {
		a.engine = httpx.New(httpx.WithLogger(a.log))
	}
	return a
}

// Engine exposes the underlying engine, for global net/http middleware and
// route introspection.
func (a *Adapter) Engine() *httpx.Engine { return a.engine }

// Server returns the native handle, or nil before InitHTTPServer.
func (a *Adapter) Server() *httpx.Server { return a.server }

func (a *Adapter) GetType() string { return Type }

// InitHTTPServer creates the native server. HTTPSOptions selects TLS. The
// server does not accept connections until Listen.
func (a *Adapter) InitHTTPServer(opts framework.ApplicationOptions) error {
	if a.server != nil && a.server.Addr() != nil {
		return httpx.ErrAlreadyListening
	}
	so := a.serverOpts
	so.Logger = a.log
	so.TLSConfig, so.CertFile, so.KeyFile = nil, "", ""
	if h := opts.HTTPSOptions; h != nil {
		so.CertFile, so.KeyFile = h.CertFile, h.KeyFile
		so.TLSConfig = h.Config
		if so.TLSConfig == nil {
			so.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS13}
		}
	}
	if opts.BodyLimit > 0 {
		a.bodyLimit = opts.BodyLimit
	}
	a.server = httpx.NewServer(a.engine, so)
	return nil
}

// Listen binds addr and serves in the background.
func (a *Adapter) Listen(addr string) (framework.Server, error) {
	if a.server == nil {
		return nil, ErrServerNotInitialized
	}
	if err := a.server.Listen(addr); err != nil {
		return nil, err
	}
	return a.server, nil
}

// Close drains connections and stops the server. Repeated calls, and calls
// before InitHTTPServer, return nil.
func (a *Adapter) Close(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Close(ctx)
}

// RegisterParserMiddleware installs the body limit for every request. Bodies
// are not parsed here; handlers decode them on demand.
func (a *Adapter) RegisterParserMiddleware(_ string, _ bool) {
	if a.parser {
		return
	}
	a.parser = true
	a.engine.Use("", httpx.BodyLimit(a.bodyLimit))
}
