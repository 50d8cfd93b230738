// Package framework defines the transport-neutral contract an application
// drives its HTTP server through, and a small host application built on it.
package framework

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strings"
)

var (
	// ErrNotImplemented is returned by adapter operations the transport does not support.
	ErrNotImplemented = errors.New("method not implemented")
	// ErrHandlerUnresolved is returned when a path is registered without a handler.
	ErrHandlerUnresolved = errors.New("could not resolve handler")
	// ErrInvalidRegistration is returned when the first registration argument is neither a path nor a handler.
	ErrInvalidRegistration = errors.New("invalid registration arguments")
)

// RequestMethod is the closed set of verbs the host knows about.
type RequestMethod int

const (
	MethodGet RequestMethod = iota
	MethodPost
	MethodPut
	MethodDelete
	MethodPatch
	MethodAll
	MethodOptions
	MethodHead
	MethodSearch
)

var methodNames = [...]string{"GET", "POST", "PUT", "DELETE", "PATCH", "ALL", "OPTIONS", "HEAD", "SEARCH"}

func (m RequestMethod) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "UNKNOWN"
	}
	return methodNames[m]
}

// ParseMethod maps a verb name, case-insensitively, to its RequestMethod.
func ParseMethod(s string) (RequestMethod, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range methodNames {
		if n == s {
			return RequestMethod(i), true
		}
	}
	return 0, false
}

// Next continues to the next handler registered for the request.
type Next func() error

// RequestHandler is the three-argument handler convention: request, response
// context and continuation. Res is the transport's response context type.
type RequestHandler[Res any] func(req *Request, res Res, next Next) error

// ErrorHandler receives errors raised by any RequestHandler.
type ErrorHandler[Res any] func(err error, req *Request, res Res) error

// RegisterFunc registers a handler with or without a leading path. It accepts
// (path string, handler) or (handler) alone.
type RegisterFunc[Res any] func(pathOrHandler any, handler ...RequestHandler[Res]) error

// HTTPSOptions selects the TLS transport. Either the certificate files or a
// tls.Config carrying certificates must be set.
type HTTPSOptions struct {
	CertFile string
	KeyFile  string
	Config   *tls.Config
}

// ApplicationOptions configures the adapter's native server.
type ApplicationOptions struct {
	HTTPSOptions *HTTPSOptions
	// CORS is passed to EnableCors when non-nil.
	CORS any
	// BodyLimit caps request bodies; zero keeps the adapter default.
	BodyLimit int64
}

// Server is the listening handle returned by Listen.
type Server interface {
	Addr() net.Addr
}

// HTTPAdapter is everything the host needs from an HTTP transport.
type HTTPAdapter[Res any] interface {
	InitHTTPServer(opts ApplicationOptions) error
	Listen(addr string) (Server, error)
	Close(ctx context.Context) error
	GetType() string
	RegisterParserMiddleware(prefix string, rawBody bool)

	Get(pathOrHandler any, handler ...RequestHandler[Res]) error
	Post(pathOrHandler any, handler ...RequestHandler[Res]) error
	Put(pathOrHandler any, handler ...RequestHandler[Res]) error
	Patch(pathOrHandler any, handler ...RequestHandler[Res]) error
	Delete(pathOrHandler any, handler ...RequestHandler[Res]) error
	Head(pathOrHandler any, handler ...RequestHandler[Res]) error
	Options(pathOrHandler any, handler ...RequestHandler[Res]) error
	All(pathOrHandler any, handler ...RequestHandler[Res]) error
	Search(pathOrHandler any, handler ...RequestHandler[Res]) error
	Use(pathOrHandler any, handler ...RequestHandler[Res]) error
	CreateMiddlewareFactory(method RequestMethod) RegisterFunc[Res]
	ApplyVersionFilter(handler RequestHandler[Res], version string, options any) (RequestHandler[Res], error)

	Reply(res Res, body any, status int)
	Status(res Res, code int)
	Redirect(res Res, code int, url string)
	End(res Res) any
	IsHeadersSent(res Res) bool
	SetHeader(res Res, name, value string)
	AppendHeader(res Res, name, value string)
	GetHeader(res Res, name string) string

	SetErrorHandler(handler ErrorHandler[Res])
	SetNotFoundHandler(handler RequestHandler[Res])
	EnableCors(options any) error
	UseStaticAssets(path string, options any) error
	SetViewEngine(engine string) error
	Render(res Res, view string, options any) error

	GetRequestMethod(req *Request) string
	GetRequestURL(req *Request) string
	GetRequestHostname(res Res) string
}
