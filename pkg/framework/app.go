package framework

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RouteFunc produces a route's response body. Returned errors are reported
// through the error handler.
type RouteFunc func(req *Request) (any, error)

// Guard decides whether a request may reach its route. A non-nil error
// rejects the request and is reported like a handler error.
type Guard func(req *Request) error

// Route is one controller endpoint.
type Route struct {
	Method  RequestMethod
	Path    string
	Handler RouteFunc
	// Status overrides the default: 201 for POST, 200 otherwise.
	Status int
	// Headers are set on every response of the route.
	Headers map[string]string
	Guards  []Guard
	// Timeout bounds the request context handed to Handler.
	Timeout time.Duration
}

// Controller groups routes.
type Controller interface {
	Routes() []Route
}

// ControllerFunc adapts a route list to a Controller.
type ControllerFunc func() []Route

func (f ControllerFunc) Routes() []Route { return f() }

type mount[Res any] struct {
	method  *RequestMethod
	path    string
	handler RequestHandler[Res]
}

type static struct {
	path    string
	options any
}

type appConfig struct {
	log  *zap.Logger
	opts ApplicationOptions
}

type AppOption func(*appConfig)

func WithLogger(l *zap.Logger) AppOption {
	return func(c *appConfig) {
		if l != nil {
			c.log = l
		}
	}
}

func WithApplicationOptions(o ApplicationOptions) AppOption {
	return func(c *appConfig) { c.opts = o }
}

// App hosts controllers on any HTTPAdapter. Configure it, then Init or
// Listen; configuration after Init has no effect.
type App[Res any] struct {
	adapter HTTPAdapter[Res]
	log     *zap.Logger
	opts    ApplicationOptions

	routes     []Route
	statics    []static
	mounts     []mount[Res]
	onError    ErrorHandler[Res]
	onNotFound RequestHandler[Res]
	inited     bool
}

func NewApp[Res any](adapter HTTPAdapter[Res], opts ...AppOption) *App[Res] {
	cfg := appConfig{log: zap.NewNop()}
	for _, o := range opts {
		o(&cfg)
	}
	return &App[Res]{adapter: adapter, log: cfg.log, opts: cfg.opts}
}

func (a *App[Res]) Adapter() HTTPAdapter[Res] { return a.adapter }

func (a *App[Res]) Register(ctrls ...Controller) {
	for _, c := range ctrls {
		a.routes = append(a.routes, c.Routes()...)
	}
}

func (a *App[Res]) Route(rt Route) { a.routes = append(a.routes, rt) }

// Use mounts middleware for every method under path; "" means every path.
func (a *App[Res]) Use(path string, mw RequestHandler[Res]) {
	a.mounts = append(a.mounts, mount[Res]{path: path, handler: mw})
}

// UseStaticAssets serves files under path. Static mounts are installed after
// the body limit and CORS, ahead of other middleware.
func (a *App[Res]) UseStaticAssets(path string, options any) {
	a.statics = append(a.statics, static{path: path, options: options})
}

// UseFor mounts middleware for a single verb.
func (a *App[Res]) UseFor(method RequestMethod, path string, mw RequestHandler[Res]) {
	m := method
	a.mounts = append(a.mounts, mount[Res]{method: &m, path: path, handler: mw})
}

// OnError replaces the default exception handler.
func (a *App[Res]) OnError(h ErrorHandler[Res]) { a.onError = h }

// OnNotFound replaces the default not-found handler.
func (a *App[Res]) OnNotFound(h RequestHandler[Res]) { a.onNotFound = h }

// Init creates the native server and registers everything with the adapter.
func (a *App[Res]) Init() error {
	if a.inited {
		return nil
	}
	ad := a.adapter
	if err := ad.InitHTTPServer(a.opts); err != nil {
		return fmt.Errorf("init http server: %w", err)
	}
	ad.RegisterParserMiddleware("", false)
	if a.opts.CORS != nil {
		if err := ad.EnableCors(a.opts.CORS); err != nil {
			return fmt.Errorf("enable cors: %w", err)
		}
	}

	for _, st := range a.statics {
		if err := ad.UseStaticAssets(st.path, st.options); err != nil {
			return fmt.Errorf("static %q: %w", st.path, err)
		}
	}

	for _, m := range a.mounts {
		register := RegisterFunc[Res](ad.Use)
		if m.method != nil {
			register = ad.CreateMiddlewareFactory(*m.method)
		}
		if err := register(m.path, m.handler); err != nil {
			return fmt.Errorf("mount middleware %q: %w", m.path, err)
		}
	}

	for _, rt := range a.routes {
		if rt.Handler == nil {
			return fmt.Errorf("route %s %s: %w", rt.Method, rt.Path, ErrHandlerUnresolved)
		}
		if err := a.registerRoute(rt); err != nil {
			return fmt.Errorf("route %s %s: %w", rt.Method, rt.Path, err)
		}
		a.log.Info("mapped route", zap.String("method", rt.Method.String()), zap.String("path", rt.Path))
	}

	nf := a.onNotFound
	if nf == nil {
		nf = a.notFound
	}
	ad.SetNotFoundHandler(nf)
	eh := a.onError
	if eh == nil {
		eh = a.handleException
	}
	ad.SetErrorHandler(eh)

	a.inited = true
	a.log.Info("application initialized", zap.String("adapter", ad.GetType()), zap.Int("routes", len(a.routes)))
	return nil
}

// Listen initializes the app when needed and starts accepting connections.
func (a *App[Res]) Listen(addr string) (Server, error) {
	if err := a.Init(); err != nil {
		return nil, err
	}
	srv, err := a.adapter.Listen(addr)
	if err != nil {
		return nil, err
	}
	a.log.Info("application listening", zap.Stringer("addr", srv.Addr()))
	return srv, nil
}

func (a *App[Res]) Close(ctx context.Context) error {
	return a.adapter.Close(ctx)
}

func (a *App[Res]) registerRoute(rt Route) error {
	h := a.routeHandler(rt)
	ad := a.adapter
	switch rt.Method {
	case MethodGet:
		return ad.Get(rt.Path, h)
	case MethodPost:
		return ad.Post(rt.Path, h)
	case MethodPut:
		return ad.Put(rt.Path, h)
	case MethodDelete:
		return ad.Delete(rt.Path, h)
	case MethodPatch:
		return ad.Patch(rt.Path, h)
	case MethodOptions:
		return ad.Options(rt.Path, h)
	case MethodHead:
		return ad.Head(rt.Path, h)
	case MethodAll:
		return ad.All(rt.Path, h)
	case MethodSearch:
		return ad.Search(rt.Path, h)
	default:
		return fmt.Errorf("%w: unknown method %d", ErrInvalidRegistration, int(rt.Method))
	}
}

func (a *App[Res]) routeHandler(rt Route) RequestHandler[Res] {
	status := rt.Status
	if status == 0 {
		status = http.StatusOK
		if rt.Method == MethodPost {
			status = http.StatusCreated
		}
	}
	return func(req *Request, res Res, _ Next) error {
		for _, g := range rt.Guards {
			if err := g(req); err != nil {
				return err
			}
		}
		if rt.Timeout > 0 {
			ctx, cancel := context.WithTimeout(req.Context(), rt.Timeout)
			defer cancel()
			req = req.WithContext(ctx)
		}
		out, err := rt.Handler(req)
		if err != nil {
			return err
		}
		for k, v := range rt.Headers {
			a.adapter.SetHeader(res, k, v)
		}
		a.adapter.Reply(res, out, status)
		return nil
	}
}

func (a *App[Res]) notFound(req *Request, res Res, _ Next) error {
	a.adapter.Reply(res, ErrorBody{
		StatusCode: http.StatusNotFound,
		Message:    fmt.Sprintf("Cannot %s %s", req.Method, req.Path),
		Error:      "Not Found",
	}, http.StatusNotFound)
	return nil
}

func (a *App[Res]) handleException(err error, req *Request, res Res) error {
	var he *HTTPException
	if errors.As(err, &he) {
		a.adapter.Reply(res, he.Body(), he.Status)
		return nil
	}
	body := ErrorBody{StatusCode: http.StatusInternalServerError, Message: "Internal server error"}
	if errors.Is(err, context.DeadlineExceeded) {
		body = ErrorBody{StatusCode: http.StatusGatewayTimeout, Message: "Gateway timeout"}
	}
	a.log.Error("unhandled exception",
		zap.Error(err),
		zap.String("method", req.Method),
		zap.String("path", req.Path),
	)
	a.adapter.Reply(res, body, body.StatusCode)
	return nil
}
