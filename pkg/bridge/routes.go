package bridge

import (
	"fmt"

	"github.com/joeydtaylor/steeze-bridge/pkg/framework"
	"github.com/joeydtaylor/steeze-bridge/pkg/transport/httpx"
)

type engineRegister func(path string, hs ...httpx.Handler)

func (a *Adapter) Get(p any, hs ...handler) error     { return a.register(a.engine.Get, p, hs) }
func (a *Adapter) Post(p any, hs ...handler) error    { return a.register(a.engine.Post, p, hs) }
func (a *Adapter) Put(p any, hs ...handler) error     { return a.register(a.engine.Put, p, hs) }
func (a *Adapter) Patch(p any, hs ...handler) error   { return a.register(a.engine.Patch, p, hs) }
func (a *Adapter) Delete(p any, hs ...handler) error  { return a.register(a.engine.Delete, p, hs) }
func (a *Adapter) Options(p any, hs ...handler) error { return a.register(a.engine.Options, p, hs) }
func (a *Adapter) Use(p any, hs ...handler) error     { return a.register(a.engine.Use, p, hs) }

// Head registers on the engine's GET table; the engine answers HEAD
// requests from GET routes.
func (a *Adapter) Head(p any, hs ...handler) error { return a.register(a.engine.Get, p, hs) }

func (a *Adapter) All(any, ...handler) error {
	return fmt.Errorf("all: %w", framework.ErrNotImplemented)
}

func (a *Adapter) Search(any, ...handler) error {
	return fmt.Errorf("search: %w", framework.ErrNotImplemented)
}

func (a *Adapter) ApplyVersionFilter(handler, string, any) (handler, error) {
	return nil, fmt.Errorf("applyVersionFilter: %w", framework.ErrNotImplemented)
}

// CreateMiddlewareFactory returns the registration function for method.
// Verbs without an engine registration fall back to Use.
func (a *Adapter) CreateMiddlewareFactory(method framework.RequestMethod) framework.RegisterFunc[*httpx.Ctx] {
	var fn engineRegister
	switch method {
	case framework.MethodAll:
		fn = a.engine.All
	case framework.MethodDelete:
		fn = a.engine.Delete
	case framework.MethodGet:
		fn = a.engine.Get
	case framework.MethodOptions:
		fn = a.engine.Options
	case framework.MethodPatch:
		fn = a.engine.Patch
	case framework.MethodPost:
		fn = a.engine.Post
	case framework.MethodPut:
		fn = a.engine.Put
	default:
		fn = a.engine.Use
	}
	return func(p any, hs ...handler) error { return a.register(fn, p, hs) }
}

func (a *Adapter) register(fn engineRegister, p any, hs []handler) error {
	path, resolved, err := resolve(p, hs)
	if err != nil {
		return err
	}
	shims := make([]httpx.Handler, len(resolved))
	for i, h := range resolved {
		shims[i] = a.shim(h)
	}
	fn(path, shims...)
	return nil
}

// resolve accepts (path, handler...) or (handler, handler...). A bare
// handler applies to every path.
func resolve(p any, hs []handler) (string, []handler, error) {
	var (
		path string
		out  []handler
	)
	switch v := p.(type) {
	case string:
		path = v
	case handler:
		out = append(out, v)
	case func(*framework.Request, *httpx.Ctx, framework.Next) error:
		out = append(out, v)
	default:
		return "", nil, fmt.Errorf("%w: unexpected %T", framework.ErrInvalidRegistration, p)
	}
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	if len(out) == 0 || out[0] == nil {
		return "", nil, framework.ErrHandlerUnresolved
	}
	return path, out, nil
}
