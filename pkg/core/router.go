package core

import (
	"fmt"

	"github.com/joeydtaylor/steeze-bridge/pkg/framework"
	"github.com/joeydtaylor/steeze-bridge/pkg/manifest"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/auth"
)

// BuildController turns the manifest's routes into a controller. Every route
// must name a handler present in reg; a nil reg means the process-wide one.
// a may be nil, in which case only unguarded routes are reachable.
func BuildController(cfg manifest.Config, a *auth.Middleware, reg *Registry) (framework.Controller, error) {
	if reg == nil {
		reg = registry
	}
	routes := make([]framework.Route, 0, len(cfg.Routes))
	for _, rt := range cfg.Routes {
		h, ok := reg.Lookup(rt.Handler)
		if !ok {
			return nil, fmt.Errorf("route %s %s: %w: %q", rt.Method, rt.Path, framework.ErrHandlerUnresolved, rt.Handler)
		}
		method, ok := framework.ParseMethod(rt.Method)
		if !ok {
			return nil, fmt.Errorf("route %s %s: unknown method", rt.Method, rt.Path)
		}

		r := framework.Route{
			Method:  method,
			Path:    rt.Path,
			Handler: h,
			Status:  rt.Status,
			Headers: rt.Headers,
			Timeout: rt.Policy.Timeout(),
		}
		if !rt.Guard.Empty() {
			r.Guards = append(r.Guards, a.Guard(auth.Policy{
				RequireAuth: rt.Guard.RequireAuth,
				Users:       rt.Guard.Users,
				Roles:       rt.Guard.Roles,
			}))
		}
		routes = append(routes, r)
	}
	return framework.ControllerFunc(func() []framework.Route { return routes }), nil
}
