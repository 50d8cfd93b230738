package main

import (
	"strconv"

	"github.com/joeydtaylor/steeze-bridge/pkg/core"
	"github.com/joeydtaylor/steeze-bridge/pkg/framework"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/auth"
)

type echoBody struct {
	Name *string `json:"name,omitempty"`
}

type echoResponse struct {
	Params  map[string]any    `json:"params"`
	Query   map[string]any    `json:"query"`
	Headers map[string]string `json:"headers"`
	Body    *echoBody         `json:"body,omitempty"`
	IP      string            `json:"ip,omitempty"`
	User    *auth.User        `json:"user,omitempty"`
}

// echoController answers every verb on /:id with what it was sent.
type echoController struct{}

func newEchoController() echoController { return echoController{} }

func (echoController) Routes() []framework.Route {
	return []framework.Route{
		{Method: framework.MethodGet, Path: "/:id", Handler: echoGet},
		{Method: framework.MethodOptions, Path: "/:id", Handler: echo(false)},
		{Method: framework.MethodHead, Path: "/:id", Handler: echo(false)},
		{Method: framework.MethodPost, Path: "/:id", Handler: echo(true)},
		{Method: framework.MethodPatch, Path: "/:id", Handler: echo(true)},
		{Method: framework.MethodPut, Path: "/:id", Handler: echo(true)},
		{Method: framework.MethodDelete, Path: "/:id", Handler: echo(false)},
	}
}

// GET exposes params untouched along with the caller's address.
func echoGet(req *framework.Request) (any, error) {
	params := make(map[string]any, len(req.Params))
	for k, v := range req.Params {
		params[k] = v
	}
	res := base(req, params)
	res.IP = req.IP
	return res, nil
}

func echo(withBody bool) framework.RouteFunc {
	return func(req *framework.Request) (any, error) {
		id, err := strconv.Atoi(req.Params["id"])
		if err != nil {
			return nil, framework.BadRequest("id must be an integer")
		}
		res := base(req, map[string]any{"id": id})
		if withBody {
			var b echoBody
			if err := req.Decode(&b); err != nil {
				return nil, err
			}
			res.Body = &b
		}
		return res, nil
	}
}

func base(req *framework.Request, params map[string]any) echoResponse {
	query := map[string]any{}
	if f, ok := req.Query["filter"]; ok {
		query["filter"] = f
	}
	res := echoResponse{Params: params, Query: query, Headers: req.Headers}
	if u, ok := auth.UserFrom(req.Context()); ok && u.Username != "" {
		res.User = &u
	}
	return res
}

func init() {
	core.Register("status", func(*framework.Request) (any, error) {
		return map[string]string{"status": "ok"}, nil
	})
}
