package framework_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/cors"
	"github.com/joeydtaylor/steeze-bridge/pkg/bridge"
	"github.com/joeydtaylor/steeze-bridge/pkg/framework"
	"github.com/joeydtaylor/steeze-bridge/pkg/transport/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, routes ...framework.Route) (*framework.App[*httpx.Ctx], *bridge.Adapter) {
	t.Helper()
	a := bridge.New()
	app := framework.NewApp[*httpx.Ctx](a)
	app.Register(framework.ControllerFunc(func() []framework.Route { return routes }))
	return app, a
}

func call(a *bridge.Adapter, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	a.Engine().ServeHTTP(rec, req)
	return rec
}

func TestApp_DefaultStatuses(t *testing.T) {
	ok := func(*framework.Request) (any, error) { return map[string]bool{"ok": true}, nil }
	app, a := newApp(t,
		framework.Route{Method: framework.MethodGet, Path: "/r", Handler: ok},
		framework.Route{Method: framework.MethodPost, Path: "/r", Handler: ok},
		framework.Route{Method: framework.MethodPut, Path: "/r", Handler: ok, Status: http.StatusAccepted},
	)
	require.NoError(t, app.Init())

	assert.Equal(t, http.StatusOK, call(a, http.MethodGet, "/r", "").Code)
	assert.Equal(t, http.StatusCreated, call(a, http.MethodPost, "/r", "").Code)
	assert.Equal(t, http.StatusAccepted, call(a, http.MethodPut, "/r", "").Code)
}

func TestApp_DefaultNotFound(t *testing.T) {
	app, a := newApp(t)
	require.NoError(t, app.Init())

	rec := call(a, http.MethodGet, "/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"statusCode":404,"message":"Cannot GET /nope","error":"Not Found"}`, rec.Body.String())
}

func TestApp_HTTPException(t *testing.T) {
	app, a := newApp(t, framework.Route{
		Method: framework.MethodGet, Path: "/bad",
		Handler: func(*framework.Request) (any, error) {
			return nil, framework.BadRequest("id must be an integer")
		},
	})
	require.NoError(t, app.Init())

	rec := call(a, http.MethodGet, "/bad", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"statusCode":400,"message":"id must be an integer","error":"Bad Request"}`, rec.Body.String())
}

func TestApp_UnknownErrorIs500(t *testing.T) {
	app, a := newApp(t, framework.Route{
		Method: framework.MethodGet, Path: "/x",
		Handler: func(*framework.Request) (any, error) { return nil, errors.New("db down") },
	})
	require.NoError(t, app.Init())

	rec := call(a, http.MethodGet, "/x", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"statusCode":500,"message":"Internal server error"}`, rec.Body.String())
}

func TestApp_CustomHandlers(t *testing.T) {
	app, a := newApp(t, framework.Route{
		Method: framework.MethodGet, Path: "/x",
		Handler: func(*framework.Request) (any, error) { return nil, errors.New("boom") },
	})
	app.OnError(func(err error, _ *framework.Request, c *httpx.Ctx) error {
		a.Reply(c, "failure: "+err.Error(), http.StatusServiceUnavailable)
		return nil
	})
	app.OnNotFound(func(_ *framework.Request, c *httpx.Ctx, _ framework.Next) error {
		a.Reply(c, map[string]string{"error": "missing"}, http.StatusNotFound)
		return nil
	})
	require.NoError(t, app.Init())

	rec := call(a, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "failure: boom", rec.Body.String())

	rec = call(a, http.MethodGet, "/y", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"missing"}`, rec.Body.String())
}

func TestApp_StringBodyIsText(t *testing.T) {
	app, a := newApp(t, framework.Route{
		Method: framework.MethodGet, Path: "/hello",
		Handler: func(*framework.Request) (any, error) { return "hello", nil },
		Headers: map[string]string{"Cache-Control": "no-store"},
	})
	require.NoError(t, app.Init())

	rec := call(a, http.MethodGet, "/hello", "")

	assert.Equal(t, "hello", rec.Body.String())
	assert.Equal(t, "text/plain; charset=UTF-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestApp_Guards(t *testing.T) {
	deny := func(req *framework.Request) error {
		if req.Headers["authorization"] == "" {
			return framework.Unauthorized()
		}
		return nil
	}
	app, a := newApp(t, framework.Route{
		Method: framework.MethodGet, Path: "/secret",
		Guards:  []framework.Guard{deny},
		Handler: func(*framework.Request) (any, error) { return "secret", nil },
	})
	require.NoError(t, app.Init())

	rec := call(a, http.MethodGet, "/secret", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec = httptest.NewRecorder()
	a.Engine().ServeHTTP(rec, req)
	assert.Equal(t, "secret", rec.Body.String())
}

func TestApp_Timeout(t *testing.T) {
	app, a := newApp(t, framework.Route{
		Method: framework.MethodGet, Path: "/slow",
		Timeout: 10 * time.Millisecond,
		Handler: func(req *framework.Request) (any, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		},
	})
	require.NoError(t, app.Init())

	rec := call(a, http.MethodGet, "/slow", "")

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestApp_Middleware(t *testing.T) {
	app, a := newApp(t,
		framework.Route{Method: framework.MethodGet, Path: "/a", Handler: func(*framework.Request) (any, error) { return "a", nil }},
		framework.Route{Method: framework.MethodPost, Path: "/a", Handler: func(*framework.Request) (any, error) { return "a", nil }},
	)
	app.Use("", func(_ *framework.Request, c *httpx.Ctx, next framework.Next) error {
		a.SetHeader(c, "X-All", "1")
		return next()
	})
	app.UseFor(framework.MethodPost, "/a", func(_ *framework.Request, c *httpx.Ctx, next framework.Next) error {
		a.SetHeader(c, "X-Post", "1")
		return next()
	})
	require.NoError(t, app.Init())

	rec := call(a, http.MethodGet, "/a", "")
	assert.Equal(t, "1", rec.Header().Get("X-All"))
	assert.Empty(t, rec.Header().Get("X-Post"))

	rec = call(a, http.MethodPost, "/a", "")
	assert.Equal(t, "1", rec.Header().Get("X-All"))
	assert.Equal(t, "1", rec.Header().Get("X-Post"))
}

func TestApp_DecodeBody(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}
	app, a := newApp(t, framework.Route{
		Method: framework.MethodPost, Path: "/items",
		Handler: func(req *framework.Request) (any, error) {
			var b body
			if err := req.Decode(&b); err != nil {
				return nil, err
			}
			return b, nil
		},
	})
	require.NoError(t, app.Init())

	rec := call(a, http.MethodPost, "/items", `{"name":"kit"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"name":"kit"}`, rec.Body.String())

	rec = call(a, http.MethodPost, "/items", `{"nope":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApp_BodyLimit(t *testing.T) {
	a := bridge.New()
	app := framework.NewApp[*httpx.Ctx](a, framework.WithApplicationOptions(framework.ApplicationOptions{BodyLimit: 8}))
	app.Route(framework.Route{
		Method: framework.MethodPost, Path: "/items",
		Handler: func(*framework.Request) (any, error) { return "ok", nil },
	})
	require.NoError(t, app.Init())

	rec := call(a, http.MethodPost, "/items", strings.Repeat("x", 32))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestApp_StaticAssetsSeeCORS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("asset"), 0o644))

	a := bridge.New()
	app := framework.NewApp[*httpx.Ctx](a, framework.WithApplicationOptions(framework.ApplicationOptions{
		CORS: cors.Options{AllowedOrigins: []string{"https://app.example"}},
	}))
	app.UseStaticAssets("/", httpx.StaticOptions{Root: dir})
	require.NoError(t, app.Init())

	req := httptest.NewRequest(http.MethodGet, "/a.txt", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	a.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "asset", rec.Body.String())
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestApp_BadStaticOptionsFailInit(t *testing.T) {
	app, _ := newApp(t)
	app.UseStaticAssets("/", 42)

	assert.ErrorContains(t, app.Init(), `static "/"`)
}

func TestApp_UnsupportedRouteFailsInit(t *testing.T) {
	app, _ := newApp(t, framework.Route{
		Method: framework.MethodAll, Path: "/any",
		Handler: func(*framework.Request) (any, error) { return nil, nil },
	})

	assert.ErrorIs(t, app.Init(), framework.ErrNotImplemented)
}

func TestApp_MissingHandlerFailsInit(t *testing.T) {
	app, _ := newApp(t, framework.Route{Method: framework.MethodGet, Path: "/x"})

	assert.ErrorIs(t, app.Init(), framework.ErrHandlerUnresolved)
}

func TestApp_ListenAndClose(t *testing.T) {
	app, _ := newApp(t, framework.Route{
		Method: framework.MethodGet, Path: "/ping",
		Handler: func(*framework.Request) (any, error) { return "pong", nil },
	})

	srv, err := app.Listen("127.0.0.1:0")
	require.NoError(t, err)

	resp, err := http.Get("http://" + srv.Addr().String() + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Close(context.Background()))
	assert.NoError(t, app.Close(context.Background()))
}

func TestParseMethod(t *testing.T) {
	m, ok := framework.ParseMethod("patch")
	assert.True(t, ok)
	assert.Equal(t, framework.MethodPatch, m)
	assert.Equal(t, "PATCH", m.String())

	_, ok = framework.ParseMethod("TRACE")
	assert.False(t, ok)
	assert.Equal(t, "UNKNOWN", framework.RequestMethod(99).String())
}
