package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(e *Engine, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestEngine_BasicRoute(t *testing.T) {
	e := New()
	e.Get("/test", func(c *Ctx, _ Next) error { return c.Text("ok") })

	rec := do(e, http.MethodGet, "/test", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "text/plain; charset=UTF-8", rec.Header().Get("Content-Type"))
}

func TestEngine_JSON(t *testing.T) {
	e := New()
	e.Post("/items", func(c *Ctx, _ Next) error {
		c.Status(http.StatusCreated)
		return c.JSON(map[string]int{"a": 1})
	})

	rec := do(e, http.MethodPost, "/items", "")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"a":1}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestEngine_RequestAccessors(t *testing.T) {
	e := New()
	var (
		params  map[string]string
		query   map[string]string
		headers map[string]string
		url     string
	)
	e.Get("/users/:id", func(c *Ctx, _ Next) error {
		params = c.Req.Param()
		query = c.Req.Query()
		headers = c.Req.Header()
		url = c.Req.URL()
		return c.Text("")
	})

	req := httptest.NewRequest(http.MethodGet, "/users/42?filter=cats&filter=dogs", nil)
	req.Header.Set("X-Test", "1")
	req.Header.Add("X-Multi", "a")
	req.Header.Add("X-Multi", "b")
	e.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, map[string]string{"id": "42"}, params)
	assert.Equal(t, map[string]string{"filter": "cats"}, query)
	assert.Equal(t, "1", headers["x-test"])
	assert.Equal(t, "a, b", headers["x-multi"])
	assert.Equal(t, "example.com", headers["host"])
	assert.Equal(t, "http://example.com/users/42?filter=cats&filter=dogs", url)
}

func TestEngine_BraceParams(t *testing.T) {
	e := New()
	e.Get("/posts/{postID}/comments/{id}", func(c *Ctx, _ Next) error {
		return c.Text(c.Req.ParamValue("postID") + ":" + c.Req.ParamValue("id"))
	})

	rec := do(e, http.MethodGet, "/posts/7/comments/9", "")

	assert.Equal(t, "7:9", rec.Body.String())
}

func TestEngine_ColonParams(t *testing.T) {
	e := New()
	e.Get("/:id", func(c *Ctx, _ Next) error { return c.Text("id=" + c.Req.ParamValue("id")) })
	e.Get("/users/:id/posts/{pid}", func(c *Ctx, _ Next) error {
		return c.JSON(c.Req.Param())
	})

	rec := do(e, http.MethodGet, "/42", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id=42", rec.Body.String())

	rec = do(e, http.MethodGet, "/users/7/posts/9", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"7","pid":"9"}`, rec.Body.String())
}

func TestEngine_ColonParamsInMiddlewarePath(t *testing.T) {
	e := New()
	e.Use("/orgs/:org", func(c *Ctx, next Next) error {
		c.SetHeader("X-Org", c.Req.ParamValue("org"))
		return next()
	})
	e.Get("/orgs/:org/repos", func(c *Ctx, _ Next) error { return c.Text("repos") })

	rec := do(e, http.MethodGet, "/orgs/acme/repos", "")
	assert.Equal(t, "acme", rec.Header().Get("X-Org"))
	assert.Equal(t, "repos", rec.Body.String())
}

func TestEngine_ParamsAreUnescaped(t *testing.T) {
	e := New()
	e.Get("/files/:name", func(c *Ctx, _ Next) error { return c.Text(c.Req.ParamValue("name")) })

	rec := do(e, http.MethodGet, "/files/a%2Fb%20c", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a/b c", rec.Body.String())
}

func TestChiPattern(t *testing.T) {
	tests := map[string]string{
		"":                       "/",
		"/":                      "/",
		"items":                  "/items",
		"/:id":                   "/{id}",
		"/users/:id/posts/{pid}": "/users/{id}/posts/{pid}",
		"/files/*":               "/files/*",
		"/v/:n{[0-9]+}":          "/v/{n:[0-9]+}",
	}
	for in, want := range tests {
		assert.Equal(t, want, chiPattern(in), in)
	}
}

func TestEngine_MiddlewareRunsInRegistrationOrder(t *testing.T) {
	e := New()
	var order []string
	e.Use("", func(c *Ctx, next Next) error {
		order = append(order, "mw1:before")
		err := next()
		order = append(order, "mw1:after")
		return err
	})
	e.Get("/x", func(c *Ctx, _ Next) error {
		order = append(order, "route")
		return c.Text("x")
	})
	e.Use("", func(c *Ctx, next Next) error {
		order = append(order, "mw2")
		return next()
	})

	rec := do(e, http.MethodGet, "/x", "")

	assert.Equal(t, "x", rec.Body.String())
	assert.Equal(t, []string{"mw1:before", "route", "mw1:after"}, order)
}

func TestEngine_PathScopedMiddleware(t *testing.T) {
	e := New()
	e.Use("/api", func(c *Ctx, next Next) error {
		c.SetHeader("X-Api", "yes")
		return next()
	})
	e.Get("/api/users", func(c *Ctx, _ Next) error { return c.Text("users") })
	e.Get("/other", func(c *Ctx, _ Next) error { return c.Text("other") })

	assert.Equal(t, "yes", do(e, http.MethodGet, "/api/users", "").Header().Get("X-Api"))
	assert.Empty(t, do(e, http.MethodGet, "/other", "").Header().Get("X-Api"))
}

func TestEngine_EmptyPathRouteMatchesEveryPath(t *testing.T) {
	e := New()
	e.Get("", func(c *Ctx, _ Next) error { return c.Text("any") })

	assert.Equal(t, "any", do(e, http.MethodGet, "/a/b/c", "").Body.String())
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPost, "/a", "").Code)
}

func TestEngine_HeadUsesGetRoute(t *testing.T) {
	e := New()
	e.Get("/x", func(c *Ctx, _ Next) error {
		c.SetHeader("X-Seen", c.Req.Method())
		return c.Text("body")
	})

	rec := do(e, http.MethodHead, "/x", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.MethodHead, rec.Header().Get("X-Seen"))
}

func TestEngine_AllMatchesEveryMethod(t *testing.T) {
	e := New()
	e.All("/any", func(c *Ctx, _ Next) error { return c.Text(c.Req.Method()) })

	assert.Equal(t, "DELETE", do(e, http.MethodDelete, "/any", "").Body.String())
	assert.Equal(t, "PUT", do(e, http.MethodPut, "/any", "").Body.String())
}

func TestEngine_DefaultNotFound(t *testing.T) {
	e := New()

	rec := do(e, http.MethodGet, "/nonexistent", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "404 Not Found", rec.Body.String())
}

func TestEngine_CustomNotFoundRunsAfterMiddleware(t *testing.T) {
	e := New()
	e.Use("", func(c *Ctx, next Next) error {
		c.SetHeader("X-Mw", "1")
		return next()
	})
	e.NotFound(func(c *Ctx, _ Next) error {
		c.Status(http.StatusNotFound)
		return c.JSON(map[string]string{"error": "missing"})
	})

	rec := do(e, http.MethodGet, "/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Mw"))
	assert.JSONEq(t, `{"error":"missing"}`, rec.Body.String())
}

func TestEngine_NextPastLastHandlerRunsNotFound(t *testing.T) {
	e := New()
	e.Get("/x", func(c *Ctx, next Next) error { return next() })

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/x", "").Code)
}

func TestEngine_ErrorsReachOnError(t *testing.T) {
	e := New()
	boom := errors.New("boom")
	e.Get("/fail", func(c *Ctx, _ Next) error { return boom })

	var got error
	e.OnError(func(err error, c *Ctx) error {
		got = err
		c.Status(http.StatusTeapot)
		return c.Text("handled")
	})

	rec := do(e, http.MethodGet, "/fail", "")

	assert.ErrorIs(t, got, boom)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "handled", rec.Body.String())
}

func TestEngine_DefaultOnError(t *testing.T) {
	e := New()
	e.Get("/fail", func(c *Ctx, _ Next) error { return errors.New("boom") })

	rec := do(e, http.MethodGet, "/fail", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", rec.Body.String())
}

func TestEngine_PanicBecomesError(t *testing.T) {
	e := New()
	e.Get("/panic", func(c *Ctx, _ Next) error { panic("kaboom") })

	var got error
	e.OnError(func(err error, c *Ctx) error {
		got = err
		c.Status(http.StatusInternalServerError)
		return c.Text("recovered")
	})

	rec := do(e, http.MethodGet, "/panic", "")

	require.Error(t, got)
	assert.ErrorIs(t, got, ErrPanic)
	assert.Equal(t, "recovered", rec.Body.String())
}

func TestEngine_NextCalledTwice(t *testing.T) {
	e := New()
	var second error
	e.Use("", func(c *Ctx, next Next) error {
		if err := next(); err != nil {
			return err
		}
		second = next()
		return nil
	})
	e.Get("/x", func(c *Ctx, _ Next) error { return c.Text("x") })

	do(e, http.MethodGet, "/x", "")

	assert.ErrorIs(t, second, ErrNextCalledTwice)
}

func TestEngine_UnfinalizedChainIsAnError(t *testing.T) {
	e := New()
	e.Get("/x", func(c *Ctx, _ Next) error { return nil })

	var got error
	e.OnError(func(err error, c *Ctx) error {
		got = err
		return c.Text("")
	})

	do(e, http.MethodGet, "/x", "")

	assert.ErrorIs(t, got, ErrContextNotFinalized)
}

func TestEngine_SentResponseIsNotOverwritten(t *testing.T) {
	e := New()
	e.Use("", func(c *Ctx, next Next) error {
		if err := next(); err != nil {
			return err
		}
		return c.Text("overwrite")
	})
	e.Get("/raw", func(c *Ctx, _ Next) error {
		w := c.Writer()
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("raw"))
		return nil
	})

	rec := do(e, http.MethodGet, "/raw", "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "raw", rec.Body.String())
}

func TestEngine_Redirect(t *testing.T) {
	e := New()
	e.Get("/old", func(c *Ctx, _ Next) error {
		c.Redirect("/new", http.StatusMovedPermanently)
		return nil
	})

	rec := do(e, http.MethodGet, "/old", "")

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/new", rec.Header().Get("Location"))
}

func TestEngine_ScratchStore(t *testing.T) {
	type key struct{}
	e := New()
	e.Use("", func(c *Ctx, next Next) error {
		c.Set(key{}, "from-mw")
		return next()
	})
	e.Get("/x", func(c *Ctx, _ Next) error {
		v, ok := c.Get(key{})
		if !ok {
			return errors.New("missing")
		}
		return c.Text(v.(string))
	})

	assert.Equal(t, "from-mw", do(e, http.MethodGet, "/x", "").Body.String())
}

func TestEngine_GlobalMiddlewareWrapsEverything(t *testing.T) {
	e := New()
	e.UseGlobal(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Global", "1")
			next.ServeHTTP(w, r)
		})
	})

	rec := do(e, http.MethodGet, "/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Global"))
}

func TestEngine_Routes(t *testing.T) {
	e := New()
	h := func(c *Ctx, _ Next) error { return c.Text("") }
	e.Get("/a", h)
	e.Post("/b", h)
	e.Use("", h)

	assert.Equal(t, []RouteInfo{
		{Method: http.MethodGet, Path: "/a"},
		{Method: http.MethodPost, Path: "/b"},
	}, e.Routes())
}

func TestEngine_ParamsAreScopedToRunningHandler(t *testing.T) {
	e := New()
	var mwParams, afterParams map[string]string
	e.Use("/cats", func(c *Ctx, next Next) error {
		mwParams = c.Req.Param()
		err := next()
		afterParams = c.Req.Param()
		return err
	})
	e.Get("/cats/:id", func(c *Ctx, _ Next) error { return c.Text(c.Req.ParamValue("id")) })

	rec := do(e, http.MethodGet, "/cats/3", "")

	assert.Equal(t, "3", rec.Body.String())
	assert.Empty(t, mwParams["id"])
	assert.Empty(t, afterParams["id"])
}
