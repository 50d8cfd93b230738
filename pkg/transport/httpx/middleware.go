package httpx

import (
	"net/http"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultBodyLimit is the request body cap installed by BodyLimit(0).
const DefaultBodyLimit int64 = 100 * 1024

// FromMiddleware adapts net/http middleware to a Handler. The middleware may
// replace the request; it must not wrap the writer, since the engine writes
// the response after the chain returns. Middleware that answers without
// calling next owns the response.
func FromMiddleware(mw func(http.Handler) http.Handler) Handler {
	return func(c *Ctx, next Next) error {
		var (
			called bool
			err    error
		)
		h := mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			called = true
			c.Req.raw = r
			err = next()
		}))
		h.ServeHTTP(c.w, c.Req.raw)
		if !called && !c.Finalized() {
			c.res = ResponseAlreadySent
		}
		return err
	}
}

// FromHandler serves h as a terminal handler writing straight to the connection.
func FromHandler(h http.Handler) Handler {
	return func(c *Ctx, _ Next) error {
		h.ServeHTTP(c.Writer(), c.Req.raw)
		return nil
	}
}

// CORS returns the engine's CORS middleware. Options are go-chi/cors options,
// passed through unchanged.
func CORS(opts cors.Options) Handler {
	return FromMiddleware(cors.Handler(opts))
}

// BodyLimit rejects bodies larger than max bytes with 413. Declared lengths
// are checked up front; streamed bodies fail on read past the cap.
func BodyLimit(max int64) Handler {
	if max <= 0 {
		max = DefaultBodyLimit
	}
	limit := FromMiddleware(chimd.RequestSize(max))
	return func(c *Ctx, next Next) error {
		if c.Req.raw.ContentLength > max {
			c.Status(http.StatusRequestEntityTooLarge)
			return c.Text("Payload Too Large")
		}
		return limit(c, next)
	}
}
