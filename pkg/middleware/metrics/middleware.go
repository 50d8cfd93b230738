package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/middleware"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/auth"
)

// Collect records every request that is not on the skip list; ca may be nil.
func (c *Collector) Collect(ca *auth.Middleware) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			startTime := time.Now()

			defer func() {
				if c.isSkipPath(r) {
					return
				}
				role := ""
				if ca != nil {
					role = ca.GetUser(r.Context()).Role.Name
				}
				st := ww.Status()
				if st == 0 {
					st = http.StatusOK
				}
				code := strconv.Itoa(st)

				c.totalHttpRequestsFromRole.WithLabelValues(role).Inc()
				c.totalHttpRequestsToUri.WithLabelValues(code, c.pathNormalizer(r), r.Method).Inc()
				c.totalHttpRequests.WithLabelValues(code, r.Method).Inc()
				c.responseTime.Observe(time.Since(startTime).Seconds())
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
