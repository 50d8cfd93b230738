package logger

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/auth"
	"go.uber.org/zap"
)

// Middleware writes one access-log line per request.
type Middleware struct {
	log       *zap.Logger
	bodyPaths map[string]struct{}
}

// NewMiddleware logs to l. Request bodies are redacted except on bodyPaths.
func NewMiddleware(l *zap.Logger, bodyPaths ...string) *Middleware {
	if l == nil {
		l = zap.NewNop()
	}
	m := &Middleware{log: l, bodyPaths: make(map[string]struct{}, len(bodyPaths))}
	for _, p := range bodyPaths {
		if p = strings.TrimSpace(p); p != "" {
			m.bodyPaths[p] = struct{}{}
		}
	}
	return m
}

// Middleware returns net/http middleware; ca may be nil.
func (m *Middleware) Middleware(ca *auth.Middleware) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)

			// Peek at the body and put it back for downstream readers.
			var body []byte
			if m.shouldLogBody(r) {
				b, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
				r.Body = readCloser{io.MultiReader(bytes.NewReader(b), r.Body), r.Body}
				if len(b) <= maxLoggedBody {
					body = b
				}
			}

			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}

			start := time.Now()
			defer func() {
				var u auth.User
				isAuth := false
				if ca != nil {
					isAuth = ca.IsAuthenticated(r.Context())
					u = ca.GetUser(r.Context())
				}

				log := m.log.With(
					zap.String("dateTime", start.UTC().Format(time.RFC1123)),
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.String("httpScheme", scheme),
					zap.Bool("isAuthenticated", isAuth),
					zap.String("username", u.Username),
					zap.String("role", u.Role.Name),
					zap.String("authenticationProvider", u.AuthenticationSource.Provider),
					zap.String("httpProto", r.Proto),
					zap.String("httpMethod", r.Method),
					zap.String("remoteAddr", r.RemoteAddr),
					zap.String("uri", r.URL.Path),
					zap.Duration("lat", time.Since(start)),
					zap.Int("responseSize", ww.BytesWritten()),
					zap.Int("status", status(ww)),
				)
				if len(body) > 0 {
					log.Info("", zap.ByteString("requestData", body))
				} else {
					log.Info("")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}

// net/http sends 200 when a handler writes nothing.
func status(ww chimd.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}
