package auth

import (
	"crypto/rsa"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Middleware resolves the caller's identity from a signed assertion or a
// session cookie and stores it on the request context.
type Middleware struct {
	httpClient HTTPDoer
	log        *zap.Logger
	sessionAPI string
	cookieName string
	adminRole  string
	devBypass  bool

	// Assertion verification
	assertHeader     string
	assertCookieName string
	assertKeyURL     string
	assertKeyKID     string
	assertIssuer     string
	assertAudience   string
	assertLeeway     time.Duration
	hmacSecret       []byte

	// guarded by mu
	mu         sync.RWMutex
	assertKey  *rsa.PublicKey
	assertETag string
	cacheTTL   time.Duration
	lastFetch  time.Time
}

type Option func(*Middleware)

func WithHTTPClient(c HTTPDoer) Option {
	return func(m *Middleware) {
		if c != nil {
			m.httpClient = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Middleware) {
		if l != nil {
			m.log = l
		}
	}
}

// New builds the middleware. It does not fetch remote keys; see Start.
func New(cfg Config, opts ...Option) *Middleware {
	m := &Middleware{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
			Timeout: 8 * time.Second,
		},
		log:              zap.NewNop(),
		sessionAPI:       cfg.SessionAPI,
		cookieName:       cfg.SessionCookie,
		adminRole:        cfg.AdminRole,
		devBypass:        cfg.DevBypass,
		assertHeader:     first(cfg.Header, "Authorization"),
		assertCookieName: first(cfg.AssertCookie, "assert"),
		assertKeyURL:     cfg.KeyURL,
		assertKeyKID:     cfg.KeyKID,
		assertIssuer:     cfg.Issuer,
		assertAudience:   cfg.Audience,
		assertLeeway:     cfg.Leeway,
		hmacSecret:       cfg.HMACSecret,
		assertKey:        cfg.PublicKey,
		cacheTTL:         time.Hour, // overridable by Cache-Control
	}
	for _, o := range opts {
		o(m)
	}
	return m
}
