package httpx

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrAlreadyListening = errors.New("server already listening")
	ErrNoCertificate    = errors.New("tls enabled but no certificate configured")
)

// ServerOptions configures the native server handle. Setting TLSConfig or
// both certificate files selects the TLS transport.
type ServerOptions struct {
	TLSConfig    *tls.Config
	CertFile     string
	KeyFile      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Logger       *zap.Logger
}

func (o ServerOptions) secure() bool {
	return o.TLSConfig != nil || (o.CertFile != "" && o.KeyFile != "")
}

// Server is the listening socket wrapper around an *http.Server.
type Server struct {
	srv  *http.Server
	opts ServerOptions
	log  *zap.Logger

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

// NewServer builds a server for h. It does not listen.
func NewServer(h http.Handler, opts ServerOptions) *Server {
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 30 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	srv := &http.Server{
		Handler:      h,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log),
	}
	if opts.secure() {
		if opts.TLSConfig != nil {
			srv.TLSConfig = opts.TLSConfig.Clone()
		} else {
			srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS13}
		}
	}
	return &Server{srv: srv, opts: opts, log: log}
}

// TLS reports whether the server uses the TLS transport.
func (s *Server) TLS() bool { return s.srv.TLSConfig != nil }

// Listen binds addr and starts serving in the background. addr may be a bare
// port ("3000"), ":3000" or "host:port".
func (s *Server) Listen(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return http.ErrServerClosed
	}
	if s.ln != nil {
		return ErrAlreadyListening
	}

	if s.TLS() && s.opts.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(s.opts.CertFile, s.opts.KeyFile)
		if err != nil {
			return fmt.Errorf("load tls key pair: %w", err)
		}
		s.srv.TLSConfig.Certificates = append(s.srv.TLSConfig.Certificates, cert)
	}
	if s.TLS() && len(s.srv.TLSConfig.Certificates) == 0 && s.srv.TLSConfig.GetCertificate == nil {
		return ErrNoCertificate
	}

	ln, err := net.Listen("tcp", normalizeAddr(addr))
	if err != nil {
		return err
	}
	s.ln = ln
	s.srv.Addr = ln.Addr().String()

	if s.TLS() {
		s.log.Info("server starting (TLS)", zap.String("addr", s.srv.Addr))
		go s.serve(func() error { return s.srv.ServeTLS(ln, "", "") })
	} else {
		s.log.Info("server starting (PLAINTEXT)", zap.String("addr", s.srv.Addr))
		go s.serve(func() error { return s.srv.Serve(ln) })
	}
	return nil
}

func (s *Server) serve(fn func() error) {
	if err := fn(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("server failed", zap.Error(err))
	}
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close stops accepting connections and waits for in-flight requests to
// drain or ctx to end. Closing an already closed server is a no-op.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	listening := s.ln != nil
	s.mu.Unlock()

	if !listening {
		return nil
	}
	s.log.Info("server stopping", zap.String("addr", s.srv.Addr))
	return s.srv.Shutdown(ctx)
}

func normalizeAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ":0"
	}
	if !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}
