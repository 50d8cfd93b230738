package serverfx

import (
	"context"
	"os"
	"strings"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-bridge/pkg/bridge"
	"github.com/joeydtaylor/steeze-bridge/pkg/bundlefx"
	"github.com/joeydtaylor/steeze-bridge/pkg/core"
	"github.com/joeydtaylor/steeze-bridge/pkg/framework"
	"github.com/joeydtaylor/steeze-bridge/pkg/manifest"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-bridge/pkg/transport/httpx"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// DefaultListen is used when neither the manifest nor the environment names
// an address.
const DefaultListen = ":4000"

// ---------- Options ----------

type Config struct {
	Service         string // for logs only
	ManifestEnv     string // e.g., APP_MANIFEST
	DefaultManifest string // e.g., "manifest.toml"
	ListenEnv       string // SERVER_LISTEN_ADDRESS
	TLSCertEnv      string // SSL_SERVER_CERTIFICATE
	TLSKeyEnv       string // SSL_SERVER_KEY

	// Explicit overrides, typically from CLI flags. An explicit manifest
	// path must exist.
	ManifestPath string
	Listen       string

	Registry *core.Registry
}

type Option func(*Config)

func WithService(s string) Option            { return func(c *Config) { c.Service = s } }
func WithManifestEnv(k string) Option        { return func(c *Config) { c.ManifestEnv = k } }
func WithDefaultManifest(path string) Option { return func(c *Config) { c.DefaultManifest = path } }
func WithListenEnv(k string) Option          { return func(c *Config) { c.ListenEnv = k } }
func WithTLSCertKeyEnv(cert, key string) Option {
	return func(c *Config) { c.TLSCertEnv, c.TLSKeyEnv = cert, key }
}
func WithManifestPath(p string) Option { return func(c *Config) { c.ManifestPath = p } }
func WithListen(addr string) Option    { return func(c *Config) { c.Listen = addr } }

// WithRegistry resolves manifest handlers from r instead of the
// process-wide registry.
func WithRegistry(r *core.Registry) Option { return func(c *Config) { c.Registry = r } }

func defaultConfig() Config {
	return Config{
		Service:         "app",
		ManifestEnv:     "APP_MANIFEST",
		DefaultManifest: "manifest.toml",
		ListenEnv:       "SERVER_LISTEN_ADDRESS",
		TLSCertEnv:      "SSL_SERVER_CERTIFICATE",
		TLSKeyEnv:       "SSL_SERVER_KEY",
	}
}

// AsController provides a constructor's result as an application controller.
func AsController(f any) fx.Option {
	return fx.Provide(fx.Annotate(
		f,
		fx.As(new(framework.Controller)),
		fx.ResultTags(`group:"controllers"`),
	))
}

// Providers builds the application graph without starting anything.
func Providers(opts ...Option) fx.Option {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(provideManifest),
		bundlefx.Module,
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Provide(provideAdapter),
		fx.Provide(provideApp),
	)
}

// Module returns a complete Fx option set that serves on start; add
// controllers with AsController alongside.
func Module(opts ...Option) fx.Option {
	return fx.Options(
		Providers(opts...),
		fx.Invoke(registerHooks),
	)
}

// ---------- Manifest ----------

func provideManifest(cfg Config) (manifest.Config, error) {
	path, optional := cfg.ManifestPath, false
	if path == "" {
		path, optional = envOr(cfg.ManifestEnv, cfg.DefaultManifest), true
	}
	m, err := manifest.LoadConfig(path, optional)
	if err != nil {
		return manifest.Config{}, err
	}

	m.Server.Listen = first(cfg.Listen, envOr(cfg.ListenEnv, m.Server.Listen), DefaultListen)
	cert := envOr(cfg.TLSCertEnv, m.Server.TLSCert)
	key := envOr(cfg.TLSKeyEnv, m.Server.TLSKey)
	if fileExists(cert) && fileExists(key) {
		m.Server.TLSCert, m.Server.TLSKey = cert, key
	} else {
		m.Server.TLSCert, m.Server.TLSKey = "", ""
	}
	return m, nil
}

// ---------- Adapter ----------

func provideAdapter(
	m manifest.Config,
	zl *zap.Logger,
	a *auth.Middleware,
	lm *logger.Middleware,
	mc *metrics.Collector,
) *bridge.Adapter {
	opts := []bridge.Option{
		bridge.WithLogger(zl),
		bridge.WithServerOptions(httpx.ServerOptions{
			ReadTimeout:  m.Server.ReadTimeout(),
			WriteTimeout: m.Server.WriteTimeout(),
			IdleTimeout:  m.Server.IdleTimeout(),
		}),
	}
	if m.Server.BodyLimit > 0 {
		opts = append(opts, bridge.WithBodyLimit(m.Server.BodyLimit))
	}
	ad := bridge.New(opts...)

	e := ad.Engine()
	e.UseGlobal(
		chimd.RequestID,
		chimd.RealIP,
		chimd.Recoverer,
		chimd.Heartbeat("/ping"),
		a.Middleware(),
		lm.Middleware(a),
		mc.Collect(a),
	)
	return ad
}

// ---------- Application ----------

type appDeps struct {
	fx.In
	Config      Config
	Manifest    manifest.Config
	Adapter     *bridge.Adapter
	Auth        *auth.Middleware
	Metrics     *metrics.Collector
	Logger      *zap.Logger
	Controllers []framework.Controller `group:"controllers"`
}

func provideApp(d appDeps) (*framework.App[*httpx.Ctx], error) {
	ao := framework.ApplicationOptions{BodyLimit: d.Manifest.Server.BodyLimit}
	if d.Manifest.Server.TLSCert != "" {
		ao.HTTPSOptions = &framework.HTTPSOptions{
			CertFile: d.Manifest.Server.TLSCert,
			KeyFile:  d.Manifest.Server.TLSKey,
		}
	}
	if d.Manifest.CORS != nil {
		ao.CORS = d.Manifest.CORS.Options()
	}

	app := framework.NewApp[*httpx.Ctx](d.Adapter,
		framework.WithLogger(d.Logger),
		framework.WithApplicationOptions(ao),
	)
	// Mounted at Init, after the body limit and CORS.
	for _, st := range d.Manifest.Static {
		so := httpx.StaticOptions{Root: st.Root, Index: st.Index}
		if st.StripPrefix && st.Path != "/" {
			prefix := st.Path
			so.RewriteRequestPath = func(p string) string { return strings.TrimPrefix(p, prefix) }
		}
		app.UseStaticAssets(st.Path, so)
	}
	if !d.Manifest.Metrics.Disabled {
		h := d.Metrics.Handler()
		app.UseFor(framework.MethodGet, d.Manifest.Metrics.Path,
			func(_ *framework.Request, c *httpx.Ctx, _ framework.Next) error {
				h.ServeHTTP(c.Writer(), c.Req.Raw())
				return nil
			})
	}
	app.Register(d.Controllers...)

	ctrl, err := core.BuildController(d.Manifest, d.Auth, d.Config.Registry)
	if err != nil {
		return nil, err
	}
	app.Register(ctrl)
	return app, nil
}

// ---------- Lifecycle ----------

func registerHooks(lc fx.Lifecycle, cfg Config, m manifest.Config, app *framework.App[*httpx.Ctx], zl *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			srv, err := app.Listen(m.Server.Listen)
			if err != nil {
				return err
			}
			zl.Info("server started",
				zap.String("service", cfg.Service),
				zap.Stringer("addr", srv.Addr()),
				zap.Bool("tls", m.Server.TLSCert != ""),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			zl.Info("server stopping", zap.String("service", cfg.Service))
			return app.Close(ctx)
		},
	})
}

// ---------- helpers ----------

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func first(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
