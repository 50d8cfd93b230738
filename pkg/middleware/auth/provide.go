package auth

import (
	"context"

	"github.com/joeydtaylor/steeze-bridge/pkg/manifest"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ProvideAuthentication builds the middleware from the manifest and keeps the
// remote assertion key fresh for the lifetime of the app.
func ProvideAuthentication(cfg manifest.Config, lc fx.Lifecycle, log *zap.Logger) (*Middleware, error) {
	ac, err := ConfigFromManifest(cfg.Auth)
	if err != nil {
		return nil, err
	}
	m := New(ac, WithLogger(log))

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return m.Start(ctx) },
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
	return m, nil
}

var Module = fx.Options(
	fx.Provide(ProvideAuthentication),
)
