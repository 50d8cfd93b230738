package logger

import (
	"github.com/joeydtaylor/steeze-bridge/pkg/manifest"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func ProvideLogger(cfg manifest.Config) *zap.Logger {
	return NewLog(cfg.Log.Dir, "system.log", ParseLevel(cfg.Log.Level))
}

func ProvideLoggerMiddleware(cfg manifest.Config) *Middleware {
	access := NewLog(cfg.Log.Dir, "http-access.log", zap.InfoLevel)
	return NewMiddleware(access, cfg.Log.BodyPaths...)
}

// Module provides the system logger and the access-log middleware.
var Module = fx.Options(
	fx.Provide(ProvideLogger),
	fx.Provide(ProvideLoggerMiddleware),
)
