package metrics

import (
	"github.com/joeydtaylor/steeze-bridge/pkg/manifest"
	"go.uber.org/fx"
)

func ProvideMetrics(cfg manifest.Config) *Collector {
	return NewCollector(
		WithSkipPaths(cfg.Metrics.Path),
		WithSkipPaths(cfg.Metrics.SkipPaths...),
		WithPathNormalizer(CollapseNumeric),
	)
}

var Module = fx.Options(
	fx.Provide(ProvideMetrics),
)
