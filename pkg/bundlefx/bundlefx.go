// bundlefx/bundlefx.go
package bundlefx

import (
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/metrics"
	"go.uber.org/fx"
)

// Module provides the system logger, access-log, auth and metrics
// middleware. It expects a manifest.Config in the graph.
var Module = fx.Options(
	logger.Module,
	auth.Module,
	metrics.Module,
)
