// Package autoload initializes the global logger from the LOG_* environment
// on import. Blank-import it from a main package.
package autoload

import (
	configx "github.com/tanwarat/scribemesh/pkg/config"
	logx "github.com/tanwarat/scribemesh/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
