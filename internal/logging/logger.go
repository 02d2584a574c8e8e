// Package logging provides zap logger helpers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName names the root logger and tags every entry.
const ServiceName = "leaguewatch"

// Config returns the zap configuration for development or production. Every
// entry carries a service field so logs from the watcher can be told apart in
// shared sinks.
func Config(development bool) zap.Config {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.DisableStacktrace = false
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.InitialFields = map[string]any{"service": ServiceName}
	return cfg
}

// New builds the root logger. Components derive theirs with Named, giving
// names such as "leaguewatch.watcher".
func New(development bool) (*zap.Logger, error) {
	logger, err := Config(development).Build()
	if err != nil {
		mode := "prod"
		if development {
			mode = "dev"
		}
		return nil, fmt.Errorf("build %s logger: %w", mode, err)
	}
	return logger.Named(ServiceName), nil
}
