package logger

import "go.uber.org/zap"

// New builds the service logger. Development mode switches to the console
// encoder with debug level.
func New(dev bool) (*zap.Logger, error) {
	if dev {
		cfg := zap.NewDevelopmentConfig()
		return cfg.Build()
	}
	return zap.NewProduction()
}
