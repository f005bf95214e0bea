package logger

import (
	"os"
	"sync"

	"catalog-service/pkg/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// InitLogger builds the global logger from configuration. Later calls are
// no-ops.
func InitLogger(cfg *config.Config) {
	once.Do(func() {
		instance = build(cfg.Log.Level)
	})
}

// GetLogger returns the global logger, building it from the environment if
// InitLogger has not run yet.
func GetLogger() *zap.Logger {
	once.Do(func() {
		instance = build(os.Getenv("LOG_LEVEL"))
	})
	return instance
}

func build(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
