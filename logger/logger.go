package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewProductionLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(levelFromEnv())
	return config.Build()
}

func Suggar(logger *zap.Logger) *zap.SugaredLogger {
	return logger.Sugar()
}

// levelFromEnv honors the LOG_LEVEL variable set by the CLI's --log-level
// flag; the service default stays at debug.
func levelFromEnv() zapcore.Level {
	if value := os.Getenv("LOG_LEVEL"); value != "" {
		if level, err := zapcore.ParseLevel(value); err == nil {
			return level
		}
	}
	return zap.DebugLevel
}
