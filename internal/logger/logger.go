// Package logger installs the process-wide zap logger. Every other package
// logs through zap.L().
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func Init(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(log)
	return log, nil
}
