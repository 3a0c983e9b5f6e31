package app

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-cvwizard/config"
	"github.com/goliatone/go-cvwizard/cv"
)

// NewLogger builds a zap logger for the configured level.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, cv.NewError(cv.KindValidation, "invalid log level", err)
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}
