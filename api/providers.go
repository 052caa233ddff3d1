package api

import (
	"go.uber.org/fx"

	"github.com/tidepool-org/timeline/config"
	"github.com/tidepool-org/timeline/dataset"
	"github.com/tidepool-org/timeline/logger"
)

func loadConfig() (*config.Config, error) {
	cfg := config.New()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Dependencies returns the full DI graph of the service. CLI commands append
// it to their own options so one-shot invocations see the same wiring the
// server does.
func Dependencies() []fx.Option {
	return []fx.Option{
		fx.Provide(
			logger.NewProductionLogger,
			logger.Suggar,
			loadConfig,
			dataset.NewEngine,
			NewHealthCheck,
			NewHandler,
			NewServer,
		),
	}
}

func MainLoop() {
	fx.New(
		append(
			Dependencies(),
			fx.Invoke(SetReady),
			fx.Invoke(Start),
		)...,
	).Run()
}
