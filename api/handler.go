package api

import (
	"go.uber.org/fx"

	"github.com/tidepool-org/timeline/config"
	"github.com/tidepool-org/timeline/dataset"
)

type Handler struct {
	engine *dataset.Engine
	cfg    *config.Config
}

type Params struct {
	fx.In

	Engine *dataset.Engine
	Config *config.Config
}

func NewHandler(p Params) *Handler {
	return &Handler{
		engine: p.Engine,
		cfg:    p.Config,
	}
}
