package catalog

import (
	"github.com/learnlyhq/learnly/internal/catalog/repository"
	"github.com/learnlyhq/learnly/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
