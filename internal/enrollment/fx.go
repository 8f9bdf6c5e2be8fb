package enrollment

import (
	"github.com/learnlyhq/learnly/internal/enrollment/repository"
	"github.com/learnlyhq/learnly/internal/enrollment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("enrollment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
