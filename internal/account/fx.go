package account

import (
	"github.com/learnlyhq/learnly/internal/account/repository"
	"github.com/learnlyhq/learnly/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
