package referral

import (
	"github.com/learnlyhq/learnly/internal/referral/repository"
	"github.com/learnlyhq/learnly/internal/referral/service"
	"go.uber.org/fx"
)

var Module = fx.Module("referral.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
