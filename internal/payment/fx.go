package payment

import (
	"github.com/learnlyhq/learnly/internal/payment/adapters"
	"github.com/learnlyhq/learnly/internal/payment/adapters/stripe"
	paymentdomain "github.com/learnlyhq/learnly/internal/payment/domain"
	"github.com/learnlyhq/learnly/internal/payment/repository"
	paymentservice "github.com/learnlyhq/learnly/internal/payment/service"
	"github.com/learnlyhq/learnly/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func() *adapters.Registry {
		return adapters.NewRegistry(
			stripe.NewFactory(),
		)
	}),
	fx.Provide(paymentservice.NewService),
	fx.Provide(func(svc *paymentservice.Service) paymentdomain.LogReader { return svc }),
	fx.Provide(webhook.NewService),
)
