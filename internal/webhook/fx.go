package webhook

import (
	"github.com/smallbiznis/invoicely/internal/webhook/dispatcher"
	webhookdomain "github.com/smallbiznis/invoicely/internal/webhook/domain"
	"github.com/smallbiznis/invoicely/internal/webhook/repository"
	"github.com/smallbiznis/invoicely/internal/webhook/service"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewSubscriptionService),
	fx.Provide(dispatcher.New),
	fx.Provide(func(d *dispatcher.Dispatcher) webhookdomain.Publisher { return d }),
	fx.Provide(service.NewService),
)
