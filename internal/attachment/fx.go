package attachment

import (
	"github.com/smallbiznis/invoicely/internal/attachment/repository"
	"github.com/smallbiznis/invoicely/internal/attachment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("attachment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
