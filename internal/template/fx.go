package template

import (
	"github.com/smallbiznis/invoicely/internal/template/repository"
	"github.com/smallbiznis/invoicely/internal/template/service"
	"go.uber.org/fx"
)

var Module = fx.Module("template.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
