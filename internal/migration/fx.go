package migration

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Cfg   config.Config
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

var Module = fx.Module("migrations",
	fx.Invoke(func(p Params) error {
		log := p.Log.Named("migration")
		if err := Apply(p.DB); err != nil {
			return err
		}
		log.Info("schema up to date", zap.String("dialect", p.DB.Dialector.Name()))

		created, err := seed.NewSeeder(p.DB, p.GenID, p.Clock).
			EnsureAdmin(context.Background(), p.Cfg.Bootstrap.AdminEmail, p.Cfg.Bootstrap.AdminPassword)
		if err != nil {
			return err
		}
		if created {
			log.Info("admin user created", zap.String("email", p.Cfg.Bootstrap.AdminEmail))
		}
		return nil
	}),
)
