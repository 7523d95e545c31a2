package migration

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/clock"
	"github.com/montessori/ecole/internal/config"
	"github.com/montessori/ecole/internal/seed"
	"github.com/montessori/ecole/pkg/schoolyear"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, clk clock.Clock, log *zap.Logger) error {
		if err := Apply(conn, cfg.DBType); err != nil {
			return err
		}
		if !cfg.SeedDefaultTariffs {
			return nil
		}

		year := schoolyear.ForDate(clk.Now(), time.Month(cfg.SchoolYearStartMonth))
		created, err := seed.EnsureDefaultTariffs(context.Background(), conn, node, year.String())
		if err != nil {
			return err
		}
		if created > 0 {
			log.Info("default tariffs installed", zap.String("school_year", year.String()), zap.Int("created", created))
		}
		return nil
	}),
)
