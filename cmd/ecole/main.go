package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/billing"
	"github.com/montessori/ecole/internal/booking"
	"github.com/montessori/ecole/internal/clock"
	"github.com/montessori/ecole/internal/config"
	"github.com/montessori/ecole/internal/events"
	"github.com/montessori/ecole/internal/family"
	"github.com/montessori/ecole/internal/invoice"
	"github.com/montessori/ecole/internal/justificatif"
	"github.com/montessori/ecole/internal/lock"
	"github.com/montessori/ecole/internal/migration"
	"github.com/montessori/ecole/internal/observability"
	"github.com/montessori/ecole/internal/preinscription"
	"github.com/montessori/ecole/internal/providers"
	"github.com/montessori/ecole/internal/reinscription"
	"github.com/montessori/ecole/internal/scheduler"
	"github.com/montessori/ecole/internal/server"
	"github.com/montessori/ecole/internal/tariff"
	"github.com/montessori/ecole/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		events.Module,
		lock.Module,
		providers.Module,

		// Functional Domains
		tariff.Module,
		family.Module,
		booking.Module,
		billing.Module,
		invoice.Module,
		reinscription.Module,
		preinscription.Module,
		justificatif.Module,

		migration.Module,
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) *snowflake.Node {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		panic(err)
	}
	return node
}
