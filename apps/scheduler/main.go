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
	"github.com/montessori/ecole/internal/lock"
	"github.com/montessori/ecole/internal/observability"
	"github.com/montessori/ecole/internal/providers"
	"github.com/montessori/ecole/internal/scheduler"
	"github.com/montessori/ecole/internal/tariff"
	"github.com/montessori/ecole/pkg/db"
	"go.uber.org/fx"
)

// The scheduler binary runs the billing jobs without the HTTP API. Run it
// next to an API started with SCHEDULER_ENABLED=false; the jobs take a
// distributed lock, so several replicas are safe.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		events.Module,
		lock.Module,
		providers.Module,

		// Domain services required by the jobs
		tariff.Module,
		family.Module,
		booking.Module,
		billing.Module,
		invoice.Module,

		// No server module!
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
