package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billingengine/internal/billing"
	"github.com/smallbiznis/billingengine/internal/billingcycle"
	"github.com/smallbiznis/billingengine/internal/clientbilling"
	"github.com/smallbiznis/billingengine/internal/clock"
	"github.com/smallbiznis/billingengine/internal/company"
	"github.com/smallbiznis/billingengine/internal/config"
	"github.com/smallbiznis/billingengine/internal/discount"
	"github.com/smallbiznis/billingengine/internal/invoice"
	"github.com/smallbiznis/billingengine/internal/ledger"
	"github.com/smallbiznis/billingengine/internal/lock"
	"github.com/smallbiznis/billingengine/internal/migration"
	"github.com/smallbiznis/billingengine/internal/observability"
	"github.com/smallbiznis/billingengine/internal/plan"
	"github.com/smallbiznis/billingengine/internal/rating"
	"github.com/smallbiznis/billingengine/internal/server"
	"github.com/smallbiznis/billingengine/internal/tax"
	"github.com/smallbiznis/billingengine/internal/timeentry"
	"github.com/smallbiznis/billingengine/internal/usage"
	"github.com/smallbiznis/billingengine/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		lock.Module,

		// Billing Domains
		company.Module,
		billingcycle.Module,
		plan.Module,
		usage.Module,
		timeentry.Module,
		tax.Module,
		rating.Module,
		discount.Module,
		ledger.Module,
		invoice.Module,
		billing.Module,
		clientbilling.Module,

		server.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
