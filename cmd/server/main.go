package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	cachefx "alideal-affiliate-relay/cache/fx"
	dbfx "alideal-affiliate-relay/db/fx"
	enqueuefx "alideal-affiliate-relay/internal/app/amqp/enqueue/fx"
	convertfx "alideal-affiliate-relay/internal/app/convert/fx"
	appfx "alideal-affiliate-relay/internal/app/fx"
	healthfx "alideal-affiliate-relay/internal/app/health/fx"
	inngestfx "alideal-affiliate-relay/internal/app/inngest/fx"
	postrecordsfx "alideal-affiliate-relay/internal/app/postrecords/fx"
	feedfx "alideal-affiliate-relay/internal/feed/fx"
	ledgerfx "alideal-affiliate-relay/internal/ledger/fx"
	pipelinefx "alideal-affiliate-relay/internal/pipeline/fx"
	routerfx "alideal-affiliate-relay/internal/router/fx"
	serverfx "alideal-affiliate-relay/internal/server/fx"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		appfx.CoreAppOptions,
		dbfx.Module,
		dbfx.SQLiteModule,
		cachefx.Module,
		routerfx.CoreRouterOptions,
		serverfx.Module,
		healthfx.Module,
		feedfx.Module,
		ledgerfx.Module,
		pipelinefx.Module,
		convertfx.Module,
		postrecordsfx.Module,
		inngestfx.Module,
		enqueuefx.Module,
	)

	app.Run()
}
