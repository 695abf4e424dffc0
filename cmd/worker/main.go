package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	cachefx "alideal-affiliate-relay/cache/fx"
	dbfx "alideal-affiliate-relay/db/fx"
	scanworkerfx "alideal-affiliate-relay/internal/app/amqp/scanworker/fx"
	appfx "alideal-affiliate-relay/internal/app/fx"
	feedfx "alideal-affiliate-relay/internal/feed/fx"
	ledgerfx "alideal-affiliate-relay/internal/ledger/fx"
	pipelinefx "alideal-affiliate-relay/internal/pipeline/fx"
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
		feedfx.Module,
		ledgerfx.Module,
		pipelinefx.Module,
		scanworkerfx.Module,
	)

	app.Run()
}
