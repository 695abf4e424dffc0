package fx

import (
	"context"

	"alideal-affiliate-relay/internal/app/amqp/scanworker"
	"alideal-affiliate-relay/internal/pkg/amqpclient"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module(
	"amqp-scanworker",
	fx.Provide(
		amqpclient.NewAMQP,
		fx.Annotate(
			scanworker.NewScanHandler,
			fx.As(new(scanworker.Handler)),
		),
		scanworker.NewConsumer,
	),
	fx.Invoke(registerLifecycleHooks),
)

type hooksParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Consumer  *scanworker.Consumer
	Logger    *zap.SugaredLogger
}

func registerLifecycleHooks(p hooksParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Infow("scanworker_starting")
			return p.Consumer.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Infow("scanworker_stopping")
			return p.Consumer.Stop(ctx)
		},
	})
}
