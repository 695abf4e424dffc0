package fx

import (
	"alideal-affiliate-relay/internal/app/amqp/enqueue"
	"alideal-affiliate-relay/internal/pkg/amqpclient"
	"alideal-affiliate-relay/internal/router"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		amqpclient.NewAMQP,
	),
	fx.Provide(router.AsRoute(enqueue.NewHandler)),
)
