package fx

import (
	"go.uber.org/fx"

	"alideal-affiliate-relay/internal/app/health"
	"alideal-affiliate-relay/internal/router"
)

var Module = fx.Options(
	fx.Provide(router.AsRoute(health.NewHandler)),
)
