package fx

import (
	"alideal-affiliate-relay/internal/app/convert"
	"alideal-affiliate-relay/internal/router"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(router.AsRoute(convert.NewHandler)),
)
