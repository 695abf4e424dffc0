package fx

import (
	"alideal-affiliate-relay/internal/app/postrecords"
	"alideal-affiliate-relay/internal/router"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(router.AsRoute(postrecords.NewHandler)),
)
