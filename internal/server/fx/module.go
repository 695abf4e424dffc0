package fx

import (
	"go.uber.org/fx"

	"alideal-affiliate-relay/internal/server"
)

var Module = fx.Options(
	fx.Provide(server.NewHTTPServer),
	fx.Invoke(RegisterHTTPServerLifecycle),
)
