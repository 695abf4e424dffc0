package fx

import (
	"alideal-affiliate-relay/config"
	"alideal-affiliate-relay/internal/feed"
	"alideal-affiliate-relay/internal/ledger"
	"alideal-affiliate-relay/internal/pipeline"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module binds the file-backed feed as both the pipeline's message source
// and the history scanner the feed ledger reads markers from.
var Module = fx.Module(
	"feed-source",
	fx.Provide(
		fx.Annotate(
			newFileSource,
			fx.As(new(pipeline.Source)),
			fx.As(new(ledger.HistoryScanner)),
		),
	),
)

func newFileSource(cfg *config.Config, logger *zap.SugaredLogger) *feed.FileSource {
	return feed.NewFileSource(cfg.Feed.Dir, logger)
}
