package fx

import (
	"alideal-affiliate-relay/internal/affiliate"
	"alideal-affiliate-relay/internal/aliexpress"
	"alideal-affiliate-relay/internal/linkx"
	"alideal-affiliate-relay/internal/pipeline"
	"alideal-affiliate-relay/internal/telegram"

	"go.uber.org/fx"
)

// Module assembles the conversion stack: marketplace API client, redirect
// resolver, affiliate link builder, caption writer, Telegram delivery, and
// the pipeline that drives them. The message source and the dedup ledger
// are provided separately so deployments can swap them.
var Module = fx.Module(
	"pipeline",
	fx.Provide(
		aliexpress.NewClient,
		linkx.NewResolver,
		affiliate.NewBuilder,
		fx.Annotate(
			pipeline.NewTemplateCaptionWriter,
			fx.As(new(pipeline.CaptionWriter)),
		),
		fx.Annotate(
			telegram.NewPublisher,
			fx.As(new(pipeline.Publisher)),
		),
		pipeline.New,
	),
)
