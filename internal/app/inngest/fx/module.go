package fx

import (
	"alideal-affiliate-relay/config"
	"alideal-affiliate-relay/internal/app/inngest"
	"alideal-affiliate-relay/internal/app/inngest/scan"
	pkginngest "alideal-affiliate-relay/internal/pkg/inngest"
	"alideal-affiliate-relay/internal/router"

	"github.com/inngest/inngestgo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(
		pkginngest.NewInngestClient,
		scan.NewScanFunction,
	),
	fx.Invoke(registerFunctions),
	fx.Provide(router.AsRoute(inngest.NewInngestHandler)),
)

func registerFunctions(
	cfg *config.Config,
	client inngestgo.Client,
	scanFunc *scan.ScanFunction,
	logger *zap.SugaredLogger,
) error {
	if cfg != nil && cfg.Inngest.AppID == "" {
		logger.Infow("inngest_disabled", "reason", "missing INNGEST_APP_ID")
		return nil
	}

	_, err := inngestgo.CreateFunction(
		client,
		inngestgo.FunctionOpts{
			ID:      "scan-feed",
			Retries: inngestgo.IntPtr(0),
		},
		inngestgo.EventTrigger(scan.ScanRequestedEventName, nil),
		scanFunc.Handle,
	)
	if err != nil {
		logger.Errorw(
			"failed to create inngest scan function",
			"err", err.Error(),
		)
		return err
	}

	logger.Infow("inngest_enabled",
		"path", cfg.Inngest.ServePath,
		"event", scan.ScanRequestedEventName,
	)
	return nil
}
