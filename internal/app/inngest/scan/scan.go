package scan

import (
	"context"
	"fmt"
	"strings"

	"alideal-affiliate-relay/config"
	"alideal-affiliate-relay/internal/pipeline"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const ScanRequestedEventName = "feed/scan.requested"

// ScanRequestedEventData names the channel to scan. An empty channel means
// every configured source channel.
type ScanRequestedEventData struct {
	Channel string `json:"channel,omitempty"`
}

type ScanFunction struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	logger   *zap.SugaredLogger
}

type NewScanFunctionParams struct {
	fx.In

	Cfg      *config.Config
	Pipeline *pipeline.Pipeline
	Logger   *zap.SugaredLogger
}

func NewScanFunction(p NewScanFunctionParams) *ScanFunction {
	return &ScanFunction{
		cfg:      p.Cfg,
		pipeline: p.Pipeline,
		logger:   p.Logger,
	}
}

func (f *ScanFunction) Handle(ctx context.Context, input inngestgo.Input[ScanRequestedEventData]) (any, error) {
	channels, err := step.Run(ctx, "resolve-channels", func(ctx context.Context) ([]string, error) {
		if ch := strings.TrimPrefix(strings.TrimSpace(input.Event.Data.Channel), "@"); ch != "" {
			return []string{ch}, nil
		}
		if len(f.cfg.Telegram.SourceChannels) == 0 {
			return nil, inngestgo.NoRetryError(fmt.Errorf("no source channels configured"))
		}
		return f.cfg.Telegram.SourceChannels, nil
	})
	if err != nil {
		return nil, err
	}

	reports := make([]pipeline.Report, 0, len(channels))
	for _, channel := range channels {
		r, err := step.Run(ctx, "scan-"+channel, func(ctx context.Context) (pipeline.Report, error) {
			report, err := f.pipeline.RunChannel(ctx, channel)
			if err != nil {
				f.logger.Errorw("inngest_scan_channel_failed",
					"channel", channel,
					"err", err,
				)
				// One unreadable channel must not abort the remaining steps.
				return report, nil
			}
			return report, nil
		})
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}

	total := pipeline.Report{Channels: len(channels)}
	for _, r := range reports {
		total.Scanned += r.Scanned
		total.Published += r.Published
		total.Skipped += r.Skipped
		total.Failed += r.Failed
	}

	f.logger.Infow("inngest_scan_finished",
		"channels", total.Channels,
		"scanned", total.Scanned,
		"published", total.Published,
		"skipped", total.Skipped,
		"failed", total.Failed,
	)

	return map[string]any{
		"channels":  channels,
		"reports":   reports,
		"published": total.Published,
	}, nil
}
