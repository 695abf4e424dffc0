package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alideal-affiliate-relay/config"
	"alideal-affiliate-relay/internal/affiliate"
	"alideal-affiliate-relay/internal/aliexpress"
	"alideal-affiliate-relay/internal/feed"
	"alideal-affiliate-relay/internal/ledger"
	"alideal-affiliate-relay/internal/linkx"
	"alideal-affiliate-relay/internal/pipeline"
	"alideal-affiliate-relay/internal/telegram"
)

func newScanCmd() *cobra.Command {
	var feedDir string

	scanCmd := &cobra.Command{
		Use:   "scan [channel...]",
		Short: "Run one pipeline pass over the configured source channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}

			if feedDir != "" {
				cfg.Feed.Dir = feedDir
			}
			if len(args) > 0 {
				cfg.Telegram.SourceChannels = args
			}
			if len(cfg.Telegram.SourceChannels) == 0 {
				return fmt.Errorf("no source channels: pass them as arguments or set TELEGRAM_SOURCE_CHANNELS")
			}

			source := feed.NewFileSource(cfg.Feed.Dir, logger)
			led, err := newCLILedger(cmd.Context(), cfg, source, logger)
			if err != nil {
				return err
			}

			p := pipeline.New(pipeline.NewPipelineParams{
				Cfg:       cfg,
				Source:    source,
				Writer:    pipeline.NewTemplateCaptionWriter(),
				Publisher: telegram.NewPublisher(cfg, logger),
				Ledger:    led,
				Resolver:  linkx.NewResolver(cfg, logger),
				Builder:   affiliate.NewBuilder(cfg, aliexpress.NewClient(cfg, logger), logger),
				Logger:    logger,
			})

			report, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	scanCmd.Flags().StringVar(&feedDir, "feed-dir", "", "Directory of <channel>.jsonl feed exports (default from FEED_DIR)")

	return scanCmd
}

// newCLILedger supports the backends that need no live service: memory,
// file, and feed. The sql and redis backends belong to the long-running
// server and worker.
func newCLILedger(ctx context.Context, cfg *config.Config, scanner ledger.HistoryScanner, logger *zap.SugaredLogger) (ledger.Ledger, error) {
	switch cfg.Ledger.Backend {
	case "file":
		return ledger.NewFile(cfg.Ledger.FilePath, logger)
	case "feed":
		f := ledger.NewFeed(scanner, cfg.Telegram.TargetChannel, cfg.Ledger.FeedLookback, logger)
		_ = f.Load(ctx)
		return f, nil
	default:
		return ledger.NewMemory(cfg.Ledger.Cooldown), nil
	}
}
