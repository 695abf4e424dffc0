package ledger

import (
	"context"

	"go.uber.org/zap"

	"alideal-affiliate-relay/internal/assemble"
	"alideal-affiliate-relay/internal/linkx"
)

// HistoryScanner yields the text of recently published messages from the
// destination feed, newest first, bounded by limit.
type HistoryScanner interface {
	RecentTexts(ctx context.Context, channel string, limit int) ([]string, error)
}

// Feed treats the destination feed itself as the ledger: identifiers are
// recovered at startup from the hidden markers (and visible item links) in
// recently published messages, so no separate store is needed. Lookback is
// bounded; anything older than the scan window is considered unseen again.
type Feed struct {
	mem      *Memory
	scanner  HistoryScanner
	channel  string
	lookback int
	logger   *zap.SugaredLogger
}

func NewFeed(scanner HistoryScanner, channel string, lookback int, logger *zap.SugaredLogger) *Feed {
	if lookback <= 0 {
		lookback = 200
	}
	return &Feed{
		mem:      NewMemory(0),
		scanner:  scanner,
		channel:  channel,
		lookback: lookback,
		logger:   logger,
	}
}

// Load scans the destination feed once. Scan failures are logged, not
// fatal: a cold ledger only risks a duplicate, not a crash.
func (f *Feed) Load(ctx context.Context) error {
	texts, err := f.scanner.RecentTexts(ctx, f.channel, f.lookback)
	if err != nil {
		f.logger.Warnw("ledger_feed_scan_failed", "channel", f.channel, "err", err)
		return err
	}

	count := 0
	for _, text := range texts {
		for _, id := range assemble.ExtractMarkerIDs(text) {
			_ = f.mem.Record(ctx, PostRecord{ProductID: id})
			count++
		}
		for _, id := range linkx.FindItemIDs(text) {
			_ = f.mem.Record(ctx, PostRecord{ProductID: id})
			count++
		}
	}

	f.logger.Infow("ledger_feed_loaded", "channel", f.channel, "messages", len(texts), "ids", count)
	return nil
}

func (f *Feed) Seen(ctx context.Context, productID string) (bool, error) {
	return f.mem.Seen(ctx, productID)
}

// Record tracks the identifier in memory for the rest of the run; the
// published message itself (with its embedded marker) is the durable copy.
func (f *Feed) Record(ctx context.Context, rec PostRecord) error {
	return f.mem.Record(ctx, rec)
}
