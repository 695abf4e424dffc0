// Package pipeline orchestrates the per-candidate flow: extract → early
// dedup check → resolve → build affiliate link → final dedup check →
// caption → assemble → publish → record. Failures are contained per
// candidate; one bad link never aborts the scan of a channel.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"alideal-affiliate-relay/config"
	"alideal-affiliate-relay/internal/affiliate"
	"alideal-affiliate-relay/internal/assemble"
	"alideal-affiliate-relay/internal/ledger"
	"alideal-affiliate-relay/internal/linkx"
)

// Message is one record from the message-source collaborator. Only Text is
// interpreted; media is passed through to delivery unchanged.
type Message struct {
	Text     string    `json:"text"`
	HasMedia bool      `json:"has_media"`
	MediaRef string    `json:"media_ref,omitempty"`
	Views    int       `json:"views,omitempty"`
	PostedAt time.Time `json:"posted_at,omitempty"`
}

// Source yields recent messages for a channel, newest first.
type Source interface {
	Messages(ctx context.Context, channel string, limit int) ([]Message, error)
}

// CaptionWriter turns raw source text plus fact hints into marketing copy.
// It may fail; the pipeline substitutes a deterministic fallback caption so
// a collaborator failure never blocks publishing.
type CaptionWriter interface {
	Rewrite(ctx context.Context, sourceText, affiliateLink, priceHint string) (string, error)
}

// Publisher delivers the final post. Fire-and-forget with error report: a
// failed publish is logged and skipped, never retried within the same pass.
type Publisher interface {
	Publish(ctx context.Context, text, mediaRef string) error
}

type Report struct {
	RunID     string `json:"run_id"`
	Channels  int    `json:"channels"`
	Scanned   int    `json:"scanned"`
	Published int    `json:"published"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// errBudgetExhausted terminates a run early and gracefully; already-recorded
// ledger entries remain valid.
var errBudgetExhausted = errors.New("run budget exhausted")

type Pipeline struct {
	cfg       *config.Config
	source    Source
	writer    CaptionWriter
	publisher Publisher
	ledger    ledger.Ledger
	resolver  *linkx.Resolver
	builder   *affiliate.Builder
	logger    *zap.SugaredLogger

	sleep func(time.Duration)
}

type NewPipelineParams struct {
	fx.In

	Cfg       *config.Config
	Source    Source
	Writer    CaptionWriter
	Publisher Publisher
	Ledger    ledger.Ledger
	Resolver  *linkx.Resolver
	Builder   *affiliate.Builder
	Logger    *zap.SugaredLogger
}

func New(p NewPipelineParams) *Pipeline {
	return &Pipeline{
		cfg:       p.Cfg,
		source:    p.Source,
		writer:    p.Writer,
		publisher: p.Publisher,
		ledger:    p.Ledger,
		resolver:  p.Resolver,
		builder:   p.Builder,
		logger:    p.Logger,
		sleep:     time.Sleep,
	}
}

type runState struct {
	report  Report
	started time.Time
	// runSeen dedups within the current run, including hash-derived
	// identifiers that must never reach a persistent ledger.
	runSeen *ledger.Memory
}

func newRunState() *runState {
	return &runState{
		report:  Report{RunID: uuid.NewString()},
		started: time.Now(),
		runSeen: ledger.NewMemory(0),
	}
}

// Run scans every configured source channel in order. Channels are
// processed sequentially, one candidate link at a time: processing order
// determines ledger write order, which decides which of two near-duplicate
// posts in the same scan wins.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	run := newRunState()

	for _, channel := range p.cfg.Telegram.SourceChannels {
		run.report.Channels++
		if err := p.scanChannel(ctx, run, channel); err != nil {
			if errors.Is(err, errBudgetExhausted) {
				p.logger.Infow("run_budget_reached", "run_id", run.report.RunID, "published", run.report.Published)
				break
			}
			return run.report, err
		}
	}

	p.logger.Infow("run_finished",
		"run_id", run.report.RunID,
		"channels", run.report.Channels,
		"scanned", run.report.Scanned,
		"published", run.report.Published,
		"skipped", run.report.Skipped,
		"failed", run.report.Failed,
	)
	return run.report, nil
}

// RunChannel scans a single channel with a fresh run budget. Used by the
// queue worker, which receives one channel per message.
func (p *Pipeline) RunChannel(ctx context.Context, channel string) (Report, error) {
	run := newRunState()
	run.report.Channels = 1

	err := p.scanChannel(ctx, run, channel)
	if errors.Is(err, errBudgetExhausted) {
		err = nil
	}
	return run.report, err
}

func (p *Pipeline) scanChannel(ctx context.Context, run *runState, channel string) error {
	p.logger.Infow("channel_scan_start", "run_id", run.report.RunID, "channel", channel)

	msgs, err := p.source.Messages(ctx, channel, p.cfg.Pipeline.MaxMessages)
	if err != nil {
		// One unreadable channel must not abort the scan of the rest.
		run.report.Failed++
		p.logger.Errorw("channel_scan_failed", "channel", channel, "err", err)
		return nil
	}

	for _, msg := range msgs {
		if err := p.checkBudget(ctx, run); err != nil {
			return err
		}

		run.report.Scanned++
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}

		p.processMessage(ctx, run, channel, msg)
	}

	return nil
}

func (p *Pipeline) checkBudget(ctx context.Context, run *runState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if max := p.cfg.Pipeline.MaxPostsPerRun; max > 0 && run.report.Published >= max {
		return errBudgetExhausted
	}
	if budget := p.cfg.Pipeline.RunBudget; budget > 0 && time.Since(run.started) > budget {
		return errBudgetExhausted
	}
	return nil
}

// processMessage handles the first candidate link of one message. All
// failures are contained here.
func (p *Pipeline) processMessage(ctx context.Context, run *runState, channel string, msg Message) {
	candidates := linkx.ExtractCandidates(msg.Text)
	if len(candidates) == 0 {
		return
	}
	rawLink := candidates[0]

	// Early check on the cheapest possible identifier, before any
	// paid/rate-limited API call.
	if earlyID, ok := linkx.ExtractID(linkx.Normalize(rawLink)); ok {
		if p.isSeen(ctx, run, earlyID) {
			run.report.Skipped++
			p.logger.Debugw("candidate_skipped_early", "product_id", earlyID.Value, "channel", channel)
			return
		}
	}

	resolved := p.resolver.Resolve(ctx, rawLink)
	clean := linkx.Normalize(resolved)

	link := p.builder.Build(ctx, clean)

	// Resolution can change the identifier (a short-link token may be
	// superseded by the real item id), hence the second check. The clean
	// resolved URL is the authoritative source: a winning API strategy
	// returns a short link whose token the provider mints fresh per call,
	// and recording that token instead of the stable item id would let the
	// same product through again on the next run.
	finalID, ok := linkx.ExtractID(clean)
	if !ok {
		finalID, ok = linkx.ExtractID(link.URL)
	}
	if !ok {
		finalID = linkx.HashID(clean)
	}

	if p.isSeen(ctx, run, finalID) {
		run.report.Skipped++
		p.logger.Infow("candidate_skipped_final", "product_id", finalID.Value, "channel", channel)
		return
	}

	priceHint := PriceHint(msg.Text)
	caption, err := p.writer.Rewrite(ctx, msg.Text, link.URL, priceHint)
	if err != nil || strings.TrimSpace(caption) == "" {
		p.logger.Warnw("caption_writer_fallback",
			"product_id", finalID.Value,
			"err", err,
		)
		caption = FallbackCaption(msg.Text, priceHint)
	}

	text := assemble.Assemble(caption, link.URL)
	if finalID.Persistable() {
		text = assemble.EmbedMarker(text, finalID.Value)
	}

	if err := p.publisher.Publish(ctx, text, msg.MediaRef); err != nil {
		// A failed send must never poison the ledger.
		run.report.Failed++
		p.logger.Errorw("publish_failed",
			"product_id", finalID.Value,
			"origin", string(link.Origin),
			"channel", channel,
			"err", err,
		)
		return
	}

	p.record(ctx, run, finalID, channel, link.Origin)
	run.report.Published++
	p.logger.Infow("candidate_published",
		"product_id", finalID.Value,
		"origin", string(link.Origin),
		"channel", channel,
	)

	if delay := p.cfg.Pipeline.PostDelay; delay > 0 {
		p.sleep(delay)
	}
}

func (p *Pipeline) isSeen(ctx context.Context, run *runState, id linkx.ProductID) bool {
	if seen, _ := run.runSeen.Seen(ctx, id.Value); seen {
		return true
	}
	if !id.Persistable() {
		return false
	}

	seen, err := p.ledger.Seen(ctx, id.Value)
	if err != nil {
		p.logger.Warnw("ledger_seen_failed", "product_id", id.Value, "err", err)
		return false
	}
	return seen
}

func (p *Pipeline) record(ctx context.Context, run *runState, id linkx.ProductID, channel string, origin affiliate.Origin) {
	rec := ledger.PostRecord{
		ProductID: id.Value,
		Channel:   channel,
		Origin:    string(origin),
		PostedAt:  time.Now().UTC(),
	}

	_ = run.runSeen.Record(ctx, rec)

	// Hash identifiers are unstable across runs; they never reach the
	// persistent ledger.
	if !id.Persistable() {
		return
	}
	if err := p.ledger.Record(ctx, rec); err != nil {
		p.logger.Errorw("ledger_record_failed", "product_id", id.Value, "err", err)
	}
}
