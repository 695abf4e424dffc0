package scanworker

import (
	"context"
	"fmt"
	"strings"

	"alideal-affiliate-relay/internal/pipeline"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ScanHandler drives one pipeline pass for the channel named in the
// envelope. Each message gets its own run budget; publishing failures are
// contained inside the pipeline, so a handler error here means the scan
// itself could not run and the delivery should be dead-lettered.
type ScanHandler struct {
	pipeline *pipeline.Pipeline
	logger   *zap.SugaredLogger
}

type NewScanHandlerParams struct {
	fx.In

	Pipeline *pipeline.Pipeline
	Logger   *zap.SugaredLogger
}

func NewScanHandler(p NewScanHandlerParams) *ScanHandler {
	return &ScanHandler{
		pipeline: p.Pipeline,
		logger:   p.Logger,
	}
}

func (h *ScanHandler) Handle(ctx context.Context, msg ScanRequestedEnvelope) error {
	channel := strings.TrimSpace(msg.Data.Channel)
	if channel == "" {
		return fmt.Errorf("missing channel")
	}
	if strings.TrimSpace(msg.EventID) == "" {
		return fmt.Errorf("missing event_id")
	}
	if strings.TrimSpace(msg.EventName) != "" && msg.EventName != ScanRequestedEventName {
		return fmt.Errorf("unexpected event_name: %s", msg.EventName)
	}

	report, err := h.pipeline.RunChannel(ctx, channel)
	if err != nil {
		h.logger.Errorw("scanworker_run_failed",
			"event_id", msg.EventID,
			"channel", channel,
			"err", err,
		)
		return err
	}

	h.logger.Infow("scanworker_finished",
		"event_id", msg.EventID,
		"channel", channel,
		"run_id", report.RunID,
		"scanned", report.Scanned,
		"published", report.Published,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)

	return nil
}
