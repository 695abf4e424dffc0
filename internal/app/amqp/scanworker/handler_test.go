package scanworker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alideal-affiliate-relay/config"
	"alideal-affiliate-relay/internal/affiliate"
	"alideal-affiliate-relay/internal/aliexpress"
	"alideal-affiliate-relay/internal/ledger"
	"alideal-affiliate-relay/internal/linkx"
	"alideal-affiliate-relay/internal/pipeline"
)

type emptySource struct{}

func (emptySource) Messages(context.Context, string, int) ([]pipeline.Message, error) {
	return nil, nil
}

type nopWriter struct{}

func (nopWriter) Rewrite(_ context.Context, text, _, _ string) (string, error) { return text, nil }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string) error { return nil }

func newTestHandler(t *testing.T) *ScanHandler {
	t.Helper()

	cfg := &config.Config{}
	logger := zap.NewNop().Sugar()

	p := pipeline.New(pipeline.NewPipelineParams{
		Cfg:       cfg,
		Source:    emptySource{},
		Writer:    nopWriter{},
		Publisher: nopPublisher{},
		Ledger:    ledger.NewMemory(0),
		Resolver:  linkx.NewResolver(cfg, logger),
		Builder:   affiliate.NewBuilder(cfg, aliexpress.NewClient(cfg, logger), logger),
		Logger:    logger,
	})

	return NewScanHandler(NewScanHandlerParams{Pipeline: p, Logger: logger})
}

func validEnvelope() ScanRequestedEnvelope {
	return ScanRequestedEnvelope{
		EventName: ScanRequestedEventName,
		EventID:   "scan:abc",
		TS:        time.Now().UTC(),
		Data:      ScanRequestedEventData{Channel: "deals_source"},
	}
}

func TestScanHandler_Handle_OK(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	require.NoError(t, h.Handle(context.Background(), validEnvelope()))
}

func TestScanHandler_Handle_MissingChannel(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	env := validEnvelope()
	env.Data.Channel = " "
	require.Error(t, h.Handle(context.Background(), env))
}

func TestScanHandler_Handle_MissingEventID(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	env := validEnvelope()
	env.EventID = ""
	require.Error(t, h.Handle(context.Background(), env))
}

func TestScanHandler_Handle_WrongEventName(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	env := validEnvelope()
	env.EventName = "something/else"
	require.Error(t, h.Handle(context.Background(), env))
}
