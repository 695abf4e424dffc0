package enqueue

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"alideal-affiliate-relay/config"
	"alideal-affiliate-relay/internal/app/amqp/scanworker"
	"alideal-affiliate-relay/internal/pkg/render"
	"alideal-affiliate-relay/internal/router"

	"github.com/go-chi/chi/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Handler publishes a feed scan request for one source channel. The worker
// picks it up from the queue and runs the pipeline pass.
type Handler struct {
	cfg     *config.Config
	channel *amqp.Channel
	logger  *zap.SugaredLogger

	publish func(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	now     func() time.Time
}

type NewHandlerParams struct {
	fx.In

	Cfg     *config.Config
	Channel *amqp.Channel `optional:"true"`
	Logger  *zap.SugaredLogger
}

func NewHandler(p NewHandlerParams) *Handler {
	var publishFn func(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	if p.Channel != nil {
		publishFn = p.Channel.PublishWithContext
	}

	return &Handler{
		cfg:     p.Cfg,
		channel: p.Channel,
		logger:  p.Logger,
		publish: publishFn,
		now:     time.Now,
	}
}

func (h *Handler) RegisterRoute(r *chi.Mux) {
	r.Post("/v1/scan/enqueue", h.Handle)
}

type enqueueRequest struct {
	Channel string `json:"channel"`
}

type enqueueResponse struct {
	OK      bool   `json:"ok"`
	EventID string `json:"event_id"`
	Channel string `json:"channel"`
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.ChiErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	channel := strings.TrimPrefix(strings.TrimSpace(req.Channel), "@")
	if channel == "" {
		render.ChiErr(w, http.StatusBadRequest, "missing channel")
		return
	}
	if !isConfiguredSourceChannel(h.cfg, channel) {
		render.ChiErr(w, http.StatusBadRequest, "unknown source channel")
		return
	}

	if h.cfg.RabbitMQ.URL == "" || h.publish == nil {
		render.ChiErr(w, http.StatusServiceUnavailable, "rabbitmq disabled")
		return
	}

	ex := h.cfg.RabbitMQ.Exchange
	if ex == "" {
		ex = "events"
	}
	routingKey := h.cfg.RabbitMQ.RoutingKey
	if routingKey == "" {
		routingKey = "feed.scan.requested.v1"
	}

	now := h.now().UTC()
	eventID := eventIDForScan(channel, now)

	env := scanworker.ScanRequestedEnvelope{
		EventName: scanworker.ScanRequestedEventName,
		EventID:   eventID,
		TS:        now,
		Data: scanworker.ScanRequestedEventData{
			Channel: channel,
		},
	}
	body, err := json.Marshal(env)
	if err != nil {
		h.logger.Errorw("enqueue_marshal_failed", "err", err)
		render.ChiErr(w, http.StatusInternalServerError, "failed to encode message")
		return
	}

	if h.channel != nil && h.cfg.RabbitMQ.DeclareTopology {
		if err := h.channel.ExchangeDeclare(ex, "topic", true, false, false, false, nil); err != nil {
			h.logger.Errorw("enqueue_exchange_declare_failed", "exchange", ex, "err", err)
			render.ChiErr(w, http.StatusBadGateway, fmt.Sprintf("rabbitmq exchange declare failed: %s", ex))
			return
		}
	}

	if err := h.publish(r.Context(), ex, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    now,
		MessageId:    eventID,
		Body:         body,
	}); err != nil {
		h.logger.Errorw(
			"enqueue_publish_failed",
			"exchange", ex,
			"routing_key", routingKey,
			"event_id", eventID,
			"channel", channel,
			"err", err,
		)
		render.ChiErr(w, http.StatusBadGateway, "failed to publish message")
		return
	}

	h.logger.Infow("enqueue_published", "exchange", ex, "routing_key", routingKey, "event_id", eventID, "channel", channel)
	render.ChiJSON(w, http.StatusOK, enqueueResponse{OK: true, EventID: eventID, Channel: channel})
}

// eventIDForScan is stable within a minute so accidental double submissions
// share a message id.
func eventIDForScan(channel string, ts time.Time) string {
	sum := sha256.Sum256([]byte(channel + "|" + ts.UTC().Format("2006-01-02T15:04")))
	return "scan:" + hex.EncodeToString(sum[:])
}

func isConfiguredSourceChannel(cfg *config.Config, channel string) bool {
	for _, c := range cfg.Telegram.SourceChannels {
		if strings.TrimPrefix(strings.TrimSpace(c), "@") == channel {
			return true
		}
	}
	return false
}

var _ router.Handler = (*Handler)(nil)
