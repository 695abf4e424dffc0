// Package telegram delivers final posts to the destination channel through
// the Bot API. Delivery is a collaborator of the pipeline: a failed send is
// reported, not retried.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"alideal-affiliate-relay/config"
)

var ErrDisabled = errors.New("telegram delivery disabled: set TELEGRAM_BOT_TOKEN and TELEGRAM_TARGET_CHANNEL")

type Publisher struct {
	cfg    config.TelegramConfig
	httpc  *http.Client
	logger *zap.SugaredLogger
}

func NewPublisher(cfg *config.Config, logger *zap.SugaredLogger) *Publisher {
	return &Publisher{
		cfg:    cfg.Telegram,
		httpc:  &http.Client{Timeout: cfg.Telegram.Timeout},
		logger: logger,
	}
}

// Publish sends text (and optionally a photo by file id or URL) to the
// configured target channel.
func (p *Publisher) Publish(ctx context.Context, text, mediaRef string) error {
	if strings.TrimSpace(p.cfg.BotToken) == "" || strings.TrimSpace(p.cfg.TargetChannel) == "" {
		return ErrDisabled
	}

	method := "sendMessage"
	payload := map[string]any{
		"chat_id":    p.cfg.TargetChannel,
		"parse_mode": "Markdown",
	}
	if mediaRef != "" {
		method = "sendPhoto"
		payload["photo"] = mediaRef
		payload["caption"] = text
	} else {
		payload["text"] = text
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(p.cfg.APIBase, "/"), p.cfg.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read telegram response: %w", err)
	}

	var apiResp struct {
		OK          bool   `json:"ok"`
		ErrorCode   int    `json:"error_code"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return fmt.Errorf("decode telegram response (status %d): %w", resp.StatusCode, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram %s failed: %d %s", method, apiResp.ErrorCode, apiResp.Description)
	}

	return nil
}
