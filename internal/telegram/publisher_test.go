package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alideal-affiliate-relay/config"
)

func testPublisher(t *testing.T, apiBase string) *Publisher {
	t.Helper()

	cfg := &config.Config{}
	cfg.Telegram = config.TelegramConfig{
		BotToken:      "123:token",
		APIBase:       apiBase,
		TargetChannel: "@alideal",
		Timeout:       5 * time.Second,
	}
	return NewPublisher(cfg, zap.NewNop().Sugar())
}

func TestPublish_SendMessage(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	p := testPublisher(t, srv.URL)
	require.NoError(t, p.Publish(context.Background(), "🔥 deal text", ""))

	require.Equal(t, "/bot123:token/sendMessage", gotPath)
	require.Equal(t, "@alideal", gotPayload["chat_id"])
	require.Equal(t, "🔥 deal text", gotPayload["text"])
	require.Equal(t, "Markdown", gotPayload["parse_mode"])
}

func TestPublish_SendPhotoWithCaption(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	p := testPublisher(t, srv.URL)
	require.NoError(t, p.Publish(context.Background(), "caption", "photo-file-id"))

	require.Equal(t, "/bot123:token/sendPhoto", gotPath)
	require.Equal(t, "photo-file-id", gotPayload["photo"])
	require.Equal(t, "caption", gotPayload["caption"])
}

func TestPublish_APIErrorSurfaced(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok": false, "error_code": 400, "description": "chat not found"}`))
	}))
	defer srv.Close()

	p := testPublisher(t, srv.URL)
	err := p.Publish(context.Background(), "text", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "chat not found")
}

func TestPublish_DisabledWithoutConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	p := NewPublisher(cfg, zap.NewNop().Sugar())
	require.ErrorIs(t, p.Publish(context.Background(), "text", ""), ErrDisabled)
}
