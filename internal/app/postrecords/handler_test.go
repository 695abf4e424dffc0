package postrecords

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"alideal-affiliate-relay/config"
	"alideal-affiliate-relay/db"
	"alideal-affiliate-relay/internal/ledger"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	d, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	_, err = d.Exec(`
CREATE TABLE post_records (
    id TEXT PRIMARY KEY,
    product_id TEXT NOT NULL,
    channel TEXT NOT NULL DEFAULT '',
    origin TEXT NOT NULL DEFAULT '',
    posted_at TIMESTAMP NOT NULL
)`)
	require.NoError(t, err)

	return d
}

func newTestHandler(t *testing.T, conn db.Conn) *Handler {
	t.Helper()
	return NewHandler(NewHandlerParams{Conn: conn, Logger: zap.NewNop().Sugar()})
}

func get(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_ListsRecords(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	store := ledger.NewSQLStore(d, 0, zap.NewNop().Sugar())
	require.NoError(t, store.Record(context.Background(), ledger.PostRecord{
		ProductID: "1005001234567890",
		Channel:   "deals",
		Origin:    "api",
		PostedAt:  time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}))

	rec := get(t, newTestHandler(t, d), "/v1/post-records")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	require.Equal(t, "1005001234567890", resp.Records[0].ProductID)
}

func TestHandle_InvalidLimit(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestHandler(t, newTestDB(t)), "/v1/post-records?limit=abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandle_DisabledConnFailsFast(t *testing.T) {
	t.Parallel()

	// An unconfigured ledger database yields a non-nil Conn whose every use
	// returns ErrSQLiteDisabled; the handler maps that to 503.
	out, err := db.NewSQLXSQLiteDB(db.NewSQLXSQLiteDBParams{
		Lc:     fxtest.NewLifecycle(t),
		Cfg:    &config.Config{},
		Logger: zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	require.Nil(t, out.DB)
	require.NotNil(t, out.Conn)

	rec := get(t, newTestHandler(t, out.Conn), "/v1/post-records")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandle_NoConnIs503(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestHandler(t, nil), "/v1/post-records")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
