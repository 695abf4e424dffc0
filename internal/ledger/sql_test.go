package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE post_records (
    id TEXT PRIMARY KEY,
    product_id TEXT NOT NULL,
    channel TEXT NOT NULL DEFAULT '',
    origin TEXT NOT NULL DEFAULT '',
    posted_at TIMESTAMP NOT NULL
)`)
	require.NoError(t, err)

	return db
}

func TestSQLStore_RecordAndSeen(t *testing.T) {
	t.Parallel()

	s := NewSQLStore(newTestDB(t), 0, zap.NewNop().Sugar())
	ctx := context.Background()

	seen, err := s.Seen(ctx, "1005001234567890")
	require.NoError(t, err)
	require.False(t, seen)

	require.NoError(t, s.Record(ctx, PostRecord{
		ProductID: "1005001234567890",
		Channel:   "deals",
		Origin:    "api",
	}))

	seen, err = s.Seen(ctx, "1005001234567890")
	require.NoError(t, err)
	require.True(t, seen)
}

func TestSQLStore_RecordRejectsMissingProductID(t *testing.T) {
	t.Parallel()

	s := NewSQLStore(newTestDB(t), 0, zap.NewNop().Sugar())
	require.Error(t, s.Record(context.Background(), PostRecord{Channel: "deals"}))
}

func TestSQLStore_RecordIsIdempotentForConcurrentDuplicates(t *testing.T) {
	t.Parallel()

	s := NewSQLStore(newTestDB(t), 0, zap.NewNop().Sugar())
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, s.Record(ctx, PostRecord{ProductID: "dup", PostedAt: now}))
	require.NoError(t, s.Record(ctx, PostRecord{ProductID: "dup", PostedAt: now}))

	recs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestSQLStore_CooldownExpires(t *testing.T) {
	t.Parallel()

	s := NewSQLStore(newTestDB(t), time.Hour, zap.NewNop().Sugar())
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, PostRecord{
		ProductID: "abc",
		PostedAt:  time.Now().UTC().Add(-2 * time.Hour),
	}))

	seen, err := s.Seen(ctx, "abc")
	require.NoError(t, err)
	require.False(t, seen)

	require.NoError(t, s.Record(ctx, PostRecord{ProductID: "fresh"}))
	seen, err = s.Seen(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, seen)
}

func TestSQLStore_GetByProductIDAndRecent(t *testing.T) {
	t.Parallel()

	s := NewSQLStore(newTestDB(t), 0, zap.NewNop().Sugar())
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"111", "222", "333"} {
		require.NoError(t, s.Record(ctx, PostRecord{
			ProductID: id,
			Channel:   "deals",
			Origin:    "api",
			PostedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rec, err := s.GetByProductID(ctx, "222")
	require.NoError(t, err)
	require.Equal(t, "222", rec.ProductID)
	require.Equal(t, "deals", rec.Channel)
	require.NotEmpty(t, rec.ID)

	recs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "333", recs[0].ProductID)
	require.Equal(t, "222", recs[1].ProductID)
}
