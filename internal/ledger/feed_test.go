package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alideal-affiliate-relay/internal/assemble"
)

type fakeScanner struct {
	texts []string
	err   error
}

func (f fakeScanner) RecentTexts(_ context.Context, _ string, _ int) ([]string, error) {
	return f.texts, f.err
}

func TestFeed_LoadRecoversMarkersAndItemLinks(t *testing.T) {
	t.Parallel()

	texts := []string{
		assemble.EmbedMarker("🔥 deal one", "1005001234567890"),
		"older post with a visible link https://www.aliexpress.com/item/222222222222.html",
		"post with no identifiers at all",
	}

	f := NewFeed(fakeScanner{texts: texts}, "deals", 100, zap.NewNop().Sugar())
	ctx := context.Background()
	require.NoError(t, f.Load(ctx))

	seen, err := f.Seen(ctx, "1005001234567890")
	require.NoError(t, err)
	require.True(t, seen)

	seen, err = f.Seen(ctx, "222222222222")
	require.NoError(t, err)
	require.True(t, seen)

	seen, err = f.Seen(ctx, "333333333333")
	require.NoError(t, err)
	require.False(t, seen)
}

func TestFeed_LoadFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	f := NewFeed(fakeScanner{err: errors.New("flood wait")}, "deals", 100, zap.NewNop().Sugar())
	ctx := context.Background()

	require.Error(t, f.Load(ctx))

	// A cold ledger still works for the rest of the run.
	require.NoError(t, f.Record(ctx, PostRecord{ProductID: "abc"}))
	seen, err := f.Seen(ctx, "abc")
	require.NoError(t, err)
	require.True(t, seen)
}
