package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeExport(t *testing.T, dir, channel, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, channel+".jsonl"), []byte(content), 0o644))
}

func TestFileSource_Messages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeExport(t, dir, "deals_source", `
{"text": "first deal https://www.aliexpress.com/item/111111111111.html", "views": 10}

{"text": "second deal", "has_media": true, "media_ref": "photo-1"}
not json at all
{"text": "third"}
`)

	s := NewFileSource(dir, zap.NewNop().Sugar())
	msgs, err := s.Messages(context.Background(), "@deals_source", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Contains(t, msgs[0].Text, "first deal")
	require.Equal(t, 10, msgs[0].Views)
	require.True(t, msgs[1].HasMedia)
	require.Equal(t, "photo-1", msgs[1].MediaRef)
}

func TestFileSource_Limit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeExport(t, dir, "deals", `{"text": "a"}
{"text": "b"}
{"text": "c"}
`)

	s := NewFileSource(dir, zap.NewNop().Sugar())
	msgs, err := s.Messages(context.Background(), "deals", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
}

func TestFileSource_MissingChannel(t *testing.T) {
	t.Parallel()

	s := NewFileSource(t.TempDir(), zap.NewNop().Sugar())
	_, err := s.Messages(context.Background(), "absent", 0)
	require.Error(t, err)
}

func TestFileSource_RecentTexts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeExport(t, dir, "target", `{"text": "published one"}
{"text": "published two"}
`)

	s := NewFileSource(dir, zap.NewNop().Sugar())
	texts, err := s.RecentTexts(context.Background(), "target", 0)
	require.NoError(t, err)
	require.Equal(t, []string{"published one", "published two"}, texts)
}
