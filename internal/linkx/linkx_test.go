package linkx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alideal-affiliate-relay/config"
)

func TestExtractCandidates(t *testing.T) {
	t.Parallel()

	text := "🔥 Deal! https://www.aliexpress.com/item/1005001234567890.html?spm=abc " +
		"also https://example.com/other and (https://s.click.aliexpress.com/e/_abCD12)."

	got := ExtractCandidates(text)
	require.Equal(t, []string{
		"https://www.aliexpress.com/item/1005001234567890.html?spm=abc",
		"https://s.click.aliexpress.com/e/_abCD12",
	}, got)
}

func TestExtractCandidates_NoLinks(t *testing.T) {
	t.Parallel()

	require.Empty(t, ExtractCandidates("no links here, just text"))
}

func TestNormalize_DropsQueryAndFragment(t *testing.T) {
	t.Parallel()

	in := "https://www.aliexpress.com/item/1005001234567890.html?aff_trace_key=xyz&spm=a2g0o#frag"
	want := "https://www.aliexpress.com/item/1005001234567890.html"
	require.Equal(t, want, Normalize(in))
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	cases := []string{
		"https://www.aliexpress.com/item/1005001234567890.html?x=1",
		"https://m.aliexpress.com/item/123456789012.html",
		"https://s.click.aliexpress.com/e/_abCD12",
		"not a url",
		"",
	}
	for _, c := range cases {
		once := Normalize(c)
		require.Equal(t, once, Normalize(once), "input %q", c)
	}
}

func TestNormalize_CanonicalizesMobileHost(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		"https://www.aliexpress.com/item/123456789012.html",
		Normalize("https://m.aliexpress.com/item/123456789012.html?src=app"),
	)
}

func TestNormalize_NonURLPassthrough(t *testing.T) {
	t.Parallel()

	require.Equal(t, "hello world", Normalize("hello world"))
}

func TestExtractID_ItemPath(t *testing.T) {
	t.Parallel()

	id, ok := ExtractID("https://www.aliexpress.com/item/1005001234567890.html")
	require.True(t, ok)
	require.Equal(t, "1005001234567890", id.Value)
	require.Equal(t, KindItem, id.Kind)
	require.True(t, id.Persistable())
}

func TestExtractID_ShortToken(t *testing.T) {
	t.Parallel()

	id, ok := ExtractID("https://s.click.aliexpress.com/e/_abCD12")
	require.True(t, ok)
	require.Equal(t, "abCD12", id.Value)
	require.Equal(t, KindToken, id.Kind)
	require.True(t, id.Persistable())

	// Same token without the leading underscore.
	id2, ok := ExtractID("https://s.click.aliexpress.com/e/abCD12")
	require.True(t, ok)
	require.Equal(t, id.Value, id2.Value)
}

func TestExtractID_LooseDigits(t *testing.T) {
	t.Parallel()

	id, ok := ExtractID("https://star.aliexpress.com/share/share.htm?productId=1005009876543210")
	require.True(t, ok)
	require.Equal(t, "1005009876543210", id.Value)
	require.Equal(t, KindItem, id.Kind)
}

func TestExtractID_None(t *testing.T) {
	t.Parallel()

	_, ok := ExtractID("https://www.aliexpress.com/campaign/summer-sale")
	require.False(t, ok)
}

func TestFindItemIDs(t *testing.T) {
	t.Parallel()

	text := "old post https://www.aliexpress.com/item/111111111111.html and " +
		"https://www.aliexpress.com/item/222222222222.html"
	require.Equal(t, []string{"111111111111", "222222222222"}, FindItemIDs(text))
}

func TestHashID_DeterministicAndNotPersistable(t *testing.T) {
	t.Parallel()

	a := HashID("https://www.aliexpress.com/some/unknown")
	b := HashID("https://www.aliexpress.com/some/unknown")
	require.Equal(t, a, b)
	require.Equal(t, KindHash, a.Kind)
	require.False(t, a.Persistable())

	c := HashID("https://www.aliexpress.com/some/other")
	require.NotEqual(t, a.Value, c.Value)
}

func TestResolver_FollowsRedirects(t *testing.T) {
	t.Parallel()

	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer final.Close()

	hop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL+"/item/1005001234567890.html", http.StatusFound)
	}))
	defer hop.Close()

	cfg := &config.Config{}
	cfg.Resolver.Enabled = true
	cfg.Resolver.Hosts = []string{"127.0.0.1"}

	r := NewResolver(cfg, zap.NewNop().Sugar())
	got := r.Resolve(context.Background(), hop.URL+"/e/_abCD12")
	require.Equal(t, final.URL+"/item/1005001234567890.html", got)
}

func TestResolver_SkipsNonShortLinkHosts(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Resolver.Enabled = true
	cfg.Resolver.Hosts = []string{"s.click"}

	r := NewResolver(cfg, zap.NewNop().Sugar())
	in := "https://www.aliexpress.com/item/1005001234567890.html"
	require.Equal(t, in, r.Resolve(context.Background(), in))
}

func TestResolver_ReturnsInputOnFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Resolver.Enabled = true
	cfg.Resolver.Hosts = []string{"127.0.0.1"}

	r := NewResolver(cfg, zap.NewNop().Sugar())
	in := srv.URL + "/e/_dead"
	require.Equal(t, in, r.Resolve(context.Background(), in))
}

func TestResolver_Disabled(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Resolver.Enabled = false
	cfg.Resolver.Hosts = []string{"s.click"}

	r := NewResolver(cfg, zap.NewNop().Sugar())
	in := "https://s.click.aliexpress.com/e/_abCD12"
	require.Equal(t, in, r.Resolve(context.Background(), in))
}
