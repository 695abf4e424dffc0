package aliexpress

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSign_SortsKeysAndWrapsSecret(t *testing.T) {
	t.Parallel()

	secret := "topsecret"
	params := map[string]string{
		"method":  "aliexpress.affiliate.link.generate",
		"app_key": "12345",
		"v":       "2.0",
	}

	// Expected: MD5(secret + app_key12345 + methodaliexpress... + v2.0 + secret).
	base := secret + "app_key12345" + "methodaliexpress.affiliate.link.generate" + "v2.0" + secret
	sum := md5.Sum([]byte(base))
	want := strings.ToUpper(hex.EncodeToString(sum[:]))

	require.Equal(t, want, Sign(secret, params))
}

func TestSign_Deterministic(t *testing.T) {
	t.Parallel()

	params := map[string]string{"a": "1", "b": "2", "c": "3"}
	require.Equal(t, Sign("s", params), Sign("s", params))
}

func TestSign_SensitiveToEveryInput(t *testing.T) {
	t.Parallel()

	base := Sign("s", map[string]string{"a": "1", "b": "2"})

	require.NotEqual(t, base, Sign("other", map[string]string{"a": "1", "b": "2"}))
	require.NotEqual(t, base, Sign("s", map[string]string{"a": "1", "b": "3"}))
	require.NotEqual(t, base, Sign("s", map[string]string{"a": "1", "b": "2", "c": ""}))
}

func TestSign_UppercaseHex(t *testing.T) {
	t.Parallel()

	got := Sign("s", map[string]string{"k": "v"})
	require.Len(t, got, 32)
	require.Equal(t, strings.ToUpper(got), got)
}
