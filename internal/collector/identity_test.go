package collector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCookieHeader(t *testing.T) {
	t.Parallel()

	id := Identity{Cookies: []Cookie{
		{Name: "session", Value: "abc"},
		{Name: "lang", Value: "pt"},
	}}
	require.Equal(t, "session=abc; lang=pt", id.CookieHeader())
	require.Empty(t, Identity{}.CookieHeader())
}

func TestWithCookiesCopies(t *testing.T) {
	t.Parallel()

	src := []Cookie{{Name: "a", Value: "1"}}
	id := Identity{UserAgent: "ua"}.WithCookies(src)
	src[0].Value = "mutated"

	require.Equal(t, "1", id.Cookies[0].Value)
	require.Equal(t, "ua", id.UserAgent)
}

func TestWriteNetscapeFile(t *testing.T) {
	t.Parallel()

	id := Identity{Cookies: []Cookie{
		{Domain: ".example.org", Path: "/", Name: "session", Value: "abc", Secure: true, Expires: 1760000000},
		{Domain: "nitter.example.org", Name: "lang", Value: "pt"},
	}}

	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, id.WriteNetscapeFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	require.Equal(t, "# Netscape HTTP Cookie File\n"+
		".example.org\tTRUE\t/\tTRUE\t1760000000\tsession\tabc\n"+
		"nitter.example.org\tTRUE\t/\tFALSE\t0\tlang\tpt\n", content)
}
