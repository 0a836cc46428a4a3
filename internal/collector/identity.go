package collector

import (
	"fmt"
	"os"
	"strings"
)

// Identity is an immutable snapshot of the browser session presented to
// the download collaborator. Discovery refreshes it on every search so
// downloads appear to come from the session that rendered the page.
type Identity struct {
	UserAgent string
	Cookies   []Cookie
}

// WithCookies returns a copy of the identity with the given cookies.
func (id Identity) WithCookies(cookies []Cookie) Identity {
	cp := make([]Cookie, len(cookies))
	copy(cp, cookies)
	id.Cookies = cp
	return id
}

// CookieHeader renders the cookies as a Cookie request header value.
func (id Identity) CookieHeader() string {
	parts := make([]string, 0, len(id.Cookies))
	for _, c := range id.Cookies {
		parts = append(parts, fmt.Sprintf("%s=%s", c.Name, c.Value))
	}
	return strings.Join(parts, "; ")
}

// WriteNetscapeFile writes the cookies in Netscape cookie-file format,
// which is what yt-dlp expects via its --cookies flag.
func (id Identity) WriteNetscapeFile(path string) error {
	var b strings.Builder
	b.WriteString("# Netscape HTTP Cookie File\n")
	for _, c := range id.Cookies {
		secure := "FALSE"
		if c.Secure {
			secure = "TRUE"
		}
		fmt.Fprintf(&b, "%s\tTRUE\t%s\t%s\t%d\t%s\t%s\n",
			c.Domain, cookiePath(c.Path), secure, c.Expires, c.Name, c.Value)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write cookie file %s: %w", path, err)
	}
	return nil
}

func cookiePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
