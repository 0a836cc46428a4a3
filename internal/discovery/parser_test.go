package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const searchPageFixture = `
<html><body>
<div class="timeline-item">
  <a class="tweet-link" href="/alice/status/1001#m"></a>
  <a class="fullname" href="/alice">Alice Souza</a>
  <a class="username" href="/alice">@alice</a>
  <span class="icon-verified"></span>
  <span class="tweet-date"><a href="/alice/status/1001" title="May 10, 2026 · 2:45 PM UTC">May 10</a></span>
  <div class="tweet-content">Enchente no centro da cidade, ruas alagadas.</div>
  <div class="attachments">
    <div class="attachment image">
      <img src="/pic/media%2Fabc.jpg"/>
    </div>
  </div>
  <div class="tweet-stats">
    <span class="tweet-stat"><div><span class="icon-comment"></span> 12</div></span>
    <span class="tweet-stat"><div><span class="icon-retweet"></span> 3.4K</div></span>
    <span class="tweet-stat"><div><span class="icon-heart"></span> 1.2M</div></span>
  </div>
</div>
<div class="tweet-card">
  <a class="tweet-link" href="/bob/status/1002"></a>
  <a class="fullname" href="/bob">Bob</a>
  <a class="username" href="/bob">@bob</a>
  <span class="tweet-date"><a href="/bob/status/1002" title="not a date">May 10</a></span>
  <div class="tweet-content">Video do temporal.</div>
  <div class="attachments">
    <div class="attachment video-container"><video poster="/pic/poster.jpg"></video></div>
  </div>
  <div class="tweet-stats">
    <span class="tweet-stat"><div><span class="icon-comment"></span></div></span>
  </div>
</div>
<div class="timeline-item">
  <div class="tweet-content">Post sem link de status, deve ser ignorado.</div>
</div>
<div class="timeline-item">
  <a class="tweet-link" href="/carol/status/1003"></a>
  <a class="username" href="/carol">@carol</a>
  <div class="tweet-content"></div>
</div>
</body></html>`

func TestParsePosts(t *testing.T) {
	t.Parallel()

	posts, err := ParsePosts(searchPageFixture, "https://nitter.example.org/")
	require.NoError(t, err)
	require.Len(t, posts, 2, "items without id or text are dropped")

	first := posts[0]
	require.Equal(t, "1001", first.ID, "fragment must be stripped from the status path")
	require.Equal(t, "https://x.com/alice/status/1001", first.URL)
	require.Equal(t, "alice", first.Username)
	require.Equal(t, "Alice Souza", first.DisplayName)
	require.True(t, first.Verified)
	require.Equal(t, "2026-05-10T14:45:00Z", first.PublishedAt)
	require.Equal(t, "Enchente no centro da cidade, ruas alagadas.", first.Text)

	require.NotNil(t, first.Replies)
	require.Equal(t, 12, *first.Replies)
	require.NotNil(t, first.Reposts)
	require.Equal(t, 3400, *first.Reposts)
	require.NotNil(t, first.Likes)
	require.Equal(t, 1_200_000, *first.Likes)

	require.Len(t, first.Attachments, 1)
	require.Equal(t, "image", first.Attachments[0].TypeHint)
	require.Equal(t, "https://nitter.example.org/pic/media%2Fabc.jpg", first.Attachments[0].MediaURL)

	second := posts[1]
	require.Equal(t, "1002", second.ID)
	require.False(t, second.Verified)
	require.Equal(t, "not a date", second.PublishedAt, "unparseable dates pass through verbatim")
	require.Nil(t, second.Replies, "a stat icon with no number stays unknown")
	require.Len(t, second.Attachments, 1)
	require.Equal(t, "video", second.Attachments[0].TypeHint)
	require.Equal(t, "https://nitter.example.org/bob/status/1002", second.Attachments[0].MediaURL)
}

func TestParsePostsEmptyPage(t *testing.T) {
	t.Parallel()

	posts, err := ParsePosts("<html><body><p>no results</p></body></html>", "https://n.example")
	require.NoError(t, err)
	require.Empty(t, posts)
}

func TestParseStatValue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want *int
	}{
		{"plain", "42", intPtr(42)},
		{"thousands separator", "1,234", intPtr(1234)},
		{"kilo suffix", "5.2K", intPtr(5200)},
		{"mega suffix", "1.1M", intPtr(1_100_000)},
		{"whitespace", "  7  ", intPtr(7)},
		{"empty", "", nil},
		{"no digits", "—", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ParseStatValue(tc.in)
			if tc.want == nil {
				require.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.Equal(t, *tc.want, *got)
		})
	}
}

func TestParseNitterDate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "2026-05-10T14:45:00Z", ParseNitterDate("May 10, 2026 · 2:45 PM UTC"))
	require.Equal(t, "2026-01-02T09:05:00Z", ParseNitterDate("Jan 2, 2026 9:05 AM"))
	require.Equal(t, "yesterday", ParseNitterDate("yesterday"))
	require.Empty(t, ParseNitterDate(""))
}

func intPtr(v int) *int { return &v }
