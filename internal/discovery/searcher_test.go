package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/collector"
)

type fakeRenderer struct {
	page    RenderedPage
	err     error
	lastURL string
}

func (r *fakeRenderer) Render(_ context.Context, rawURL string) (RenderedPage, error) {
	r.lastURL = rawURL
	return r.page, r.err
}

func (r *fakeRenderer) Close(context.Context) error { return nil }

func postCard(id, text string) string {
	return fmt.Sprintf(`<div class="timeline-item">
  <a href="/u/status/%s"></a>
  <a class="username">@user%s</a>
  <div class="tweet-content">%s</div>
</div>`, id, id, text)
}

func TestSearchBuildsURLAndRefreshesIdentity(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{page: RenderedPage{
		HTML:      postCard("1", "Chuva forte alagou o bairro inteiro hoje de manha."),
		UserAgent: "Mozilla/5.0 (headless)",
		Cookies:   []collector.Cookie{{Name: "session", Value: "xyz"}},
	}}

	s := NewSearcher(SearcherConfig{
		InstanceURL: "https://nitter.example.org",
		SearchLang:  "pt",
	}, renderer, nil, zap.NewNop())

	posts, identity, err := s.Search(context.Background(), "enchente centro", collector.Identity{UserAgent: "old-agent"})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	require.Contains(t, renderer.lastURL, "https://nitter.example.org/search?")
	require.Contains(t, renderer.lastURL, "f=tweets")
	require.Contains(t, renderer.lastURL, "lang=pt")
	require.Contains(t, renderer.lastURL, "q=enchente+centro")

	require.Equal(t, "Mozilla/5.0 (headless)", identity.UserAgent)
	require.Len(t, identity.Cookies, 1)
	require.Equal(t, "xyz", identity.Cookies[0].Value)
}

func TestSearchKeepsOldUserAgentWhenPageReportsNone(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{page: RenderedPage{HTML: "<html></html>"}}
	s := NewSearcher(SearcherConfig{InstanceURL: "https://n.example"}, renderer, nil, zap.NewNop())

	_, identity, err := s.Search(context.Background(), "term", collector.Identity{UserAgent: "old-agent"})
	require.NoError(t, err)
	require.Equal(t, "old-agent", identity.UserAgent)
}

func TestSearchCapsResults(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString(postCard(fmt.Sprintf("%d", i), "Mais um relato de alagamento na zona norte da cidade."))
	}
	renderer := &fakeRenderer{page: RenderedPage{HTML: b.String()}}
	s := NewSearcher(SearcherConfig{InstanceURL: "https://n.example", MaxResults: 20}, renderer, nil, zap.NewNop())

	posts, _, err := s.Search(context.Background(), "alagamento", collector.Identity{})
	require.NoError(t, err)
	require.Len(t, posts, 20)
}

func TestSearchAppliesLanguageFilter(t *testing.T) {
	t.Parallel()

	html := postCard("1", "A enchente alagou todas as ruas do centro da cidade e os moradores sairam de barco.") +
		postCard("2", "The flood covered every street downtown and residents had to leave by boat this morning.")
	renderer := &fakeRenderer{page: RenderedPage{HTML: html}}

	filter, err := NewLanguageFilter("pt", 0.5)
	require.NoError(t, err)
	s := NewSearcher(SearcherConfig{InstanceURL: "https://n.example"}, renderer, filter, zap.NewNop())

	posts, _, err := s.Search(context.Background(), "enchente", collector.Identity{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "1", posts[0].ID)
}

func TestSearchRenderFailure(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{err: errors.New("browser crashed")}
	s := NewSearcher(SearcherConfig{InstanceURL: "https://n.example"}, renderer, nil, zap.NewNop())

	_, identity, err := s.Search(context.Background(), "term", collector.Identity{UserAgent: "keep-me"})
	require.Error(t, err)
	require.Equal(t, "keep-me", identity.UserAgent, "identity is untouched on failure")
}
