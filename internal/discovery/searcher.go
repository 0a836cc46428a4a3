package discovery

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/collector"
)

// SearcherConfig controls discovery behavior.
type SearcherConfig struct {
	// InstanceURL is the mirror front end, e.g. https://twiiit.com.
	InstanceURL string
	// SearchLang is passed to the mirror's search as a language hint.
	SearchLang string
	// MaxResults caps how many candidates one term may yield per cycle.
	MaxResults int
	// MirrorQPS throttles page loads against the mirror. Zero disables
	// the limit.
	MirrorQPS float64
}

// Searcher implements collector.Searcher against a Nitter-style mirror.
type Searcher struct {
	cfg      SearcherConfig
	renderer PageRenderer
	filter   *LanguageFilter
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewSearcher constructs a Searcher. filter may be nil to accept every
// language.
func NewSearcher(cfg SearcherConfig, renderer PageRenderer, filter *LanguageFilter, logger *zap.Logger) *Searcher {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 20
	}
	var limiter *rate.Limiter
	if cfg.MirrorQPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MirrorQPS), 1)
	}
	return &Searcher{
		cfg:      cfg,
		renderer: renderer,
		filter:   filter,
		limiter:  limiter,
		logger:   logger,
	}
}

// Search renders the search page for term and returns the extracted
// candidates plus the refreshed session identity. The previous identity's
// user agent is kept when the page does not report one.
func (s *Searcher) Search(ctx context.Context, term string, identity collector.Identity) ([]collector.CandidatePost, collector.Identity, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, identity, fmt.Errorf("mirror rate limit: %w", err)
		}
	}

	page, err := s.renderer.Render(ctx, s.searchURL(term))
	if err != nil {
		return nil, identity, fmt.Errorf("render search page for %q: %w", term, err)
	}

	updated := identity.WithCookies(page.Cookies)
	if page.UserAgent != "" {
		updated.UserAgent = page.UserAgent
	}

	posts, err := ParsePosts(page.HTML, s.cfg.InstanceURL)
	if err != nil {
		return nil, updated, err
	}

	kept := make([]collector.CandidatePost, 0, len(posts))
	for _, post := range posts {
		if len(kept) >= s.cfg.MaxResults {
			break
		}
		if !s.filter.Matches(post.Text) {
			s.logger.Debug("post dropped by language filter", zap.String("post_id", post.ID))
			continue
		}
		kept = append(kept, post)
	}

	s.logger.Info("discovery finished",
		zap.String("term", term),
		zap.Int("found", len(posts)),
		zap.Int("kept", len(kept)),
	)
	return kept, updated, nil
}

func (s *Searcher) searchURL(term string) string {
	q := url.Values{}
	q.Set("f", "tweets")
	q.Set("q", term)
	if s.cfg.SearchLang != "" {
		q.Set("lang", s.cfg.SearchLang)
	}
	return fmt.Sprintf("%s/search?%s", s.cfg.InstanceURL, q.Encode())
}
