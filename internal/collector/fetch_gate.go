package collector

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"time"

	"go.uber.org/zap"
)

// FetchGate downloads a post's attachments with a bounded retry policy.
// Blocking responses are retried with jittered backoff under the same
// identity; any other download error is immediately fatal for the
// attachment.
type FetchGate struct {
	downloader  Downloader
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	timeout     time.Duration
	logger      *zap.Logger
}

// FetchGateConfig controls retry and timeout behavior.
type FetchGateConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Timeout bounds each individual download attempt.
	Timeout time.Duration
}

// NewFetchGate builds a gate with sane defaults for zero values.
func NewFetchGate(downloader Downloader, cfg FetchGateConfig, logger *zap.Logger) *FetchGate {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 250 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &FetchGate{
		downloader:  downloader,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		maxDelay:    cfg.MaxDelay,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// Fetch downloads one attachment into destDir. On success the returned
// artifact records how many attempts were needed. On failure it returns a
// *FetchFailure carrying the last error; no partial artifact is produced.
func (g *FetchGate) Fetch(ctx context.Context, att Attachment, postID string, identity Identity, destDir string) (MediaArtifact, error) {
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		TotalFetchAttempts.Inc()

		path, err := g.download(ctx, att, postID, identity, destDir)
		if err == nil {
			return MediaArtifact{Path: path, Attempts: attempt}, nil
		}
		lastErr = err

		if !IsBlocked(err) {
			return MediaArtifact{}, &FetchFailure{URL: att.MediaURL, Attempts: attempt, Err: err}
		}
		TotalBlockedHits.Inc()
		g.logger.Warn("media download blocked",
			zap.String("post_id", postID),
			zap.String("url", att.MediaURL),
			zap.Int("attempt", attempt),
		)
		if attempt < g.maxAttempts {
			if err := g.pause(ctx, g.backoff(attempt)); err != nil {
				return MediaArtifact{}, &FetchFailure{URL: att.MediaURL, Attempts: attempt, Err: err}
			}
		}
	}
	return MediaArtifact{}, &FetchFailure{URL: att.MediaURL, Attempts: g.maxAttempts, Err: lastErr}
}

func (g *FetchGate) download(ctx context.Context, att Attachment, postID string, identity Identity, destDir string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.downloader.Download(attemptCtx, att, postID, identity, destDir)
}

func (g *FetchGate) backoff(attempt int) time.Duration {
	delay := float64(g.baseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(g.maxDelay) {
		delay = float64(g.maxDelay)
	}
	half := time.Duration(delay / 2)
	return half + randomJitter(half)
}

func (g *FetchGate) pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
