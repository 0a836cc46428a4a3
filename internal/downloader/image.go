package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/collector"
)

// ImageDownloader fetches image attachments over HTTP using a Colly
// collector carrying the session cookies and user agent.
type ImageDownloader struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// ImageConfig controls the HTTP image downloader.
type ImageConfig struct {
	Timeout time.Duration
}

// NewImageDownloader constructs a configured Colly-based downloader.
func NewImageDownloader(cfg ImageConfig, logger *zap.Logger) *ImageDownloader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	base := colly.NewCollector(colly.Async(false))
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
	})
	base.SetRequestTimeout(cfg.Timeout)

	return &ImageDownloader{
		baseCollector: base,
		logger:        logger,
	}
}

// Download fetches rawURL and writes it under destDir as stem plus the
// URL's extension. The response status decides the failure kind: 403 is
// Blocked (retryable by the fetch gate), 404 NotFound, anything else
// Transport.
func (d *ImageDownloader) Download(ctx context.Context, rawURL, stem string, identity collector.Identity, destDir string) (string, error) {
	c := d.baseCollector.Clone()

	resultCh := make(chan imageResult, 1)
	var once sync.Once
	send := func(res imageResult) {
		once.Do(func() { resultCh <- res })
	}

	c.OnRequest(func(r *colly.Request) {
		if identity.UserAgent != "" {
			r.Headers.Set("User-Agent", identity.UserAgent)
		}
		if header := identity.CookieHeader(); header != "" {
			r.Headers.Set("Cookie", header)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode != http.StatusOK {
			send(imageResult{err: statusError(rawURL, r.StatusCode)})
			return
		}
		send(imageResult{body: append([]byte{}, r.Body...)})
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			send(imageResult{err: statusError(rawURL, r.StatusCode)})
			return
		}
		if err == nil {
			err = errors.New("unknown transport error")
		}
		send(imageResult{err: transportError(rawURL, err)})
	})

	if err := c.Visit(rawURL); err != nil {
		return "", transportError(rawURL, err)
	}
	c.Wait()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return "", res.err
		}
		if err := ctx.Err(); err != nil {
			return "", transportError(rawURL, err)
		}
		return d.writeFile(rawURL, stem, destDir, res.body)
	default:
		return "", transportError(rawURL, errors.New("image fetch produced no result"))
	}
}

func (d *ImageDownloader) writeFile(rawURL, stem, destDir string, body []byte) (string, error) {
	if len(body) == 0 {
		return "", transportError(rawURL, errors.New("empty response body"))
	}
	path := filepath.Join(destDir, stem+imageExtension(rawURL))
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return "", transportError(rawURL, fmt.Errorf("write media file: %w", err))
	}
	return path, nil
}

func imageExtension(rawURL string) string {
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	ext := strings.ToLower(filepath.Ext(trimmed))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return ext
	default:
		return ".jpg"
	}
}

type imageResult struct {
	body []byte
	err  error
}
