// Package downloader fetches post media while presenting the browser
// session identity captured by discovery. Images come straight over HTTP;
// videos are resolved from the post page by yt-dlp, as the mirror does
// not expose direct stream URLs.
package downloader

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/collector"
)

// Downloader dispatches attachment downloads by declared media type. It
// implements collector.Downloader.
type Downloader struct {
	images *ImageDownloader
	videos *VideoDownloader
	logger *zap.Logger
}

// New constructs a Downloader.
func New(images *ImageDownloader, videos *VideoDownloader, logger *zap.Logger) *Downloader {
	return &Downloader{images: images, videos: videos, logger: logger}
}

// Download fetches the attachment into destDir, naming the file after
// stem. A complete file already present for the stem is reused, which
// keeps retried attempts for the same post from re-downloading media.
func (d *Downloader) Download(ctx context.Context, att collector.Attachment, stem string, identity collector.Identity, destDir string) (string, error) {
	if existing := findExisting(destDir, stem); existing != "" {
		d.logger.Debug("reusing downloaded media", zap.String("path", existing))
		return existing, nil
	}

	switch att.TypeHint {
	case "video":
		return d.videos.Download(ctx, att.MediaURL, stem, identity, destDir)
	default:
		return d.images.Download(ctx, att.MediaURL, stem, identity, destDir)
	}
}

// mediaExtensions lists the extensions findExisting treats as a finished
// download. Anything else, such as yt-dlp .part partials or the cookie
// file, is never reused.
var mediaExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".mp4":  {},
	".mov":  {},
	".avi":  {},
	".mkv":  {},
	".webm": {},
}

func findExisting(destDir, stem string) string {
	matches, err := filepath.Glob(filepath.Join(destDir, stem+".*"))
	if err != nil {
		return ""
	}
	for _, m := range matches {
		if _, ok := mediaExtensions[filepath.Ext(m)]; ok {
			return m
		}
	}
	return ""
}

func transportError(url string, err error) error {
	return &collector.DownloadError{
		Kind: collector.DownloadTransport,
		URL:  url,
		Err:  err,
	}
}

func statusError(url string, status int) error {
	kind := collector.DownloadTransport
	switch status {
	case 403:
		kind = collector.DownloadBlocked
	case 404:
		kind = collector.DownloadNotFound
	}
	return &collector.DownloadError{
		Kind: kind,
		URL:  url,
		Err:  fmt.Errorf("unexpected status %d", status),
	}
}
