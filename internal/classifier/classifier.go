// Package classifier decides the kind of a fetched media file from its
// container extension and stream metadata.
package classifier

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/collector"
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".avi":  {},
	".mkv":  {},
	".webm": {},
	".m3u8": {},
}

// Classifier maps a local media file to a collector.MediaKind. Inspection
// failures degrade to Unsupported: the post processor skips enrichment for
// such files without failing the post.
type Classifier struct {
	inspector collector.StreamInspector
	logger    *zap.Logger
}

// New returns a Classifier backed by the given stream inspector.
func New(inspector collector.StreamInspector, logger *zap.Logger) *Classifier {
	return &Classifier{inspector: inspector, logger: logger}
}

// Classify inspects the file at path. Images are decided by extension;
// videos additionally need a stream probe to tell audio-bearing clips
// from muted ones (GIF conversions, silent clips), which is an expected
// outcome rather than an error.
func (c *Classifier) Classify(ctx context.Context, path string) collector.MediaKind {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		c.logger.Warn("media file missing or empty", zap.String("path", path), zap.Error(err))
		return collector.MediaKindUnsupported
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := imageExtensions[ext]; ok {
		return collector.MediaKindImage
	}
	if _, ok := videoExtensions[ext]; !ok {
		return collector.MediaKindUnsupported
	}

	hasAudio, err := c.inspector.HasAudioStream(ctx, path)
	if err != nil {
		c.logger.Warn("stream inspection failed, treating media as unsupported",
			zap.String("path", path),
			zap.Error(err),
		)
		return collector.MediaKindUnsupported
	}
	if hasAudio {
		return collector.MediaKindVideoWithAudio
	}
	return collector.MediaKindVideoWithoutAudio
}
