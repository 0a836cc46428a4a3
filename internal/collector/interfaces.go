package collector

import (
	"context"
	"time"
)

// Searcher discovers candidate posts for a search term. It returns the
// possibly refreshed session identity so the fetch gate presents the same
// cookies and user agent that rendered the search page.
type Searcher interface {
	Search(ctx context.Context, term string, identity Identity) ([]CandidatePost, Identity, error)
}

// Downloader fetches one attachment to destDir and returns the local path.
// Failures are reported as *DownloadError so the fetch gate can tell
// blocking responses apart from fatal transport errors.
type Downloader interface {
	Download(ctx context.Context, att Attachment, postID string, identity Identity, destDir string) (string, error)
}

// OCRService extracts text from an image file.
type OCRService interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
}

// Transcriber produces a transcript for an audio-bearing media file.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (string, error)
}

// StreamInspector reports whether a media container has an audio stream.
type StreamInspector interface {
	HasAudioStream(ctx context.Context, path string) (bool, error)
}

// Classifier determines the kind of a fetched media file.
type Classifier interface {
	Classify(ctx context.Context, path string) MediaKind
}

// Ledger is the append-only set of committed post identifiers. An id is
// added only after its record is durably written.
type Ledger interface {
	Contains(ctx context.Context, id string) (bool, error)
	Add(ctx context.Context, id string) error
	Close() error
}

// Sink durably writes enriched post records. Writes must be atomic with
// respect to process crash.
type Sink interface {
	Write(ctx context.Context, record EnrichedPostRecord) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
