package collector

import (
	"errors"
	"fmt"
)

// DownloadErrorKind distinguishes the ways a media download can fail.
type DownloadErrorKind string

// Download failure kinds. Only Blocked is retryable.
const (
	DownloadBlocked   DownloadErrorKind = "blocked"
	DownloadNotFound  DownloadErrorKind = "not_found"
	DownloadTransport DownloadErrorKind = "transport"
)

// DownloadError reports a failed attachment download.
type DownloadError struct {
	Kind DownloadErrorKind
	URL  string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// IsBlocked reports whether err is a blocking/forbidden download response.
func IsBlocked(err error) bool {
	var de *DownloadError
	return errors.As(err, &de) && de.Kind == DownloadBlocked
}

// FetchFailure is returned by the fetch gate when an attachment could not
// be fetched, carrying the last error and the number of attempts made.
type FetchFailure struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchFailure) Unwrap() error { return e.Err }

// EnrichmentFailure is returned when a mandatory enrichment call (image
// OCR, video transcription) fails. It discards the post for this cycle.
type EnrichmentFailure struct {
	Kind MediaKind
	Path string
	Err  error
}

func (e *EnrichmentFailure) Error() string {
	return fmt.Sprintf("enrich %s (%s): %v", e.Path, e.Kind, e.Err)
}

func (e *EnrichmentFailure) Unwrap() error { return e.Err }

// ErrCommitFailed wraps sink or ledger write errors at commit time. The
// post is treated as discarded so a future cycle retries it.
var ErrCommitFailed = errors.New("commit failed")
