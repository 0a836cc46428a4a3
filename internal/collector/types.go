package collector

import "time"

// MediaKind classifies a fetched media file.
type MediaKind string

// Media kinds produced by the classifier.
const (
	MediaKindImage             MediaKind = "image"
	MediaKindVideoWithAudio    MediaKind = "video_with_audio"
	MediaKindVideoWithoutAudio MediaKind = "video_without_audio"
	MediaKindUnsupported       MediaKind = "unsupported"
)

// State represents the lifecycle state of a post inside the processor.
type State string

// Post processing states. Committed and Discarded are terminal.
const (
	StateDiscovered State = "discovered"
	StateFetching   State = "fetching"
	StateClassified State = "classified"
	StateEnriching  State = "enriching"
	StateCommitted  State = "committed"
	StateDiscarded  State = "discarded"
)

// Attachment describes one media item attached to a discovered post.
type Attachment struct {
	MediaURL string
	// TypeHint is the media type declared by discovery ("image" or "video").
	// The classifier has the final word once the file is on disk.
	TypeHint string
}

// CandidatePost is the raw discovery record for a single post. It is
// immutable once produced; engagement counters stay nil when the source
// page did not expose them, which is distinct from an explicit zero.
type CandidatePost struct {
	ID          string
	URL         string
	PublishedAt string
	Username    string
	DisplayName string
	Verified    bool
	Replies     *int
	Reposts     *int
	Likes       *int
	Text        string
	Attachments []Attachment
}

// MediaArtifact is the working state for one fetched attachment. It is
// discarded after the owning processor run completes and never persisted.
type MediaArtifact struct {
	Path string
	Kind MediaKind
	// Text is the enrichment result. nil means no text was produced,
	// which for exempt kinds (muted video, unsupported) is not a failure.
	Text     *string
	Attempts int
}

// Cookie is a single browser cookie captured by discovery.
type Cookie struct {
	Domain  string
	Path    string
	Name    string
	Value   string
	Secure  bool
	Expires int64
}

// EnrichedPostRecord is the output unit written to the sink. A record
// exists iff every attachment was enriched or legitimately exempt.
type EnrichedPostRecord struct {
	Collection CollectionMetadata `json:"collection_metadata"`
	Post       PostData           `json:"post_data"`
	Engagement Engagement         `json:"engagement"`
	Content    Content            `json:"content"`
}

// CollectionMetadata records how and when the post was collected.
type CollectionMetadata struct {
	Platform    string    `json:"platform"`
	CollectedAt time.Time `json:"collected_at"`
	Method      string    `json:"method"`
	SearchTerm  string    `json:"search_term"`
	CycleID     string    `json:"cycle_id"`
}

// PostData carries the platform-assigned post fields.
type PostData struct {
	ID          string `json:"post_id"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Author      Author `json:"author"`
}

// Author holds the author block. PseudonymizedID replaces any persistent
// user identifier; the raw username is kept only for display context.
type Author struct {
	PseudonymizedID string `json:"pseudonymized_id"`
	Username        string `json:"username"`
	DisplayName     string `json:"display_name"`
	Verified        bool   `json:"verified"`
	FollowerCount   *int   `json:"follower_count"`
}

// Engagement counts are nil when unknown, never coerced to zero.
type Engagement struct {
	Replies *int `json:"replies"`
	Reposts *int `json:"reposts"`
	Likes   *int `json:"likes"`
	Views   *int `json:"views"`
}

// Content is the post body plus its enriched attachments.
type Content struct {
	Text        string             `json:"text"`
	Attachments []RecordAttachment `json:"attachments"`
}

// RecordAttachment is one attachment in the output record. ExtractedText
// is OCR output for images, a transcript for audio-bearing video, and
// null for muted video or unsupported media.
type RecordAttachment struct {
	MediaType     string  `json:"media_type"`
	MediaURL      string  `json:"media_url"`
	ExtractedText *string `json:"extracted_text"`
}
