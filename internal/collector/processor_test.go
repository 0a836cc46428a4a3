package collector

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	fn func(ctx context.Context, att Attachment, stem string, identity Identity, destDir string) (MediaArtifact, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, att Attachment, stem string, identity Identity, destDir string) (MediaArtifact, error) {
	return f.fn(ctx, att, stem, identity, destDir)
}

type fakeClassifier struct {
	kind MediaKind
}

func (f *fakeClassifier) Classify(context.Context, string) MediaKind { return f.kind }

type fakeOCR struct {
	text  string
	err   error
	calls int
}

func (f *fakeOCR) ExtractText(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeSink struct {
	records []EnrichedPostRecord
	err     error
}

func (f *fakeSink) Write(_ context.Context, record EnrichedPostRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.records = append(f.records, record)
	return "post_" + record.Post.ID + ".json", nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func passthroughFetcher(t *testing.T) *fakeFetcher {
	t.Helper()
	return &fakeFetcher{fn: func(_ context.Context, _ Attachment, stem string, _ Identity, destDir string) (MediaArtifact, error) {
		return MediaArtifact{Path: filepath.Join(destDir, stem+".bin"), Attempts: 1}, nil
	}}
}

func newTestProcessor(t *testing.T, fetcher Fetcher, cls Classifier, ocr OCRService, tr Transcriber, snk Sink) *Processor {
	t.Helper()
	return NewProcessor(
		fetcher,
		cls,
		ocr,
		tr,
		snk,
		NewPseudonymizer("pepper"),
		fixedClock{now: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)},
		ProcessorConfig{WorkDir: t.TempDir()},
		zap.NewNop(),
	)
}

func intPtr(v int) *int { return &v }

func TestProcessTextOnlyPostCommits(t *testing.T) {
	t.Parallel()

	snk := &fakeSink{}
	proc := newTestProcessor(t, passthroughFetcher(t), &fakeClassifier{}, &fakeOCR{}, &fakeTranscriber{}, snk)

	post := CandidatePost{
		ID:       "100",
		URL:      "https://nitter.example/u/status/100",
		Username: "alice",
		Text:     "sem anexos",
		Replies:  intPtr(2),
	}
	state, err := proc.Process(context.Background(), post, "enchente", "cycle-1", Identity{})
	require.NoError(t, err)
	require.Equal(t, StateCommitted, state)
	require.Len(t, snk.records, 1)

	record := snk.records[0]
	require.Equal(t, "X", record.Collection.Platform)
	require.Equal(t, "web_scraping", record.Collection.Method)
	require.Equal(t, "enchente", record.Collection.SearchTerm)
	require.Equal(t, "cycle-1", record.Collection.CycleID)
	require.Equal(t, "100", record.Post.ID)
	require.NotEmpty(t, record.Post.Author.PseudonymizedID)
	require.NotEqual(t, "alice", record.Post.Author.PseudonymizedID)
	require.Equal(t, 2, *record.Engagement.Replies)
	require.Nil(t, record.Engagement.Likes)
	require.Empty(t, record.Content.Attachments)
}

func TestProcessImagePostEnriched(t *testing.T) {
	t.Parallel()

	snk := &fakeSink{}
	ocr := &fakeOCR{text: "  texto da placa  "}
	proc := newTestProcessor(t, passthroughFetcher(t), &fakeClassifier{kind: MediaKindImage}, ocr, &fakeTranscriber{}, snk)

	post := CandidatePost{
		ID:          "101",
		Attachments: []Attachment{{MediaURL: "https://nitter.example/pic/1.jpg", TypeHint: "image"}},
	}
	state, err := proc.Process(context.Background(), post, "term", "c", Identity{})
	require.NoError(t, err)
	require.Equal(t, StateCommitted, state)
	require.Equal(t, 1, ocr.calls)

	atts := snk.records[0].Content.Attachments
	require.Len(t, atts, 1)
	require.NotNil(t, atts[0].ExtractedText)
	require.Equal(t, "texto da placa", *atts[0].ExtractedText)
}

func TestProcessEmptyOCRTextStaysAbsent(t *testing.T) {
	t.Parallel()

	snk := &fakeSink{}
	proc := newTestProcessor(t, passthroughFetcher(t), &fakeClassifier{kind: MediaKindImage}, &fakeOCR{text: "   "}, &fakeTranscriber{}, snk)

	post := CandidatePost{ID: "102", Attachments: []Attachment{{MediaURL: "u", TypeHint: "image"}}}
	state, err := proc.Process(context.Background(), post, "term", "c", Identity{})
	require.NoError(t, err)
	require.Equal(t, StateCommitted, state)
	require.Nil(t, snk.records[0].Content.Attachments[0].ExtractedText)
}

func TestProcessOCRFailureDiscards(t *testing.T) {
	t.Parallel()

	snk := &fakeSink{}
	proc := newTestProcessor(t, passthroughFetcher(t), &fakeClassifier{kind: MediaKindImage}, &fakeOCR{err: errors.New("engine crashed")}, &fakeTranscriber{}, snk)

	post := CandidatePost{ID: "103", Attachments: []Attachment{{MediaURL: "u", TypeHint: "image"}}}
	state, err := proc.Process(context.Background(), post, "term", "c", Identity{})
	require.Error(t, err)
	require.Equal(t, StateDiscarded, state)

	var ef *EnrichmentFailure
	require.ErrorAs(t, err, &ef)
	require.Equal(t, MediaKindImage, ef.Kind)
	require.Empty(t, snk.records)
}

func TestProcessMutedVideoExemptFromTranscription(t *testing.T) {
	t.Parallel()

	snk := &fakeSink{}
	tr := &fakeTranscriber{}
	proc := newTestProcessor(t, passthroughFetcher(t), &fakeClassifier{kind: MediaKindVideoWithoutAudio}, &fakeOCR{}, tr, snk)

	post := CandidatePost{ID: "104", Attachments: []Attachment{{MediaURL: "v", TypeHint: "video"}}}
	state, err := proc.Process(context.Background(), post, "term", "c", Identity{})
	require.NoError(t, err)
	require.Equal(t, StateCommitted, state)
	require.Zero(t, tr.calls)
	require.Nil(t, snk.records[0].Content.Attachments[0].ExtractedText)
}

func TestProcessVideoWithAudioTranscribed(t *testing.T) {
	t.Parallel()

	snk := &fakeSink{}
	tr := &fakeTranscriber{text: "fala transcrita"}
	proc := newTestProcessor(t, passthroughFetcher(t), &fakeClassifier{kind: MediaKindVideoWithAudio}, &fakeOCR{}, tr, snk)

	post := CandidatePost{ID: "105", Attachments: []Attachment{{MediaURL: "v", TypeHint: "video"}}}
	state, err := proc.Process(context.Background(), post, "term", "c", Identity{})
	require.NoError(t, err)
	require.Equal(t, StateCommitted, state)
	require.Equal(t, 1, tr.calls)
	require.Equal(t, "fala transcrita", *snk.records[0].Content.Attachments[0].ExtractedText)
}

func TestProcessFetchFailureDiscardsWholePost(t *testing.T) {
	t.Parallel()

	snk := &fakeSink{}
	fetcher := &fakeFetcher{fn: func(_ context.Context, att Attachment, stem string, _ Identity, destDir string) (MediaArtifact, error) {
		if att.TypeHint == "video" {
			return MediaArtifact{}, &FetchFailure{URL: att.MediaURL, Attempts: 3, Err: errors.New("blocked")}
		}
		return MediaArtifact{Path: filepath.Join(destDir, stem+".jpg")}, nil
	}}
	proc := newTestProcessor(t, fetcher, &fakeClassifier{kind: MediaKindImage}, &fakeOCR{text: "ok"}, &fakeTranscriber{}, snk)

	post := CandidatePost{ID: "106", Attachments: []Attachment{
		{MediaURL: "https://m/1.jpg", TypeHint: "image"},
		{MediaURL: "https://m/2.mp4", TypeHint: "video"},
	}}
	state, err := proc.Process(context.Background(), post, "term", "c", Identity{})
	require.Error(t, err)
	require.Equal(t, StateDiscarded, state)

	var ff *FetchFailure
	require.ErrorAs(t, err, &ff)
	require.Equal(t, 3, ff.Attempts)
	require.Empty(t, snk.records, "partial records must never reach the sink")
}

func TestProcessSinkFailureDiscards(t *testing.T) {
	t.Parallel()

	snk := &fakeSink{err: errors.New("disk full")}
	proc := newTestProcessor(t, passthroughFetcher(t), &fakeClassifier{}, &fakeOCR{}, &fakeTranscriber{}, snk)

	state, err := proc.Process(context.Background(), CandidatePost{ID: "107"}, "term", "c", Identity{})
	require.Error(t, err)
	require.Equal(t, StateDiscarded, state)
	require.ErrorIs(t, err, ErrCommitFailed)
}
