package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher is the fetch-gate contract the processor depends on.
type Fetcher interface {
	Fetch(ctx context.Context, att Attachment, postID string, identity Identity, destDir string) (MediaArtifact, error)
}

// ProcessorConfig controls per-post processing behavior.
type ProcessorConfig struct {
	// WorkDir is where fetched media lives while a post is in flight.
	WorkDir string
	// EnrichTimeout bounds each OCR or transcription call.
	EnrichTimeout time.Duration
	// KeepMedia disables working-file cleanup, for debugging.
	KeepMedia bool
	Platform  string
	Method    string
}

// Processor runs one candidate post through the enrichment state machine:
// Discovered -> Fetching -> Classified -> Enriching -> Committed, or
// Discarded on any failure. Commit is all-or-nothing: a post is written to
// the sink only when every mandatory enrichment succeeded, so a transient
// failure never produces a partial record and the post is naturally
// retried when a later cycle rediscovers it.
type Processor struct {
	fetcher     Fetcher
	classifier  Classifier
	ocr         OCRService
	transcriber Transcriber
	sink        Sink
	pseudo      *Pseudonymizer
	clock       Clock
	cfg         ProcessorConfig
	logger      *zap.Logger
}

// NewProcessor constructs a Processor.
func NewProcessor(
	fetcher Fetcher,
	classifier Classifier,
	ocr OCRService,
	transcriber Transcriber,
	sink Sink,
	pseudo *Pseudonymizer,
	clock Clock,
	cfg ProcessorConfig,
	logger *zap.Logger,
) *Processor {
	if cfg.EnrichTimeout <= 0 {
		cfg.EnrichTimeout = 5 * time.Minute
	}
	if cfg.Platform == "" {
		cfg.Platform = "X"
	}
	if cfg.Method == "" {
		cfg.Method = "web_scraping"
	}
	return &Processor{
		fetcher:     fetcher,
		classifier:  classifier,
		ocr:         ocr,
		transcriber: transcriber,
		sink:        sink,
		pseudo:      pseudo,
		clock:       clock,
		cfg:         cfg,
		logger:      logger,
	}
}

// Process runs the state machine for a single post. It returns the
// terminal state; on StateDiscarded the error explains why. Working media
// files are removed on every exit path.
func (p *Processor) Process(ctx context.Context, post CandidatePost, term, cycleID string, identity Identity) (State, error) {
	if len(post.Attachments) == 0 {
		// Text-only posts are trivially fully enriched.
		return p.commit(ctx, post, nil, term, cycleID)
	}

	workDir := filepath.Join(p.cfg.WorkDir, post.ID)
	if err := os.MkdirAll(workDir, 0o750); err != nil {
		TotalDiscarded.Inc()
		return StateDiscarded, fmt.Errorf("create work dir: %w", err)
	}
	if !p.cfg.KeepMedia {
		defer func() {
			if err := os.RemoveAll(workDir); err != nil {
				p.logger.Warn("failed to clean work dir", zap.String("dir", workDir), zap.Error(err))
			}
		}()
	}

	artifacts := make([]MediaArtifact, len(post.Attachments))
	g, gctx := errgroup.WithContext(ctx)
	for i, att := range post.Attachments {
		g.Go(func() error {
			art, err := p.fetcher.Fetch(gctx, att, attachmentStem(post.ID, i), identity, workDir)
			if err != nil {
				return err
			}
			art.Kind = p.classifier.Classify(gctx, art.Path)
			if err := p.enrich(gctx, &art); err != nil {
				return err
			}
			artifacts[i] = art
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		TotalDiscarded.Inc()
		p.logger.Info("post discarded, will retry next cycle",
			zap.String("post_id", post.ID),
			zap.Error(err),
		)
		return StateDiscarded, err
	}

	return p.commit(ctx, post, artifacts, term, cycleID)
}

// enrich dispatches the artifact to the service its kind requires. Muted
// video and unsupported media are exempt: no call is made and the text
// stays absent, which does not block commit.
func (p *Processor) enrich(ctx context.Context, art *MediaArtifact) error {
	switch art.Kind {
	case MediaKindImage:
		text, err := p.withTimeout(ctx, art.Path, p.ocr.ExtractText)
		if err != nil {
			TotalEnrichmentFailures.Inc()
			return &EnrichmentFailure{Kind: art.Kind, Path: art.Path, Err: err}
		}
		setText(art, text)
	case MediaKindVideoWithAudio:
		text, err := p.withTimeout(ctx, art.Path, p.transcriber.Transcribe)
		if err != nil {
			TotalEnrichmentFailures.Inc()
			return &EnrichmentFailure{Kind: art.Kind, Path: art.Path, Err: err}
		}
		setText(art, text)
	case MediaKindVideoWithoutAudio, MediaKindUnsupported:
	}
	return nil
}

func (p *Processor) withTimeout(ctx context.Context, path string, call func(context.Context, string) (string, error)) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.EnrichTimeout)
	defer cancel()
	return call(callCtx, path)
}

func (p *Processor) commit(ctx context.Context, post CandidatePost, artifacts []MediaArtifact, term, cycleID string) (State, error) {
	record := p.assemble(post, artifacts, term, cycleID)
	path, err := p.sink.Write(ctx, record)
	if err != nil {
		TotalDiscarded.Inc()
		return StateDiscarded, fmt.Errorf("%w: sink write for post %s: %v", ErrCommitFailed, post.ID, err)
	}
	TotalCommitted.Inc()
	p.logger.Info("post committed",
		zap.String("post_id", post.ID),
		zap.String("path", path),
		zap.Int("attachments", len(artifacts)),
	)
	return StateCommitted, nil
}

func (p *Processor) assemble(post CandidatePost, artifacts []MediaArtifact, term, cycleID string) EnrichedPostRecord {
	attachments := make([]RecordAttachment, len(post.Attachments))
	for i, att := range post.Attachments {
		ra := RecordAttachment{
			MediaType: att.TypeHint,
			MediaURL:  att.MediaURL,
		}
		if i < len(artifacts) {
			ra.ExtractedText = artifacts[i].Text
		}
		attachments[i] = ra
	}
	return EnrichedPostRecord{
		Collection: CollectionMetadata{
			Platform:    p.cfg.Platform,
			CollectedAt: p.clock.Now(),
			Method:      p.cfg.Method,
			SearchTerm:  term,
			CycleID:     cycleID,
		},
		Post: PostData{
			ID:          post.ID,
			URL:         post.URL,
			PublishedAt: post.PublishedAt,
			Author: Author{
				PseudonymizedID: p.pseudo.Pseudonymize(post.Username),
				Username:        post.Username,
				DisplayName:     post.DisplayName,
				Verified:        post.Verified,
			},
		},
		Engagement: Engagement{
			Replies: post.Replies,
			Reposts: post.Reposts,
			Likes:   post.Likes,
		},
		Content: Content{
			Text:        post.Text,
			Attachments: attachments,
		},
	}
}

func setText(art *MediaArtifact, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	art.Text = &trimmed
}

func attachmentStem(postID string, index int) string {
	if index == 0 {
		return postID
	}
	return fmt.Sprintf("%s_%d", postID, index)
}
