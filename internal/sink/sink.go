// Package sink persists enriched post records as JSON files. Each record
// is written to a temporary file and renamed into place, so a crash
// mid-write can never leave a visible partial record.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/collector"
)

// JSONSink writes one file per post under root, grouped by collection
// date. Re-committing a post (after a ledger write failed) overwrites the
// same file, which keeps the sink idempotent per post id.
type JSONSink struct {
	root   string
	logger *zap.Logger
}

// NewJSONSink returns a sink rooted at dir.
func NewJSONSink(root string, logger *zap.Logger) (*JSONSink, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create sink dir %s: %w", root, err)
	}
	return &JSONSink{root: root, logger: logger}, nil
}

// Write persists the record and returns the final path.
func (s *JSONSink) Write(ctx context.Context, record collector.EnrichedPostRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	if record.Post.ID == "" {
		return "", fmt.Errorf("record has no post id")
	}

	dir := filepath.Join(s.root, record.Collection.CollectedAt.UTC().Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", dir, err)
	}

	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	target := filepath.Join(dir, fmt.Sprintf("post_%s.json", record.Post.ID))
	tmp, err := os.CreateTemp(dir, ".post_*.json.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("rename record into place: %w", err)
	}
	return target, nil
}
