package ffprobe

import (
	"context"
	"fmt"
)

// Inspector implements the collector's StreamInspector contract by
// shelling out to ffprobe.
type Inspector struct {
	binary  string
	inspect func(ctx context.Context, binary, path string) (Result, error)
}

// NewInspector returns an Inspector using the given ffprobe binary.
func NewInspector(binary string) *Inspector {
	return &Inspector{binary: binary, inspect: Inspect}
}

// WithInspectFunc replaces the inspection call (for testing).
func (i *Inspector) WithInspectFunc(fn func(ctx context.Context, binary, path string) (Result, error)) {
	i.inspect = fn
}

// HasAudioStream reports whether the container has at least one audio
// stream. Absence of audio is a normal outcome, not an error.
func (i *Inspector) HasAudioStream(ctx context.Context, path string) (bool, error) {
	result, err := i.inspect(ctx, i.binary, path)
	if err != nil {
		return false, fmt.Errorf("inspect %s: %w", path, err)
	}
	return result.AudioStreamCount() > 0, nil
}
