// Package whisper wraps the Whisper speech-to-text CLI as a transcription
// service for audio-bearing video attachments.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Whisper configuration defaults.
const (
	Binary       = "whisper"
	DefaultModel = "base"
)

// Config captures runtime settings for transcription.
type Config struct {
	// Binary is the whisper CLI; resolved from PATH when empty.
	Binary string
	// Model selects the checkpoint, e.g. "base" or "small".
	Model string
	// Language forces decoding in a language; empty lets Whisper detect.
	Language string
}

// Service runs the Whisper CLI over media files.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New creates a transcription service with the given configuration.
func New(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = Binary
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string { return s.cfg.Model }

// Transcribe runs Whisper over mediaPath and returns the transcript.
// Whisper writes a JSON payload next to its output dir; the text field is
// loaded from there rather than scraped from the CLI output.
func (s *Service) Transcribe(ctx context.Context, mediaPath string) (string, error) {
	if mediaPath == "" {
		return "", fmt.Errorf("transcribe: source path required")
	}
	outputDir := filepath.Dir(mediaPath)

	args := []string{
		mediaPath,
		"--model", s.cfg.Model,
		"--output_format", "json",
		"--output_dir", outputDir,
		"--fp16", "False",
	}
	if s.cfg.Language != "" {
		args = append(args, "--language", s.cfg.Language)
	}

	if output, err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return "", fmt.Errorf("whisper %s: %w: %s", mediaPath, err, firstLine(string(output)))
	}

	baseName := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	text, err := loadTranscriptText(jsonPath)
	if err != nil {
		return "", fmt.Errorf("whisper output %s: %w", jsonPath, err)
	}
	return text, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}

// whisperPayload is the JSON structure the CLI writes.
type whisperPayload struct {
	Text     string `json:"text"`
	Segments []struct {
		Text string `json:"text"`
	} `json:"segments"`
}

func loadTranscriptText(jsonPath string) (string, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", err
	}
	var payload whisperPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("parse whisper json: %w", err)
	}
	if text := strings.TrimSpace(payload.Text); text != "" {
		return text, nil
	}
	var parts []string
	for _, seg := range payload.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
