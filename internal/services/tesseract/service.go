// Package tesseract wraps the Tesseract OCR binary as a text-extraction
// service for image attachments.
package tesseract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultLanguages covers the original collection target plus English,
// which dominates embedded screenshot text.
const DefaultLanguages = "por+eng"

// Binary is the command name resolved from PATH when none is configured.
const Binary = "tesseract"

// Service runs Tesseract OCR over image files.
type Service struct {
	binary        string
	languages     string
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New creates an OCR service. Empty arguments fall back to the defaults.
func New(binary, languages string) *Service {
	if binary == "" {
		binary = Binary
	}
	if languages == "" {
		languages = DefaultLanguages
	}
	return &Service{binary: binary, languages: languages}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	s.commandRunner = runner
}

// ExtractText runs OCR on imagePath and returns the recognized text.
// Tesseract writes to stdout when the output base is "stdout".
func (s *Service) ExtractText(ctx context.Context, imagePath string) (string, error) {
	if imagePath == "" {
		return "", fmt.Errorf("ocr: image path required")
	}
	output, err := s.run(ctx, s.binary, imagePath, "stdout", "-l", s.languages)
	if err != nil {
		return "", fmt.Errorf("ocr %s: %w", imagePath, err)
	}
	return strings.TrimSpace(string(output)), nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}
